package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

// DefaultPublishTimeout bounds each publish call when none is configured
const DefaultPublishTimeout = 2 * time.Second

// RedisNotifier publishes notifications as JSON on a redis pub/sub channel.
// Subscribers that miss a message miss it: the channel carries alerts, not
// state, and the sync log remains the durable record.
type RedisNotifier struct {
	client         *redis.Client
	channel        string
	publishTimeout time.Duration
}

// NewRedisNotifier creates a notifier with its own Redis connection
func NewRedisNotifier(redisCfg *config.RedisConfig, notifCfg *config.NotificationConfig) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisNotifierWithClient(client, notifCfg.Channel, notifCfg.PublishTimeout), nil
}

// NewRedisNotifierWithClient creates a notifier with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisNotifierWithClient(client *redis.Client, channel string, publishTimeout time.Duration) *RedisNotifier {
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &RedisNotifier{
		client:         client,
		channel:        channel,
		publishTimeout: publishTimeout,
	}
}

// Notify publishes the notification on the configured channel
func (n *RedisNotifier) Notify(ctx context.Context, notif marketplace.Notification) error {
	payload, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()

	if err := n.client.Publish(publishCtx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// Ensure RedisNotifier implements Notifier
var _ marketplace.Notifier = (*RedisNotifier)(nil)
