package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/marketplace"
)

// LogNotifier writes notifications to the structured log. Always available,
// used standalone in development and alongside redis in production.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification
func (n *LogNotifier) Notify(_ context.Context, notif marketplace.Notification) error {
	n.logger.Info("Notification",
		zap.String("type", string(notif.Type)),
		zap.String("listing_id", notif.ListingID.String()),
		zap.String("platform_code", notif.PlatformCode.String()),
		zap.String("title", notif.Title),
		zap.String("message", notif.Message),
	)
	return nil
}

// Ensure LogNotifier implements Notifier
var _ marketplace.Notifier = (*LogNotifier)(nil)
