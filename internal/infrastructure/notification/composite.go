package notification

import (
	"context"
	"errors"

	"github.com/crosslist/backend/internal/domain/marketplace"
)

// CompositeNotifier fans one notification out to multiple sinks. Every sink
// gets the notification even when an earlier one fails.
type CompositeNotifier struct {
	sinks []marketplace.Notifier
}

// NewCompositeNotifier creates a notifier that delivers to all given sinks
func NewCompositeNotifier(sinks ...marketplace.Notifier) *CompositeNotifier {
	return &CompositeNotifier{sinks: sinks}
}

// Notify delivers to every sink and joins any failures
func (n *CompositeNotifier) Notify(ctx context.Context, notif marketplace.Notification) error {
	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Notify(ctx, notif); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure CompositeNotifier implements Notifier
var _ marketplace.Notifier = (*CompositeNotifier)(nil)
