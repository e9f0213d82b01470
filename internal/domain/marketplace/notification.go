package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies engine events surfaced to the seller.
type NotificationType string

const (
	// NotificationTypeSale is emitted when a sale is confirmed
	NotificationTypeSale NotificationType = "sale"
	// NotificationTypeOversold is emitted when a second platform reports a
	// sale for a listing already sold elsewhere
	NotificationTypeOversold NotificationType = "oversold"
	// NotificationTypeRetirementFailed is emitted when one retirement
	// attempt fails (it will be retried by the next sweep)
	NotificationTypeRetirementFailed NotificationType = "retirement_failed"
	// NotificationTypeRetirementExhausted is emitted when retirement retries
	// are exhausted and the row is parked as failed
	NotificationTypeRetirementExhausted NotificationType = "retirement_exhausted"
	// NotificationTypeSaleSyncFailed is emitted when the sale was recorded
	// but the selling platform's row could not be marked sold
	NotificationTypeSaleSyncFailed NotificationType = "sale_sync_failed"
)

// Notification is a structured, fire-and-forget event for user-facing
// alerting. Delivery guarantees belong to the emitter, not the engine.
type Notification struct {
	Type         NotificationType `json:"type"`
	ListingID    uuid.UUID        `json:"listing_id"`
	PlatformCode PlatformCode     `json:"platform_code"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Payload      map[string]any   `json:"payload,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Notifier is the outbound port for notifications. Implementations must be
// bounded: a slow sink must not stall the sale path or the sweep.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
