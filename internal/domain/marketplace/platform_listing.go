package marketplace

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ListingStatus
// ---------------------------------------------------------------------------

// ListingStatus represents the status of one listing copy on one platform.
type ListingStatus string

const (
	// ListingStatusPending indicates publish was requested but not confirmed
	ListingStatusPending ListingStatus = "pending"
	// ListingStatusActive indicates the copy is live and purchasable
	ListingStatusActive ListingStatus = "active"
	// ListingStatusSold indicates the item sold on this platform
	ListingStatusSold ListingStatus = "sold"
	// ListingStatusCanceled indicates the copy was canceled by the engine
	ListingStatusCanceled ListingStatus = "canceled"
	// ListingStatusDelisted indicates the copy was removed on the platform side
	ListingStatusDelisted ListingStatus = "delisted"
	// ListingStatusFailed indicates retirement retries were exhausted;
	// requires operator intervention
	ListingStatusFailed ListingStatus = "failed"
)

// IsValid returns true if the status is a known platform listing status
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusPending, ListingStatusActive, ListingStatusSold,
		ListingStatusCanceled, ListingStatusDelisted, ListingStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states the engine never leaves on its own.
// failed is terminal too: only a manual operator reset re-arms the row.
func (s ListingStatus) IsTerminal() bool {
	switch s {
	case ListingStatusSold, ListingStatusCanceled, ListingStatusDelisted, ListingStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits moving from s
// to target. sold never transitions anywhere.
func (s ListingStatus) CanTransitionTo(target ListingStatus) bool {
	if !target.IsValid() {
		return false
	}
	switch s {
	case ListingStatusPending:
		return target == ListingStatusActive || target == ListingStatusCanceled ||
			target == ListingStatusDelisted || target == ListingStatusFailed
	case ListingStatusActive:
		return target == ListingStatusSold || target == ListingStatusCanceled ||
			target == ListingStatusDelisted || target == ListingStatusFailed
	case ListingStatusFailed:
		// operator reset path only
		return target == ListingStatusPending
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// PlatformListing
// ---------------------------------------------------------------------------

// PlatformListing is the state of one listing's presence on one marketplace.
// Identity is the (ListingID, PlatformCode) pair.
type PlatformListing struct {
	// ListingID references the canonical listing
	ListingID uuid.UUID
	// PlatformCode identifies the marketplace
	PlatformCode PlatformCode
	// RemoteID is the marketplace-assigned listing id (empty before publish)
	RemoteID string
	// Status is the per-platform status
	Status ListingStatus
	// CancelScheduledAt, when set, means retirement is due at or after this
	// time and will be picked up by the delist sweep
	CancelScheduledAt *time.Time
	// CancelAttempts counts failed retirement attempts
	CancelAttempts int
	// LastCancelError holds the most recent retirement failure detail
	LastCancelError string
	// LastCancelFailureAt is when the most recent retirement attempt failed
	LastCancelFailureAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewPlatformListing creates a pending platform listing for a marketplace.
func NewPlatformListing(listingID uuid.UUID, code PlatformCode, now time.Time) (*PlatformListing, error) {
	if listingID == uuid.Nil {
		return nil, ErrPlatformListingNotFound
	}
	if !code.IsValid() {
		return nil, ErrInvalidPlatformCode
	}
	return &PlatformListing{
		ListingID:    listingID,
		PlatformCode: code,
		Status:       ListingStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Publish records the marketplace-assigned remote id and activates the copy.
func (p *PlatformListing) Publish(remoteID string, now time.Time) error {
	if !p.Status.CanTransitionTo(ListingStatusActive) {
		return ErrInvalidTransition
	}
	p.RemoteID = remoteID
	p.Status = ListingStatusActive
	p.UpdatedAt = now
	return nil
}

// RetirementDue reports whether the scheduled cancellation has elapsed.
func (p *PlatformListing) RetirementDue(now time.Time) bool {
	return p.CancelScheduledAt != nil && !p.CancelScheduledAt.After(now)
}

// InRetryCooldown reports whether the last retirement failure is too recent
// for another attempt. Keeps the sweep from hot-looping a failing adapter.
func (p *PlatformListing) InRetryCooldown(now time.Time, cooldown time.Duration) bool {
	if cooldown <= 0 || p.LastCancelFailureAt == nil {
		return false
	}
	return now.Sub(*p.LastCancelFailureAt) < cooldown
}
