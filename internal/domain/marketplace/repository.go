package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlatformListingRepository defines the persistence port for platform
// listings. Every state transition is a single conditional update guarded on
// the current status (compare-and-set), so the transitions stay linearizable
// under concurrent workers without application-level locks.
type PlatformListingRepository interface {
	// Create persists a new platform listing; returns
	// ErrPlatformListingExists if the (listing, platform) pair exists
	Create(ctx context.Context, pl *PlatformListing) error

	// Find returns one platform listing or ErrPlatformListingNotFound
	Find(ctx context.Context, listingID uuid.UUID, code PlatformCode) (*PlatformListing, error)

	// FindByListing returns all platform listings of one listing, in stable
	// platform order
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]PlatformListing, error)

	// FindByRemoteID resolves a platform listing from the marketplace's own
	// listing id (webhook entry path)
	FindByRemoteID(ctx context.Context, code PlatformCode, remoteID string) (*PlatformListing, error)

	// Publish records the remote id and transitions pending -> active,
	// guarded on the current status
	Publish(ctx context.Context, listingID uuid.UUID, code PlatformCode, remoteID string, now time.Time) error

	// MarkSold atomically transitions the row to sold. The update only
	// applies while the current status is active; when the guard fails the
	// repository distinguishes ErrAlreadySold (row already terminal sold)
	// from ErrInvalidTransition. First caller wins; there is never more than
	// one sold row per listing.
	MarkSold(ctx context.Context, listingID uuid.UUID, code PlatformCode, now time.Time) error

	// ScheduleCancel sets the scheduled-cancellation timestamp on a
	// non-terminal row. A no-op (without error) on rows that are already
	// terminal, so scheduling siblings never races with their own sale.
	// Reports whether the row was scheduled.
	ScheduleCancel(ctx context.Context, listingID uuid.UUID, code PlatformCode, cancelAt time.Time, now time.Time) (bool, error)

	// FindCancelDue returns rows whose scheduled cancellation has elapsed
	// and whose status is still pending or active, skipping rows whose last
	// failure is younger than cooldown, up to limit rows
	FindCancelDue(ctx context.Context, now time.Time, cooldown time.Duration, limit int) ([]PlatformListing, error)

	// CompleteCancel transitions a scheduled row to the target terminal
	// status (canceled or delisted) and clears the scheduled timestamp.
	// Guarded on status still being pending/active; re-processing an
	// already-retired row reports false and changes nothing.
	CompleteCancel(ctx context.Context, listingID uuid.UUID, code PlatformCode, target ListingStatus, now time.Time) (bool, error)

	// RecordCancelFailure increments the attempt counter and stamps the
	// failure detail, leaving the scheduled timestamp intact for the next
	// sweep
	RecordCancelFailure(ctx context.Context, listingID uuid.UUID, code PlatformCode, cause string, now time.Time) error

	// MarkFailed parks a row as failed after retries are exhausted and
	// clears the scheduled timestamp so the sweep stops selecting it
	MarkFailed(ctx context.Context, listingID uuid.UUID, code PlatformCode, cause string, now time.Time) error

	// UpdateStatus applies a manual status override with no cascading and no
	// guard beyond the row existing. Used by the fan-out synchronizer.
	UpdateStatus(ctx context.Context, listingID uuid.UUID, code PlatformCode, status ListingStatus, now time.Time) error
}
