package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingFilter defines filter criteria for listing queries
type ListingFilter struct {
	// Status filters by canonical status (optional)
	Status *Status
	// Search matches against the title (optional)
	Search string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// ListingRepository defines the persistence port for listings.
type ListingRepository interface {
	// Create persists a new listing
	Create(ctx context.Context, l *Listing) error

	// FindByID returns the listing or ErrListingNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByPublicID returns the listing by its external identifier
	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*Listing, error)

	// Save persists the listing state
	Save(ctx context.Context, l *Listing) error

	// RecordSale applies the sale projection in one conditional update:
	// decrement quantity by units (bounded at zero) and, when the last unit
	// sells, transition to sold and stamp sold price/date. The update is
	// guarded on status = active so two concurrent confirmations can never
	// both apply; the loser gets ErrListingAlreadySold. Returns the updated
	// listing.
	RecordSale(ctx context.Context, id uuid.UUID, units int, soldPrice decimal.Decimal, at time.Time) (*Listing, error)

	// FindArchivable returns sold listings whose sold date is at or before
	// the cutoff, up to limit rows
	FindArchivable(ctx context.Context, cutoff time.Time, limit int) ([]Listing, error)

	// MarkArchived transitions a sold listing to archived. The update is
	// guarded on the current status so re-running the sweep is a no-op;
	// it reports whether the row was transitioned by this call.
	MarkArchived(ctx context.Context, id uuid.UUID, archivedAt time.Time) (bool, error)

	// FindAll returns listings matching the filter
	FindAll(ctx context.Context, filter ListingFilter) ([]Listing, error)

	// Count counts listings matching the filter
	Count(ctx context.Context, filter ListingFilter) (int64, error)
}
