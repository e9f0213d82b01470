package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/marketplace"
)

// BuyerInfo carries whatever the marketplace reported about the buyer.
// Opaque to the engine; surfaced in notifications for fulfillment.
type BuyerInfo struct {
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
}

// HandleSaleInput is the inbound contract for a confirmed sale.
type HandleSaleInput struct {
	// ListingID is the canonical listing that sold
	ListingID uuid.UUID
	// PlatformCode is the marketplace the sale happened on
	PlatformCode marketplace.PlatformCode
	// SoldPrice is the confirmed sale price
	SoldPrice decimal.Decimal
	// Buyer is optional buyer detail from the marketplace
	Buyer *BuyerInfo
	// Units is the number of units sold (defaults to 1)
	Units int
	// AutoDelist controls whether sibling platform listings are retired
	AutoDelist bool
	// DelistDelay is the grace period before sibling retirement; zero means
	// retire immediately within this call
	DelistDelay time.Duration
}

// ScheduledDelisting reports one sibling scheduled for later retirement.
type ScheduledDelisting struct {
	PlatformCode marketplace.PlatformCode `json:"platform_code"`
	ScheduledAt  time.Time                `json:"scheduled_at"`
}

// PlatformOutcome is the tagged per-platform result of a fan-out operation.
type PlatformOutcome struct {
	PlatformCode marketplace.PlatformCode `json:"platform_code"`
	Success      bool                     `json:"success"`
	Error        string                   `json:"error,omitempty"`
}

// SaleResult reports what a sale confirmation did.
type SaleResult struct {
	ListingID    uuid.UUID                `json:"listing_id"`
	PlatformCode marketplace.PlatformCode `json:"platform_code"`
	SoldPrice    decimal.Decimal          `json:"sold_price"`
	// SoldOut is true when the last unit sold and the listing went sold
	SoldOut bool `json:"sold_out"`
	// QuantityLeft is the remaining unit count
	QuantityLeft int `json:"quantity_left"`
	// StorageLocation surfaces where the item is stored, for fulfillment
	StorageLocation string `json:"storage_location,omitempty"`
	// DelistedNow lists siblings retired within this call (zero delay)
	DelistedNow []marketplace.PlatformCode `json:"delisted_now"`
	// Scheduled lists siblings scheduled for delayed retirement
	Scheduled []ScheduledDelisting `json:"scheduled"`
	// Failed lists siblings whose immediate retirement failed; these stay
	// scheduled for the sweep to retry
	Failed []PlatformOutcome `json:"failed,omitempty"`
}

// SyncStatusResult is the per-platform breakdown of a status fan-out. The
// operation never fails as a whole; callers retry just the failed subset.
type SyncStatusResult struct {
	ListingID uuid.UUID                  `json:"listing_id"`
	Status    marketplace.ListingStatus  `json:"status"`
	Outcomes  []PlatformOutcome          `json:"outcomes"`
	Skipped   []marketplace.PlatformCode `json:"skipped"`
}

// Succeeded reports whether every non-skipped platform synced.
func (r *SyncStatusResult) Succeeded() bool {
	for _, o := range r.Outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}

// SweepDetail reports the outcome for one row of a retirement sweep.
type SweepDetail struct {
	ListingID    uuid.UUID                `json:"listing_id"`
	PlatformCode marketplace.PlatformCode `json:"platform_code"`
	Success      bool                     `json:"success"`
	Error        string                   `json:"error,omitempty"`
}

// SweepResult summarizes one retirement sweep execution.
type SweepResult struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Details   []SweepDetail `json:"details"`
}

// ArchiveResult summarizes one archival sweep execution.
type ArchiveResult struct {
	Archived   int         `json:"archived"`
	ListingIDs []uuid.UUID `json:"listing_ids"`
}
