package listing

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	ErrListingNotFound     = errors.New("listing: listing not found")
	ErrInvalidTitle        = errors.New("listing: title is required")
	ErrInvalidPrice        = errors.New("listing: price must be non-negative")
	ErrInvalidQuantity     = errors.New("listing: quantity must be non-negative")
	ErrInvalidStatus       = errors.New("listing: invalid status")
	ErrNotSellable         = errors.New("listing: listing is not sellable in its current status")
	ErrNotArchivable       = errors.New("listing: only sold listings can be archived")
	ErrListingAlreadySold  = errors.New("listing: listing already sold")
	ErrConcurrentSaleWrite = errors.New("listing: listing was modified by a concurrent sale")
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status represents the canonical (cross-platform) status of a listing.
// It is a derived projection: only the sale handler and the archival sweep
// may change it.
type Status string

const (
	// StatusDraft indicates the listing has not been published anywhere
	StatusDraft Status = "draft"
	// StatusActive indicates the listing is live on at least one platform
	StatusActive Status = "active"
	// StatusSold indicates every unit has been sold
	StatusSold Status = "sold"
	// StatusArchived indicates the sold listing passed its retention window
	StatusArchived Status = "archived"
)

// IsValid returns true if the status is a known canonical status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSold, StatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// Listing is the seller's canonical record of one sellable item, independent
// of any marketplace copy.
type Listing struct {
	// ID is the server-assigned identity
	ID uuid.UUID
	// PublicID is the stable external-facing identifier
	PublicID uuid.UUID
	// Title is the listing title
	Title string
	// Price is the asking price
	Price decimal.Decimal
	// Cost is the acquisition cost, used downstream for profit accounting (optional)
	Cost *decimal.Decimal
	// Quantity is the number of units still available
	Quantity int
	// Status is the canonical status projection
	Status Status
	// SoldPrice is the final sale price, set when the last unit sells
	SoldPrice *decimal.Decimal
	// SoldAt is when the last unit sold
	SoldAt *time.Time
	// StorageLocation is an opaque bin/shelf reference surfaced to fulfillment
	StorageLocation string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewListing creates a draft listing ready to be published.
func NewListing(title string, price decimal.Decimal, quantity int, now time.Time) (*Listing, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidTitle
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	return &Listing{
		ID:        uuid.New(),
		PublicID:  uuid.New(),
		Title:     title,
		Price:     price,
		Quantity:  quantity,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the listing invariants.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrInvalidTitle
	}
	if l.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if l.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if !l.Status.IsValid() {
		return ErrInvalidStatus
	}
	// quantity == 0 implies the listing is no longer sellable
	if l.Quantity == 0 && l.Status != StatusSold && l.Status != StatusArchived {
		return ErrInvalidStatus
	}
	return nil
}

// Activate marks a draft listing as live.
func (l *Listing) Activate(now time.Time) error {
	if l.Status != StatusDraft {
		return ErrInvalidStatus
	}
	l.Status = StatusActive
	l.UpdatedAt = now
	return nil
}

// RecordSale decrements the available quantity by units (bounded at zero).
// When the last unit sells the listing transitions to sold and the sold
// price/date are stamped exactly once.
func (l *Listing) RecordSale(units int, soldPrice decimal.Decimal, now time.Time) error {
	if l.Status == StatusSold || l.Status == StatusArchived {
		return ErrListingAlreadySold
	}
	if l.Status != StatusActive {
		return ErrNotSellable
	}
	if units <= 0 {
		units = 1
	}

	l.Quantity -= units
	if l.Quantity < 0 {
		l.Quantity = 0
	}
	if l.Quantity == 0 {
		l.Status = StatusSold
		l.SoldPrice = &soldPrice
		l.SoldAt = &now
	}
	l.UpdatedAt = now
	return nil
}

// Archive transitions a sold listing to archived. Idempotent for listings
// that are already archived.
func (l *Listing) Archive(now time.Time) error {
	if l.Status == StatusArchived {
		return nil
	}
	if l.Status != StatusSold {
		return ErrNotArchivable
	}
	l.Status = StatusArchived
	l.UpdatedAt = now
	return nil
}

// IsSold returns true once every unit has been sold.
func (l *Listing) IsSold() bool {
	return l.Status == StatusSold || l.Status == StatusArchived
}
