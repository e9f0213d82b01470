package handler

import (
	"time"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
)

// ListingResponse is the wire form of a canonical listing
type ListingResponse struct {
	ID              string     `json:"id"`
	PublicID        string     `json:"public_id"`
	Title           string     `json:"title"`
	Price           string     `json:"price"`
	Cost            *string    `json:"cost,omitempty"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	SoldPrice       *string    `json:"sold_price,omitempty"`
	SoldAt          *time.Time `json:"sold_at,omitempty"`
	StorageLocation string     `json:"storage_location,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewListingResponse converts a domain listing to its wire form
func NewListingResponse(l *listing.Listing) ListingResponse {
	resp := ListingResponse{
		ID:              l.ID.String(),
		PublicID:        l.PublicID.String(),
		Title:           l.Title,
		Price:           l.Price.StringFixed(2),
		Quantity:        l.Quantity,
		Status:          l.Status.String(),
		SoldAt:          l.SoldAt,
		StorageLocation: l.StorageLocation,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	if l.Cost != nil {
		cost := l.Cost.StringFixed(2)
		resp.Cost = &cost
	}
	if l.SoldPrice != nil {
		soldPrice := l.SoldPrice.StringFixed(2)
		resp.SoldPrice = &soldPrice
	}
	return resp
}

// NewListingListResponse converts a page of domain listings
func NewListingListResponse(items []listing.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(items))
	for i := range items {
		out = append(out, NewListingResponse(&items[i]))
	}
	return out
}

// PlatformListingResponse is the wire form of one platform copy
type PlatformListingResponse struct {
	ListingID           string     `json:"listing_id"`
	PlatformCode        string     `json:"platform_code"`
	PlatformName        string     `json:"platform_name"`
	RemoteID            string     `json:"remote_id,omitempty"`
	Status              string     `json:"status"`
	CancelScheduledAt   *time.Time `json:"cancel_scheduled_at,omitempty"`
	CancelAttempts      int        `json:"cancel_attempts,omitempty"`
	LastCancelError     string     `json:"last_cancel_error,omitempty"`
	LastCancelFailureAt *time.Time `json:"last_cancel_failure_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewPlatformListingResponse converts a domain platform listing to its wire form
func NewPlatformListingResponse(pl *marketplace.PlatformListing) PlatformListingResponse {
	return PlatformListingResponse{
		ListingID:           pl.ListingID.String(),
		PlatformCode:        pl.PlatformCode.String(),
		PlatformName:        pl.PlatformCode.DisplayName(),
		RemoteID:            pl.RemoteID,
		Status:              pl.Status.String(),
		CancelScheduledAt:   pl.CancelScheduledAt,
		CancelAttempts:      pl.CancelAttempts,
		LastCancelError:     pl.LastCancelError,
		LastCancelFailureAt: pl.LastCancelFailureAt,
		CreatedAt:           pl.CreatedAt,
		UpdatedAt:           pl.UpdatedAt,
	}
}

// NewPlatformListingListResponse converts a set of platform copies
func NewPlatformListingListResponse(items []marketplace.PlatformListing) []PlatformListingResponse {
	out := make([]PlatformListingResponse, 0, len(items))
	for i := range items {
		out = append(out, NewPlatformListingResponse(&items[i]))
	}
	return out
}

// SyncLogEntryResponse is the wire form of one audit trail entry
type SyncLogEntryResponse struct {
	ID           string         `json:"id"`
	ListingID    string         `json:"listing_id"`
	PlatformCode string         `json:"platform_code,omitempty"`
	Action       string         `json:"action"`
	Outcome      string         `json:"outcome"`
	Detail       map[string]any `json:"detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewSyncLogResponse converts sync log entries to their wire form
func NewSyncLogResponse(entries []marketplace.SyncLogEntry) []SyncLogEntryResponse {
	out := make([]SyncLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SyncLogEntryResponse{
			ID:           e.ID.String(),
			ListingID:    e.ListingID.String(),
			PlatformCode: e.PlatformCode.String(),
			Action:       string(e.Action),
			Outcome:      string(e.Outcome),
			Detail:       e.Detail,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
