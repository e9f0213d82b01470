package marketplace

import (
	"context"

	"github.com/crosslist/backend/internal/domain/listing"
)

// MarketplaceAdapter defines the port for real operations against one
// marketplace's API. Implementations live in the infrastructure layer; the
// engine never assumes marketplace-side propagation beyond the call's
// return value.
type MarketplaceAdapter interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	// Publish creates the listing on the marketplace and returns the
	// marketplace-assigned remote listing id
	Publish(ctx context.Context, l *listing.Listing) (string, error)

	// UpdateStatus pushes a status change for an existing remote listing
	UpdateStatus(ctx context.Context, remoteID string, status ListingStatus) error

	// Delist removes or cancels the remote listing so it can no longer be
	// purchased
	Delist(ctx context.Context, remoteID string) error
}

// AdapterRegistry resolves the adapter for a platform code.
type AdapterRegistry interface {
	// Get returns the adapter for the code, or ErrUnknownPlatform
	Get(code PlatformCode) (MarketplaceAdapter, error)

	// List returns all registered adapters
	List() []MarketplaceAdapter
}
