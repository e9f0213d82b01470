package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

// CreateListingInput carries the fields for a new listing.
type CreateListingInput struct {
	Title           string
	Price           decimal.Decimal
	Cost            *decimal.Decimal
	Quantity        int
	StorageLocation string
}

// ListingService covers listing CRUD and cross-posting: creating the
// canonical listing and publishing it to marketplaces.
type ListingService struct {
	listings       listing.ListingRepository
	platforms      marketplace.PlatformListingRepository
	adapters       marketplace.AdapterRegistry
	syncLog        marketplace.SyncLogRepository
	clock          shared.Clock
	logger         *zap.Logger
	adapterTimeout time.Duration
}

// NewListingService creates a new ListingService.
func NewListingService(
	listings listing.ListingRepository,
	platforms marketplace.PlatformListingRepository,
	adapters marketplace.AdapterRegistry,
	syncLog marketplace.SyncLogRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listings:       listings,
		platforms:      platforms,
		adapters:       adapters,
		syncLog:        syncLog,
		clock:          clock,
		logger:         logger,
		adapterTimeout: DefaultAdapterTimeout,
	}
}

// CreateListing validates and persists a new draft listing.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*listing.Listing, error) {
	l, err := listing.NewListing(in.Title, in.Price, in.Quantity, s.clock.Now())
	if err != nil {
		return nil, err
	}
	l.Cost = in.Cost
	l.StorageLocation = in.StorageLocation
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("Listing created",
		zap.String("listing_id", l.ID.String()),
		zap.String("title", l.Title),
	)
	return l, nil
}

// GetListing returns one listing by id.
func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	return s.listings.FindByID(ctx, id)
}

// ListListings returns listings matching the filter plus the total count.
func (s *ListingService) ListListings(ctx context.Context, filter listing.ListingFilter) ([]listing.Listing, int64, error) {
	items, err := s.listings.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.listings.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetPlatformListings returns the listing's per-platform rows.
func (s *ListingService) GetPlatformListings(ctx context.Context, listingID uuid.UUID) ([]marketplace.PlatformListing, error) {
	return s.platforms.FindByListing(ctx, listingID)
}

// GetSyncLog returns the listing's sync log, newest first.
func (s *ListingService) GetSyncLog(ctx context.Context, listingID uuid.UUID, limit int) ([]marketplace.SyncLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.syncLog.FindByListing(ctx, listingID, limit)
}

// PublishToPlatform cross-posts the listing to one marketplace: it creates
// the pending platform row, calls the marketplace, and records the returned
// remote id. A listing that never activated locally cannot be published.
func (s *ListingService) PublishToPlatform(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode) (*marketplace.PlatformListing, error) {
	if !code.IsValid() {
		return nil, marketplace.ErrInvalidPlatformCode
	}

	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	if l.Status == listing.StatusDraft {
		if err := l.Activate(now); err != nil {
			return nil, err
		}
		if err := s.listings.Save(ctx, l); err != nil {
			return nil, err
		}
	}
	if l.Status != listing.StatusActive {
		return nil, listing.ErrNotSellable
	}

	pl, err := marketplace.NewPlatformListing(listingID, code, now)
	if err != nil {
		return nil, err
	}
	if err := s.platforms.Create(ctx, pl); err != nil {
		return nil, err
	}

	adapter, err := s.adapters.Get(code)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
	remoteID, err := adapter.Publish(callCtx, l)
	cancel()
	if err != nil {
		// the pending row stays; operators can retry the publish
		s.logger.Warn("Marketplace publish failed",
			zap.String("listing_id", listingID.String()),
			zap.String("platform_code", code.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.platforms.Publish(ctx, listingID, code, remoteID, now); err != nil {
		return nil, err
	}
	pl.Status = marketplace.ListingStatusActive
	pl.RemoteID = remoteID

	s.logger.Info("Listing published",
		zap.String("listing_id", listingID.String()),
		zap.String("platform_code", code.String()),
		zap.String("remote_id", remoteID),
	)
	return pl, nil
}
