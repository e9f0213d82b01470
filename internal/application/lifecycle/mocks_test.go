package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
)

// MockListingRepository is a mock implementation of listing.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*listing.Listing, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, l *listing.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) RecordSale(ctx context.Context, id uuid.UUID, units int, soldPrice decimal.Decimal, at time.Time) (*listing.Listing, error) {
	args := m.Called(ctx, id, units, soldPrice, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockListingRepository) FindArchivable(ctx context.Context, cutoff time.Time, limit int) ([]listing.Listing, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) MarkArchived(ctx context.Context, id uuid.UUID, archivedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, archivedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, filter listing.ListingFilter) ([]listing.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Listing), args.Error(1)
}

func (m *MockListingRepository) Count(ctx context.Context, filter listing.ListingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlatformListingRepository is a mock implementation of
// marketplace.PlatformListingRepository
type MockPlatformListingRepository struct {
	mock.Mock
}

func (m *MockPlatformListingRepository) Create(ctx context.Context, pl *marketplace.PlatformListing) error {
	args := m.Called(ctx, pl)
	return args.Error(0)
}

func (m *MockPlatformListingRepository) Find(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode) (*marketplace.PlatformListing, error) {
	args := m.Called(ctx, listingID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.PlatformListing), args.Error(1)
}

func (m *MockPlatformListingRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]marketplace.PlatformListing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.PlatformListing), args.Error(1)
}

func (m *MockPlatformListingRepository) FindByRemoteID(ctx context.Context, code marketplace.PlatformCode, remoteID string) (*marketplace.PlatformListing, error) {
	args := m.Called(ctx, code, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.PlatformListing), args.Error(1)
}

func (m *MockPlatformListingRepository) Publish(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, remoteID string, now time.Time) error {
	args := m.Called(ctx, listingID, code, remoteID, now)
	return args.Error(0)
}

func (m *MockPlatformListingRepository) MarkSold(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, now time.Time) error {
	args := m.Called(ctx, listingID, code, now)
	return args.Error(0)
}

func (m *MockPlatformListingRepository) ScheduleCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cancelAt time.Time, now time.Time) (bool, error) {
	args := m.Called(ctx, listingID, code, cancelAt, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatformListingRepository) FindCancelDue(ctx context.Context, now time.Time, cooldown time.Duration, limit int) ([]marketplace.PlatformListing, error) {
	args := m.Called(ctx, now, cooldown, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.PlatformListing), args.Error(1)
}

func (m *MockPlatformListingRepository) CompleteCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, target marketplace.ListingStatus, now time.Time) (bool, error) {
	args := m.Called(ctx, listingID, code, target, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatformListingRepository) RecordCancelFailure(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	args := m.Called(ctx, listingID, code, cause, now)
	return args.Error(0)
}

func (m *MockPlatformListingRepository) MarkFailed(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	args := m.Called(ctx, listingID, code, cause, now)
	return args.Error(0)
}

func (m *MockPlatformListingRepository) UpdateStatus(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, status marketplace.ListingStatus, now time.Time) error {
	args := m.Called(ctx, listingID, code, status, now)
	return args.Error(0)
}

// MockAdapter is a mock implementation of marketplace.MarketplaceAdapter
type MockAdapter struct {
	mock.Mock
	code marketplace.PlatformCode
}

func NewMockAdapter(code marketplace.PlatformCode) *MockAdapter {
	return &MockAdapter{code: code}
}

func (m *MockAdapter) PlatformCode() marketplace.PlatformCode {
	return m.code
}

func (m *MockAdapter) Publish(ctx context.Context, l *listing.Listing) (string, error) {
	args := m.Called(ctx, l)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) UpdateStatus(ctx context.Context, remoteID string, status marketplace.ListingStatus) error {
	args := m.Called(ctx, remoteID, status)
	return args.Error(0)
}

func (m *MockAdapter) Delist(ctx context.Context, remoteID string) error {
	args := m.Called(ctx, remoteID)
	return args.Error(0)
}

// MockAdapterRegistry is a mock implementation of marketplace.AdapterRegistry
type MockAdapterRegistry struct {
	adapters map[marketplace.PlatformCode]marketplace.MarketplaceAdapter
}

func NewMockAdapterRegistry(adapters ...marketplace.MarketplaceAdapter) *MockAdapterRegistry {
	r := &MockAdapterRegistry{adapters: make(map[marketplace.PlatformCode]marketplace.MarketplaceAdapter)}
	for _, a := range adapters {
		r.adapters[a.PlatformCode()] = a
	}
	return r
}

func (r *MockAdapterRegistry) Get(code marketplace.PlatformCode) (marketplace.MarketplaceAdapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, marketplace.ErrUnknownPlatform
	}
	return a, nil
}

func (r *MockAdapterRegistry) List() []marketplace.MarketplaceAdapter {
	out := make([]marketplace.MarketplaceAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}

// MockSyncLogRepository is a mock implementation of
// marketplace.SyncLogRepository that records appended entries.
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Append(ctx context.Context, entry *marketplace.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) FindByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]marketplace.SyncLogEntry, error) {
	args := m.Called(ctx, listingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.SyncLogEntry), args.Error(1)
}

// MockNotifier is a mock implementation of marketplace.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n marketplace.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
