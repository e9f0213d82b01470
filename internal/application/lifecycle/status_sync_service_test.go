package lifecycle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

func newStatusSyncService(
	platforms *MockPlatformListingRepository,
	registry marketplace.AdapterRegistry,
	syncLog *MockSyncLogRepository,
) *StatusSyncService {
	return NewStatusSyncService(platforms, registry, syncLog,
		shared.NewFixedClock(testTime), zap.NewNop())
}

func TestStatusSyncService_SyncStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Fan-out updates every non-excluded platform", func(t *testing.T) {
		listingID := uuid.New()
		platforms := new(MockPlatformListingRepository)
		syncLog := new(MockSyncLogRepository)
		poshmark := NewMockAdapter(marketplace.PlatformCodePoshmark)
		mercari := NewMockAdapter(marketplace.PlatformCodeMercari)

		platforms.On("FindByListing", ctx, listingID).Return([]marketplace.PlatformListing{
			platformRow(listingID, marketplace.PlatformCodeEbay, marketplace.ListingStatusSold, "e1"),
			platformRow(listingID, marketplace.PlatformCodePoshmark, marketplace.ListingStatusActive, "p1"),
			platformRow(listingID, marketplace.PlatformCodeMercari, marketplace.ListingStatusActive, "m1"),
		}, nil)
		platforms.On("UpdateStatus", ctx, listingID, marketplace.PlatformCodePoshmark, marketplace.ListingStatusDelisted, testTime).Return(nil)
		platforms.On("UpdateStatus", ctx, listingID, marketplace.PlatformCodeMercari, marketplace.ListingStatusDelisted, testTime).Return(nil)
		poshmark.On("UpdateStatus", mock.Anything, "p1", marketplace.ListingStatusDelisted).Return(nil)
		mercari.On("UpdateStatus", mock.Anything, "m1", marketplace.ListingStatusDelisted).Return(nil)
		syncLog.On("Append", ctx, mock.MatchedBy(func(e *marketplace.SyncLogEntry) bool {
			return e.Action == marketplace.SyncActionStatusSync
		})).Return(nil)

		svc := newStatusSyncService(platforms, NewMockAdapterRegistry(poshmark, mercari), syncLog)
		result, err := svc.SyncStatus(ctx, listingID, marketplace.ListingStatusDelisted,
			[]marketplace.PlatformCode{marketplace.PlatformCodeEbay})

		require.NoError(t, err)
		assert.True(t, result.Succeeded())
		assert.Len(t, result.Outcomes, 2)
		assert.Equal(t, []marketplace.PlatformCode{marketplace.PlatformCodeEbay}, result.Skipped)
		// excluded platform must not be touched
		platforms.AssertNotCalled(t, "UpdateStatus", ctx, listingID, marketplace.PlatformCodeEbay, mock.Anything, mock.Anything)
	})

	t.Run("Partial failure is reported, not returned", func(t *testing.T) {
		listingID := uuid.New()
		platforms := new(MockPlatformListingRepository)
		syncLog := new(MockSyncLogRepository)
		poshmark := NewMockAdapter(marketplace.PlatformCodePoshmark)
		mercari := NewMockAdapter(marketplace.PlatformCodeMercari)

		platforms.On("FindByListing", ctx, listingID).Return([]marketplace.PlatformListing{
			platformRow(listingID, marketplace.PlatformCodePoshmark, marketplace.ListingStatusActive, "p1"),
			platformRow(listingID, marketplace.PlatformCodeMercari, marketplace.ListingStatusActive, "m1"),
		}, nil)
		platforms.On("UpdateStatus", ctx, listingID, mock.Anything, marketplace.ListingStatusActive, testTime).Return(nil)
		poshmark.On("UpdateStatus", mock.Anything, "p1", marketplace.ListingStatusActive).Return(assert.AnError)
		mercari.On("UpdateStatus", mock.Anything, "m1", marketplace.ListingStatusActive).Return(nil)
		syncLog.On("Append", ctx, mock.Anything).Return(nil)

		svc := newStatusSyncService(platforms, NewMockAdapterRegistry(poshmark, mercari), syncLog)
		result, err := svc.SyncStatus(ctx, listingID, marketplace.ListingStatusActive, nil)

		require.NoError(t, err)
		assert.False(t, result.Succeeded())
		require.Len(t, result.Outcomes, 2)
		assert.False(t, result.Outcomes[0].Success)
		assert.NotEmpty(t, result.Outcomes[0].Error)
		assert.True(t, result.Outcomes[1].Success)
	})

	t.Run("Row without remote id syncs locally only", func(t *testing.T) {
		listingID := uuid.New()
		platforms := new(MockPlatformListingRepository)
		syncLog := new(MockSyncLogRepository)

		platforms.On("FindByListing", ctx, listingID).Return([]marketplace.PlatformListing{
			platformRow(listingID, marketplace.PlatformCodeFacebook, marketplace.ListingStatusPending, ""),
		}, nil)
		platforms.On("UpdateStatus", ctx, listingID, marketplace.PlatformCodeFacebook, marketplace.ListingStatusCanceled, testTime).Return(nil)
		syncLog.On("Append", ctx, mock.Anything).Return(nil)

		svc := newStatusSyncService(platforms, NewMockAdapterRegistry(), syncLog)
		result, err := svc.SyncStatus(ctx, listingID, marketplace.ListingStatusCanceled, nil)

		require.NoError(t, err)
		assert.True(t, result.Succeeded())
	})

	t.Run("Unknown listing", func(t *testing.T) {
		listingID := uuid.New()
		platforms := new(MockPlatformListingRepository)
		platforms.On("FindByListing", ctx, listingID).Return([]marketplace.PlatformListing{}, nil)

		svc := newStatusSyncService(platforms, NewMockAdapterRegistry(), new(MockSyncLogRepository))
		_, err := svc.SyncStatus(ctx, listingID, marketplace.ListingStatusActive, nil)
		assert.ErrorIs(t, err, marketplace.ErrPlatformListingNotFound)
	})

	t.Run("Invalid target status", func(t *testing.T) {
		svc := newStatusSyncService(new(MockPlatformListingRepository), NewMockAdapterRegistry(), new(MockSyncLogRepository))
		_, err := svc.SyncStatus(ctx, uuid.New(), marketplace.ListingStatus("bogus"), nil)
		assert.ErrorIs(t, err, marketplace.ErrInvalidPlatformStatus)
	})
}
