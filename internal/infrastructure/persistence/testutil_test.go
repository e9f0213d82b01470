package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens an in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ListingModel{},
		&models.PlatformListingModel{},
		&models.SyncLogModel{},
	))
	return db
}

func newActiveListing(t *testing.T, db *gorm.DB, quantity int) *listing.Listing {
	t.Helper()
	l, err := listing.NewListing("Vintage Denim Jacket", decimal.NewFromFloat(45.50), quantity, testTime)
	require.NoError(t, err)
	l.StorageLocation = "Bin A3"
	require.NoError(t, l.Activate(testTime))
	require.NoError(t, NewGormListingRepository(db).Create(context.Background(), l))
	return l
}

func newPlatformRow(t *testing.T, db *gorm.DB, listingID uuid.UUID, code marketplace.PlatformCode, status marketplace.ListingStatus, remoteID string) *marketplace.PlatformListing {
	t.Helper()
	pl, err := marketplace.NewPlatformListing(listingID, code, testTime)
	require.NoError(t, err)
	pl.Status = status
	pl.RemoteID = remoteID
	require.NoError(t, NewGormPlatformListingRepository(db).Create(context.Background(), pl))
	return pl
}
