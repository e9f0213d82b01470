package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements marketplace.SyncLogRepository using GORM.
// The table is append-only; there are no update or delete paths.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append inserts the entry
func (r *GormSyncLogRepository) Append(ctx context.Context, entry *marketplace.SyncLogEntry) error {
	var model models.SyncLogModel
	if err := model.FromDomain(entry); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByListing returns entries for a listing, newest first
func (r *GormSyncLogRepository) FindByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]marketplace.SyncLogEntry, error) {
	var rows []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]marketplace.SyncLogEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, nil
}
