package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

// nonTerminalStatuses are the statuses the sweep may still act on.
var nonTerminalStatuses = []string{
	marketplace.ListingStatusPending.String(),
	marketplace.ListingStatusActive.String(),
}

// GormPlatformListingRepository implements
// marketplace.PlatformListingRepository using GORM. Every transition is a
// single conditional UPDATE guarded on the current status; concurrency
// control is the RowsAffected check, never an application lock.
type GormPlatformListingRepository struct {
	db *gorm.DB
}

// NewGormPlatformListingRepository creates a new GormPlatformListingRepository
func NewGormPlatformListingRepository(db *gorm.DB) *GormPlatformListingRepository {
	return &GormPlatformListingRepository{db: db}
}

// Create persists a new platform listing
func (r *GormPlatformListingRepository) Create(ctx context.Context, pl *marketplace.PlatformListing) error {
	var model models.PlatformListingModel
	model.FromDomain(pl)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return marketplace.ErrPlatformListingExists
		}
		return err
	}
	return nil
}

// Find returns one platform listing by its composite identity
func (r *GormPlatformListingRepository) Find(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode) (*marketplace.PlatformListing, error) {
	var model models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		First(&model, "listing_id = ? AND platform_code = ?", listingID, code.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrPlatformListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByListing returns all platform listings of one listing in stable
// platform order
func (r *GormPlatformListingRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]marketplace.PlatformListing, error) {
	var rows []models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("platform_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]marketplace.PlatformListing, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// FindByRemoteID resolves a platform listing from the marketplace's own id
func (r *GormPlatformListingRepository) FindByRemoteID(ctx context.Context, code marketplace.PlatformCode, remoteID string) (*marketplace.PlatformListing, error) {
	var model models.PlatformListingModel
	if err := r.db.WithContext(ctx).
		First(&model, "platform_code = ? AND remote_id = ?", code.String(), remoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrPlatformListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Publish records the remote id and activates the row, guarded on the row
// still being pending
func (r *GormPlatformListingRepository) Publish(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, remoteID string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ? AND status = ?",
			listingID, code.String(), marketplace.ListingStatusPending.String()).
		Updates(map[string]any{
			"remote_id":  remoteID,
			"status":     marketplace.ListingStatusActive.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardFailure(ctx, listingID, code, marketplace.ListingStatusActive)
	}
	return nil
}

// MarkSold atomically transitions active -> sold. The guard keeps at most
// one sold row per listing under concurrent confirmations.
func (r *GormPlatformListingRepository) MarkSold(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ? AND status = ?",
			listingID, code.String(), marketplace.ListingStatusActive.String()).
		Updates(map[string]any{
			"status":              marketplace.ListingStatusSold.String(),
			"cancel_scheduled_at": nil,
			"updated_at":          now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardFailure(ctx, listingID, code, marketplace.ListingStatusSold)
	}
	return nil
}

// ScheduleCancel sets the scheduled-cancellation timestamp on a non-terminal
// row. Scheduling an already-terminal row is a silent no-op, so scheduling
// siblings never races with their own sale.
func (r *GormPlatformListingRepository) ScheduleCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cancelAt time.Time, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ? AND status IN ?",
			listingID, code.String(), nonTerminalStatuses).
		Updates(map[string]any{
			"cancel_scheduled_at": cancelAt,
			"updated_at":          now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindCancelDue returns rows whose scheduled cancellation has elapsed,
// skipping rows whose last failure is younger than cooldown
func (r *GormPlatformListingRepository) FindCancelDue(ctx context.Context, now time.Time, cooldown time.Duration, limit int) ([]marketplace.PlatformListing, error) {
	query := r.db.WithContext(ctx).
		Where("cancel_scheduled_at IS NOT NULL AND cancel_scheduled_at <= ?", now).
		Where("status IN ?", nonTerminalStatuses)

	if cooldown > 0 {
		query = query.Where("last_cancel_failure_at IS NULL OR last_cancel_failure_at <= ?", now.Add(-cooldown))
	}

	var rows []models.PlatformListingModel
	if err := query.Order("cancel_scheduled_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]marketplace.PlatformListing, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// CompleteCancel transitions a scheduled row to the target terminal status
// and clears the schedule. Re-processing an already-retired row reports
// false and changes nothing.
func (r *GormPlatformListingRepository) CompleteCancel(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, target marketplace.ListingStatus, now time.Time) (bool, error) {
	if target != marketplace.ListingStatusCanceled && target != marketplace.ListingStatusDelisted {
		return false, marketplace.ErrInvalidTransition
	}

	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ? AND status IN ?",
			listingID, code.String(), nonTerminalStatuses).
		Updates(map[string]any{
			"status":              target.String(),
			"cancel_scheduled_at": nil,
			"updated_at":          now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecordCancelFailure increments the attempt counter and stamps the failure
// detail, leaving the schedule intact for the next sweep
func (r *GormPlatformListingRepository) RecordCancelFailure(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ?", listingID, code.String()).
		Updates(map[string]any{
			"cancel_attempts":        gorm.Expr("cancel_attempts + 1"),
			"last_cancel_error":      cause,
			"last_cancel_failure_at": now,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return marketplace.ErrPlatformListingNotFound
	}
	return nil
}

// MarkFailed parks a row as failed after retries are exhausted and clears
// the schedule so the sweep stops selecting it
func (r *GormPlatformListingRepository) MarkFailed(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, cause string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ? AND status IN ?",
			listingID, code.String(), nonTerminalStatuses).
		Updates(map[string]any{
			"status":              marketplace.ListingStatusFailed.String(),
			"cancel_scheduled_at": nil,
			"last_cancel_error":   cause,
			"updated_at":          now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardFailure(ctx, listingID, code, marketplace.ListingStatusFailed)
	}
	return nil
}

// UpdateStatus applies a manual status override with no guard beyond the row
// existing
func (r *GormPlatformListingRepository) UpdateStatus(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, status marketplace.ListingStatus, now time.Time) error {
	if !status.IsValid() {
		return marketplace.ErrInvalidPlatformStatus
	}
	result := r.db.WithContext(ctx).Model(&models.PlatformListingModel{}).
		Where("listing_id = ? AND platform_code = ?", listingID, code.String()).
		Updates(map[string]any{
			"status":     status.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return marketplace.ErrPlatformListingNotFound
	}
	return nil
}

// classifyGuardFailure turns a zero-rows-affected guard failure into the
// right domain error by re-reading the row.
func (r *GormPlatformListingRepository) classifyGuardFailure(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, target marketplace.ListingStatus) error {
	current, err := r.Find(ctx, listingID, code)
	if err != nil {
		return err
	}
	if target == marketplace.ListingStatusSold && current.Status == marketplace.ListingStatusSold {
		return marketplace.ErrAlreadySold
	}
	return marketplace.ErrInvalidTransition
}
