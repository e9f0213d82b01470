package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements listing.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// Create persists a new listing
func (r *GormListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	var model models.ListingModel
	model.FromDomain(l)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a listing by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPublicID finds a listing by its external identifier
func (r *GormListingRepository) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*listing.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "public_id = ?", publicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrListingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the full listing state
func (r *GormListingRepository) Save(ctx context.Context, l *listing.Listing) error {
	var model models.ListingModel
	model.FromDomain(l)
	return r.db.WithContext(ctx).Save(&model).Error
}

// RecordSale applies the sale projection as one conditional update guarded
// on status = active. The guard makes this the linearization point for
// concurrent sale confirmations: exactly one caller's update applies, every
// later caller sees zero rows affected and gets ErrListingAlreadySold.
func (r *GormListingRepository) RecordSale(ctx context.Context, id uuid.UUID, units int, soldPrice decimal.Decimal, at time.Time) (*listing.Listing, error) {
	if units <= 0 {
		units = 1
	}

	// CASE instead of GREATEST so the statement runs on sqlite too
	result := r.db.WithContext(ctx).Model(&models.ListingModel{}).
		Where("id = ? AND status = ?", id, listing.StatusActive.String()).
		Updates(map[string]any{
			"quantity": gorm.Expr("CASE WHEN quantity - ? < 0 THEN 0 ELSE quantity - ? END", units, units),
			"status": gorm.Expr("CASE WHEN quantity - ? <= 0 THEN ? ELSE status END",
				units, listing.StatusSold.String()),
			"sold_price": gorm.Expr("CASE WHEN quantity - ? <= 0 THEN ? ELSE sold_price END",
				units, soldPrice),
			"sold_at": gorm.Expr("CASE WHEN quantity - ? <= 0 THEN ? ELSE sold_at END",
				units, at),
			"updated_at": at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// distinguish a lost race from a missing row
		var model models.ListingModel
		if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, listing.ErrListingNotFound
			}
			return nil, err
		}
		if model.Status == listing.StatusSold.String() || model.Status == listing.StatusArchived.String() {
			return nil, listing.ErrListingAlreadySold
		}
		return nil, listing.ErrNotSellable
	}

	return r.FindByID(ctx, id)
}

// FindArchivable returns sold listings whose sold date is at or before the
// cutoff
func (r *GormListingRepository) FindArchivable(ctx context.Context, cutoff time.Time, limit int) ([]listing.Listing, error) {
	var rows []models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND sold_at IS NOT NULL AND sold_at <= ?", listing.StatusSold.String(), cutoff).
		Order("sold_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]listing.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// MarkArchived transitions a sold listing to archived. The status guard makes
// re-running the sweep a no-op.
func (r *GormListingRepository) MarkArchived(ctx context.Context, id uuid.UUID, archivedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ListingModel{}).
		Where("id = ? AND status = ?", id, listing.StatusSold.String()).
		Updates(map[string]any{
			"status":     listing.StatusArchived.String(),
			"updated_at": archivedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindAll returns listings matching the filter
func (r *GormListingRepository) FindAll(ctx context.Context, filter listing.ListingFilter) ([]listing.Listing, error) {
	var rows []models.ListingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]listing.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Count counts listings matching the filter
func (r *GormListingRepository) Count(ctx context.Context, filter listing.ListingFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormListingRepository) applyFilter(query *gorm.DB, filter listing.ListingFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Search != "" {
		query = query.Where("title LIKE ?", "%"+filter.Search+"%")
	}
	return query
}
