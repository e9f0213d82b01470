package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/domain/marketplace"
)

// PlatformListingModel is the persistence model for one listing's presence
// on one marketplace. Identity is the (listing_id, platform_code) pair.
type PlatformListingModel struct {
	ListingID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PlatformCode        string     `gorm:"type:varchar(20);primaryKey;index:idx_platform_listings_remote,priority:1"`
	RemoteID            string     `gorm:"type:varchar(120);index:idx_platform_listings_remote,priority:2"`
	Status              string     `gorm:"type:varchar(20);not null;index"`
	CancelScheduledAt   *time.Time `gorm:"index"`
	CancelAttempts      int        `gorm:"not null;default:0"`
	LastCancelError     string     `gorm:"type:text"`
	LastCancelFailureAt *time.Time
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (PlatformListingModel) TableName() string {
	return "platform_listings"
}

// ToDomain converts the model to a domain PlatformListing
func (m *PlatformListingModel) ToDomain() *marketplace.PlatformListing {
	return &marketplace.PlatformListing{
		ListingID:           m.ListingID,
		PlatformCode:        marketplace.PlatformCode(m.PlatformCode),
		RemoteID:            m.RemoteID,
		Status:              marketplace.ListingStatus(m.Status),
		CancelScheduledAt:   m.CancelScheduledAt,
		CancelAttempts:      m.CancelAttempts,
		LastCancelError:     m.LastCancelError,
		LastCancelFailureAt: m.LastCancelFailureAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain PlatformListing
func (m *PlatformListingModel) FromDomain(pl *marketplace.PlatformListing) {
	m.ListingID = pl.ListingID
	m.PlatformCode = pl.PlatformCode.String()
	m.RemoteID = pl.RemoteID
	m.Status = pl.Status.String()
	m.CancelScheduledAt = pl.CancelScheduledAt
	m.CancelAttempts = pl.CancelAttempts
	m.LastCancelError = pl.LastCancelError
	m.LastCancelFailureAt = pl.LastCancelFailureAt
	m.CreatedAt = pl.CreatedAt
	m.UpdatedAt = pl.UpdatedAt
}

// SyncLogModel is the persistence model for append-only sync log entries.
type SyncLogModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ListingID    uuid.UUID `gorm:"type:uuid;not null;index"`
	PlatformCode string    `gorm:"type:varchar(20)"`
	Action       string    `gorm:"type:varchar(20);not null"`
	Outcome      string    `gorm:"type:varchar(10);not null"`
	Detail       string    `gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName specifies the table name
func (SyncLogModel) TableName() string {
	return "sync_log"
}

// ToDomain converts the model to a domain SyncLogEntry
func (m *SyncLogModel) ToDomain() (*marketplace.SyncLogEntry, error) {
	var detail map[string]any
	if m.Detail != "" {
		if err := json.Unmarshal([]byte(m.Detail), &detail); err != nil {
			return nil, err
		}
	}
	return &marketplace.SyncLogEntry{
		ID:           m.ID,
		ListingID:    m.ListingID,
		PlatformCode: marketplace.PlatformCode(m.PlatformCode),
		Action:       marketplace.SyncAction(m.Action),
		Outcome:      marketplace.SyncOutcome(m.Outcome),
		Detail:       detail,
		CreatedAt:    m.CreatedAt,
	}, nil
}

// FromDomain populates the model from a domain SyncLogEntry
func (m *SyncLogModel) FromDomain(e *marketplace.SyncLogEntry) error {
	detail := []byte("{}")
	if e.Detail != nil {
		b, err := json.Marshal(e.Detail)
		if err != nil {
			return err
		}
		detail = b
	}
	m.ID = e.ID
	m.ListingID = e.ListingID
	m.PlatformCode = e.PlatformCode.String()
	m.Action = string(e.Action)
	m.Outcome = string(e.Outcome)
	m.Detail = string(detail)
	m.CreatedAt = e.CreatedAt
	return nil
}
