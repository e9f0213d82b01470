package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/domain/listing"
)

// ListingModel is the persistence model for the canonical listing.
type ListingModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key"`
	PublicID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	Title           string           `gorm:"type:varchar(255);not null"`
	Price           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Cost            *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Quantity        int              `gorm:"not null;default:0"`
	Status          string           `gorm:"type:varchar(20);not null;index"`
	SoldPrice       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SoldAt          *time.Time       `gorm:"index"`
	StorageLocation string           `gorm:"type:varchar(120)"`
	CreatedAt       time.Time        `gorm:"not null"`
	UpdatedAt       time.Time        `gorm:"not null"`
}

// TableName specifies the table name
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the model to a domain Listing
func (m *ListingModel) ToDomain() *listing.Listing {
	return &listing.Listing{
		ID:              m.ID,
		PublicID:        m.PublicID,
		Title:           m.Title,
		Price:           m.Price,
		Cost:            m.Cost,
		Quantity:        m.Quantity,
		Status:          listing.Status(m.Status),
		SoldPrice:       m.SoldPrice,
		SoldAt:          m.SoldAt,
		StorageLocation: m.StorageLocation,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain Listing
func (m *ListingModel) FromDomain(l *listing.Listing) {
	m.ID = l.ID
	m.PublicID = l.PublicID
	m.Title = l.Title
	m.Price = l.Price
	m.Cost = l.Cost
	m.Quantity = l.Quantity
	m.Status = l.Status.String()
	m.SoldPrice = l.SoldPrice
	m.SoldAt = l.SoldAt
	m.StorageLocation = l.StorageLocation
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}
