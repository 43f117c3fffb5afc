package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PriceTypeSale = "sale"
	PriceTypeRent = "rent"
	PriceTypeFree = "free"
)

const (
	ListingStatusActive   = "active"
	ListingStatusSold     = "sold"
	ListingStatusExpired  = "expired"
	ListingStatusInactive = "inactive"
)

type Listing struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"seller_id"`
	Seller      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	PriceType   string    `gorm:"size:20;not null" json:"price_type"` // sale, rent, free
	Category    string    `gorm:"size:50;index;not null" json:"category"`
	Condition   string    `gorm:"size:20;not null" json:"condition"`
	Location    string    `gorm:"size:255;not null" json:"location"`
	Images      []string  `gorm:"serializer:json;type:jsonb" json:"images"`
	Status      string    `gorm:"size:20;index;default:active" json:"status"`
	Views       int       `gorm:"default:0" json:"views"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
