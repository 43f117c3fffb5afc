package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// Proposal references its listing and both parties; seller_id is denormalized
// from the listing at creation time so seller-side queries stay a single index
// lookup.
type Proposal struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID     uuid.UUID `gorm:"type:uuid;index;not null" json:"listing_id"`
	Listing       Listing   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BuyerID       uuid.UUID `gorm:"type:uuid;index;not null" json:"buyer_id"`
	Buyer         User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	SellerID      uuid.UUID `gorm:"type:uuid;index;not null" json:"seller_id"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	ProposedPrice float64   `gorm:"not null" json:"proposed_price"`
	Status        string    `gorm:"size:20;index;default:pending" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
