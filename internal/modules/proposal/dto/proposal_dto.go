package dto

import (
	"time"

	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
)

type CreateProposalRequest struct {
	ListingID     uuid.UUID `json:"listing_id" binding:"required"`
	Message       string    `json:"message" binding:"required,min=10,max=500"`
	ProposedPrice *float64  `json:"proposed_price" binding:"omitempty,gte=0"`
}

type UpdateProposalStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected withdrawn"`
}

type ProposalListingSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	PriceType string    `json:"price_type"`
	Status    string    `json:"status"`
	Images    []string  `json:"images"`
}

type ProposalResponse struct {
	ID            uuid.UUID               `json:"id"`
	ListingID     uuid.UUID               `json:"listing_id"`
	Listing       *ProposalListingSummary `json:"listing,omitempty"`
	BuyerID       uuid.UUID               `json:"buyer_id"`
	Buyer         *commonDto.UserSummary  `json:"buyer,omitempty"`
	SellerID      uuid.UUID               `json:"seller_id"`
	Message       string                  `json:"message"`
	ProposedPrice float64                 `json:"proposed_price"`
	Status        string                  `json:"status"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type PaginatedProposalResponse struct {
	Data []ProposalResponse       `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
