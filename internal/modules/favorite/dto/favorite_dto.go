package dto

import (
	"time"

	listingDto "campusshare.app/api/internal/modules/listing/dto"
	"github.com/google/uuid"
)

type FavoriteResponse struct {
	ID        uuid.UUID                   `json:"id"`
	ListingID uuid.UUID                   `json:"listing_id"`
	Listing   *listingDto.ListingResponse `json:"listing,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

type FavoriteStatusResponse struct {
	ListingID   uuid.UUID `json:"listing_id"`
	IsFavorited bool      `json:"is_favorited"`
}
