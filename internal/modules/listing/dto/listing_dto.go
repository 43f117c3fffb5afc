package dto

import (
	"time"

	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
)

type CreateListingRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"required,min=1,max=1000"`
	Price       float64  `json:"price" binding:"gte=0"`
	PriceType   string   `json:"price_type" binding:"required,oneof=sale rent free"`
	Category    string   `json:"category" binding:"required,oneof=textbook laptop cloud-credits equipment other"`
	Condition   string   `json:"condition" binding:"required,oneof=new like-new good fair poor"`
	Location    string   `json:"location" binding:"required,max=255"`
	Images      []string `json:"images" binding:"omitempty,dive,url"`
}

type UpdateListingRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string   `json:"description" binding:"omitempty,min=1,max=1000"`
	Price       *float64  `json:"price" binding:"omitempty,gte=0"`
	PriceType   *string   `json:"price_type" binding:"omitempty,oneof=sale rent free"`
	Category    *string   `json:"category" binding:"omitempty,oneof=textbook laptop cloud-credits equipment other"`
	Condition   *string   `json:"condition" binding:"omitempty,oneof=new like-new good fair poor"`
	Location    *string   `json:"location" binding:"omitempty,max=255"`
	Images      *[]string `json:"images" binding:"omitempty,dive,url"`
	Status      *string   `json:"status" binding:"omitempty,oneof=active sold expired inactive"`
}

type ListingFilter struct {
	Category  string `form:"category" binding:"omitempty,oneof=textbook laptop cloud-credits equipment other"`
	PriceType string `form:"price_type" binding:"omitempty,oneof=sale rent free"`
	Condition string `form:"condition" binding:"omitempty,oneof=new like-new good fair poor"`
	Status    string `form:"status" binding:"omitempty,oneof=active sold expired inactive"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type ListingResponse struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       float64                `json:"price"`
	PriceType   string                 `json:"price_type"`
	Category    string                 `json:"category"`
	Condition   string                 `json:"condition"`
	Location    string                 `json:"location"`
	Images      []string               `json:"images"`
	Status      string                 `json:"status"`
	Views       int                    `json:"views"`
	SellerID    uuid.UUID              `json:"seller_id"`
	Seller      *commonDto.UserSummary `json:"seller,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type PaginatedListingResponse struct {
	Data []ListingResponse        `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
