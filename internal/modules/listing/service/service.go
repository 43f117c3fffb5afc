package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campusshare.app/api/internal/entity"
	favoriteRepo "campusshare.app/api/internal/modules/favorite/repository"
	listingDto "campusshare.app/api/internal/modules/listing/dto"
	repo "campusshare.app/api/internal/modules/listing/repository"
	search "campusshare.app/api/internal/modules/search/service"
	view "campusshare.app/api/internal/modules/view/service"
	"campusshare.app/api/pkg/apperror"
	commonDto "campusshare.app/api/pkg/dto"
	"campusshare.app/api/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, req listingDto.CreateListingRequest) (*listingDto.ListingResponse, error)
	GetAll(ctx context.Context, filter listingDto.ListingFilter) (*listingDto.PaginatedListingResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*listingDto.ListingResponse, error)
	GetMine(ctx context.Context, sellerID uuid.UUID, page, limit int) (*listingDto.PaginatedListingResponse, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req listingDto.UpdateListingRequest) (*listingDto.ListingResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	GetTrending(ctx context.Context, limit int) ([]listingDto.ListingResponse, error)
	IncrementView(ctx context.Context, listingID, viewerID uuid.UUID) error
}

type service struct {
	listingRepo    repo.Repository
	favoriteRepo   favoriteRepo.FavoriteRepository
	searchService  search.SearchService
	viewService    view.ViewService
	redisClient    *redis.Client
	createCooldown time.Duration
}

func NewService(listingRepo repo.Repository, favoriteRepo favoriteRepo.FavoriteRepository, searchService search.SearchService, viewService view.ViewService, redisClient *redis.Client, createCooldown time.Duration) Service {
	return &service{
		listingRepo:    listingRepo,
		favoriteRepo:   favoriteRepo,
		searchService:  searchService,
		viewService:    viewService,
		redisClient:    redisClient,
		createCooldown: createCooldown,
	}
}

// checkFreePrice enforces that free listings carry a zero price.
func checkFreePrice(priceType string, price float64) error {
	if priceType == entity.PriceTypeFree && price != 0 {
		return fmt.Errorf("price must be 0 for free listings: %w", apperror.ErrInvalidOperation)
	}
	return nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, req listingDto.CreateListingRequest) (*listingDto.ListingResponse, error) {
	if err := checkFreePrice(req.PriceType, req.Price); err != nil {
		return nil, err
	}

	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, sellerID, "create_listing", s.createCooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		retry := ratelimit.RetryIn(ctx, s.redisClient, sellerID, "create_listing", s.createCooldown)
		return nil, fmt.Errorf("you are creating listings too quickly, retry in %s: %w", retry.Round(time.Second), apperror.ErrRateLimitExceeded)
	}

	creationFailed := true
	defer func() {
		if creationFailed {
			if err := ratelimit.Clear(ctx, s.redisClient, sellerID, "create_listing"); err != nil {
				log.Printf("failed to clear rate limit: %v", err)
			}
		}
	}()

	listing := &entity.Listing{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		PriceType:   req.PriceType,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Images:      req.Images,
		Status:      entity.ListingStatusActive,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	creationFailed = false

	if s.searchService != nil {
		if err := s.searchService.IndexListing(listing); err != nil {
			log.Printf("failed to index listing %s: %v", listing.ID, err)
		}
	}

	created, err := s.listingRepo.FindByID(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	resp := buildListingResponse(created)
	return &resp, nil
}

func (s *service) GetAll(ctx context.Context, filter listingDto.ListingFilter) (*listingDto.PaginatedListingResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 12
	}
	if filter.Status == "" {
		filter.Status = entity.ListingStatusActive
	}

	offset := (filter.Page - 1) * filter.Limit

	var (
		listings []*entity.Listing
		total    int64
		err      error
	)

	if filter.Search != "" && s.searchService != nil {
		listings, total, err = s.searchListings(ctx, filter, offset)
	} else {
		listings, total, err = s.listingRepo.FindAll(ctx, repo.Query{
			Category:  filter.Category,
			PriceType: filter.PriceType,
			Condition: filter.Condition,
			Status:    filter.Status,
			Search:    filter.Search,
		}, offset, filter.Limit)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]listingDto.ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, buildListingResponse(l))
	}

	return &listingDto.PaginatedListingResponse{
		Data: responses,
		Meta: commonDto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *service) searchListings(ctx context.Context, filter listingDto.ListingFilter, offset int) ([]*entity.Listing, int64, error) {
	filters := map[string]string{}
	if filter.Category != "" {
		filters["category"] = filter.Category
	}
	if filter.PriceType != "" {
		filters["price_type"] = filter.PriceType
	}
	if filter.Condition != "" {
		filters["condition"] = filter.Condition
	}
	if filter.Status != "" {
		filters["status"] = filter.Status
	}

	ids, total, err := s.searchService.SearchListings(filter.Search, filters, offset, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	listings, err := s.listingRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*listingDto.ListingResponse, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	resp := buildListingResponse(listing)
	return &resp, nil
}

func (s *service) GetMine(ctx context.Context, sellerID uuid.UUID, page, limit int) (*listingDto.PaginatedListingResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	offset := (page - 1) * limit
	listings, total, err := s.listingRepo.FindBySeller(ctx, sellerID, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]listingDto.ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, buildListingResponse(l))
	}

	return &listingDto.PaginatedListingResponse{
		Data: responses,
		Meta: commonDto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, req listingDto.UpdateListingRequest) (*listingDto.ListingResponse, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if listing.SellerID != actorID {
		return nil, fmt.Errorf("not the owner of this listing: %w", apperror.ErrForbidden)
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.PriceType != nil {
		listing.PriceType = *req.PriceType
	}
	if req.Category != nil {
		listing.Category = *req.Category
	}
	if req.Condition != nil {
		listing.Condition = *req.Condition
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.Images != nil {
		listing.Images = *req.Images
	}
	if req.Status != nil {
		listing.Status = *req.Status
	}

	if err := checkFreePrice(listing.PriceType, listing.Price); err != nil {
		return nil, err
	}

	if err := s.listingRepo.Save(ctx, listing); err != nil {
		return nil, err
	}

	if s.searchService != nil {
		if err := s.searchService.IndexListing(listing); err != nil {
			log.Printf("failed to reindex listing %s: %v", listing.ID, err)
		}
	}

	resp := buildListingResponse(listing)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if listing.SellerID != actorID {
		return fmt.Errorf("not the owner of this listing: %w", apperror.ErrForbidden)
	}

	if err := s.favoriteRepo.DeleteByListing(ctx, id); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchService != nil {
		if err := s.searchService.DeleteListing(id.String()); err != nil {
			log.Printf("failed to remove listing %s from index: %v", id, err)
		}
	}

	return nil
}

func (s *service) GetTrending(ctx context.Context, limit int) ([]listingDto.ListingResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	listings, err := s.listingRepo.GetTrending(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]listingDto.ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, buildListingResponse(l))
	}

	return responses, nil
}

func (s *service) IncrementView(ctx context.Context, listingID, viewerID uuid.UUID) error {
	return s.viewService.IncrementView(ctx, listingID, viewerID)
}

func buildListingResponse(l *entity.Listing) listingDto.ListingResponse {
	resp := listingDto.ListingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		PriceType:   l.PriceType,
		Category:    l.Category,
		Condition:   l.Condition,
		Location:    l.Location,
		Images:      l.Images,
		Status:      l.Status,
		Views:       l.Views,
		SellerID:    l.SellerID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}

	if l.Seller.ID != uuid.Nil {
		resp.Seller = &commonDto.UserSummary{
			FirstName:    l.Seller.FirstName,
			LastName:     l.Seller.LastName,
			University:   l.Seller.University,
			Major:        l.Seller.Major,
			Year:         l.Seller.Year,
			Rating:       l.Seller.Rating,
			TotalRatings: l.Seller.TotalRatings,
			ProfileImage: l.Seller.ProfileImage,
		}
	}

	return resp
}
