package favorite

import (
	"context"
	"errors"
	"fmt"

	"campusshare.app/api/internal/entity"
	favoriteDto "campusshare.app/api/internal/modules/favorite/dto"
	repo "campusshare.app/api/internal/modules/favorite/repository"
	listingDto "campusshare.app/api/internal/modules/listing/dto"
	listingRepo "campusshare.app/api/internal/modules/listing/repository"
	"campusshare.app/api/pkg/apperror"
	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	Add(ctx context.Context, userID, listingID uuid.UUID) (*favoriteDto.FavoriteResponse, error)
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]favoriteDto.FavoriteResponse, error)
	Check(ctx context.Context, userID, listingID uuid.UUID) (*favoriteDto.FavoriteStatusResponse, error)
}

type service struct {
	favoriteRepo repo.FavoriteRepository
	listingRepo  listingRepo.Repository
}

func NewService(favoriteRepo repo.FavoriteRepository, listingRepo listingRepo.Repository) Service {
	return &service{
		favoriteRepo: favoriteRepo,
		listingRepo:  listingRepo,
	}
}

func (s *service) Add(ctx context.Context, userID, listingID uuid.UUID) (*favoriteDto.FavoriteResponse, error) {
	if _, err := s.listingRepo.FindByID(ctx, listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	favorited, err := s.favoriteRepo.IsFavorited(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if favorited {
		return nil, fmt.Errorf("listing is already in your favorites: %w", apperror.ErrConflict)
	}

	favorite := &entity.Favorite{
		UserID:    userID,
		ListingID: listingID,
	}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		return nil, err
	}

	return &favoriteDto.FavoriteResponse{
		ID:        favorite.ID,
		ListingID: favorite.ListingID,
		CreatedAt: favorite.CreatedAt,
	}, nil
}

func (s *service) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	if err := s.favoriteRepo.DeleteByUserAndListing(ctx, userID, listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("listing is not in your favorites: %w", apperror.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]favoriteDto.FavoriteResponse, error) {
	favorites, err := s.favoriteRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]favoriteDto.FavoriteResponse, 0, len(favorites))
	for i := range favorites {
		responses = append(responses, buildFavoriteResponse(&favorites[i]))
	}

	return responses, nil
}

func (s *service) Check(ctx context.Context, userID, listingID uuid.UUID) (*favoriteDto.FavoriteStatusResponse, error) {
	favorited, err := s.favoriteRepo.IsFavorited(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	return &favoriteDto.FavoriteStatusResponse{
		ListingID:   listingID,
		IsFavorited: favorited,
	}, nil
}

func buildFavoriteResponse(f *entity.Favorite) favoriteDto.FavoriteResponse {
	resp := favoriteDto.FavoriteResponse{
		ID:        f.ID,
		ListingID: f.ListingID,
		CreatedAt: f.CreatedAt,
	}

	if f.Listing.ID == uuid.Nil {
		return resp
	}

	listing := listingDto.ListingResponse{
		ID:          f.Listing.ID,
		Title:       f.Listing.Title,
		Description: f.Listing.Description,
		Price:       f.Listing.Price,
		PriceType:   f.Listing.PriceType,
		Category:    f.Listing.Category,
		Condition:   f.Listing.Condition,
		Location:    f.Listing.Location,
		Images:      f.Listing.Images,
		Status:      f.Listing.Status,
		Views:       f.Listing.Views,
		SellerID:    f.Listing.SellerID,
		CreatedAt:   f.Listing.CreatedAt,
		UpdatedAt:   f.Listing.UpdatedAt,
	}

	if f.Listing.Seller.ID != uuid.Nil {
		listing.Seller = &commonDto.UserSummary{
			FirstName:    f.Listing.Seller.FirstName,
			LastName:     f.Listing.Seller.LastName,
			University:   f.Listing.Seller.University,
			Major:        f.Listing.Seller.Major,
			Year:         f.Listing.Seller.Year,
			Rating:       f.Listing.Seller.Rating,
			TotalRatings: f.Listing.Seller.TotalRatings,
			ProfileImage: f.Listing.Seller.ProfileImage,
		}
	}

	resp.Listing = &listing
	return resp
}
