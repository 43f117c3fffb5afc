package repository

import (
	"context"

	"campusshare.app/api/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *entity.Favorite) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Favorite, error)
	IsFavorited(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	DeleteByUserAndListing(ctx context.Context, userID, listingID uuid.UUID) error
	DeleteByListing(ctx context.Context, listingID uuid.UUID) error
	CountByListing(ctx context.Context, listingID uuid.UUID) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *entity.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *favoriteRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Favorite, error) {
	var favorites []entity.Favorite
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Seller").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, err
}

func (r *favoriteRepository) IsFavorited(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	return count > 0, err
}

func (r *favoriteRepository) DeleteByUserAndListing(ctx context.Context, userID, listingID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&entity.Favorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *favoriteRepository) DeleteByListing(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Delete(&entity.Favorite{}).Error
}

func (r *favoriteRepository) CountByListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Favorite{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error
	return count, err
}
