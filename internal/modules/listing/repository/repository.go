package repository

import (
	"context"

	"campusshare.app/api/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Query is the equality filter set for browsing listings. Empty fields are
// ignored.
type Query struct {
	Category  string
	PriceType string
	Condition string
	Status    string
	Search    string
}

type Repository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Listing, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]*entity.Listing, int64, error)
	FindAll(ctx context.Context, q Query, offset, limit int) ([]*entity.Listing, int64, error)
	Save(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID, delta int) error
	GetTrending(ctx context.Context, limit int) ([]*entity.Listing, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, listing *entity.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var listing entity.Listing
	if err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("id = ?", id).
		First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDs returns listings in the order of ids; missing ids are skipped.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Listing, error) {
	if len(ids) == 0 {
		return []*entity.Listing{}, nil
	}

	var listings []*entity.Listing
	if err := r.db.WithContext(ctx).
		Preload("Seller").
		Where("id IN ?", ids).
		Find(&listings).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	ordered := make([]*entity.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
		}
	}

	return ordered, nil
}

func (r *repository) FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]*entity.Listing, int64, error) {
	var listings []*entity.Listing
	var total int64

	query := r.db.WithContext(ctx).Preload("Seller").Where("seller_id = ?", sellerID)

	if err := query.Model(&entity.Listing{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *repository) FindAll(ctx context.Context, q Query, offset, limit int) ([]*entity.Listing, int64, error) {
	var listings []*entity.Listing
	var total int64

	query := r.db.WithContext(ctx).Preload("Seller")

	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.PriceType != "" {
		query = query.Where("price_type = ?", q.PriceType)
	}
	if q.Condition != "" {
		query = query.Where("condition = ?", q.Condition)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?", "%"+q.Search+"%", "%"+q.Search+"%")
	}

	if err := query.Model(&entity.Listing{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *repository) Save(ctx context.Context, listing *entity.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Listing{}, "id = ?", id).Error
}

func (r *repository) IncrementViews(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&entity.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", delta)).Error
}

// GetTrending ranks recent active listings by engagement (views, favorites,
// proposals) with a time decay, same shape as a "hot" feed.
func (r *repository) GetTrending(ctx context.Context, limit int) ([]*entity.Listing, error) {
	var ids []uuid.UUID

	query := `
		SELECT id
		FROM listings
		WHERE created_at >= NOW() - INTERVAL '14 days' AND status = 'active'
		ORDER BY (
			(COALESCE(views, 0) +
			((SELECT COUNT(*) FROM favorites WHERE favorites.listing_id = listings.id) * 5) +
			((SELECT COUNT(*) FROM proposals WHERE proposals.listing_id = listings.id) * 30))
			/
			POWER((EXTRACT(EPOCH FROM (NOW() - created_at))/3600) + 2, 1.8)
		) DESC
		LIMIT ?
	`

	if err := r.db.WithContext(ctx).Raw(query, limit).Scan(&ids).Error; err != nil {
		return nil, err
	}

	return r.FindByIDs(ctx, ids)
}

func (r *repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Listing{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
