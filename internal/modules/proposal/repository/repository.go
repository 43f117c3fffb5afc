package repository

import (
	"context"
	"errors"

	"campusshare.app/api/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProposalNotPending is returned by Accept when the proposal left the
	// pending state between the caller's read and the transaction.
	ErrProposalNotPending = errors.New("proposal is not pending")
	// ErrListingUnavailable is returned by Accept when the listing is no
	// longer active.
	ErrListingUnavailable = errors.New("listing is not active")
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]entity.Proposal, error)
	HasPendingForBuyer(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Accept(ctx context.Context, proposal *entity.Proposal) ([]entity.Proposal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int64, error)
}

type proposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *entity.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	var proposal entity.Proposal
	if err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Where("id = ?", id).
		First(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error) {
	return r.findPaged(ctx, "buyer_id = ?", buyerID, offset, limit)
}

func (r *proposalRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error) {
	return r.findPaged(ctx, "seller_id = ?", sellerID, offset, limit)
}

func (r *proposalRepository) findPaged(ctx context.Context, cond string, id uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error) {
	var proposals []entity.Proposal
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Proposal{}).Where(cond, id)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Listing").
		Preload("Buyer").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&proposals).Error; err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

func (r *proposalRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]entity.Proposal, error) {
	var proposals []entity.Proposal
	err := r.db.WithContext(ctx).
		Preload("Buyer").
		Where("listing_id = ?", listingID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

func (r *proposalRepository) HasPendingForBuyer(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Proposal{}).
		Where("buyer_id = ? AND listing_id = ? AND status = ?", buyerID, listingID, entity.ProposalStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *proposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&entity.Proposal{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Accept marks the proposal accepted, the listing sold, and every other
// pending proposal on the listing rejected, all in one transaction. The
// listing row is locked and both statuses are re-checked inside the
// transaction, so a concurrent withdraw or a second accept loses cleanly.
// It returns the rejected siblings so callers can notify their buyers.
func (r *proposalRepository) Accept(ctx context.Context, proposal *entity.Proposal) ([]entity.Proposal, error) {
	var rejected []entity.Proposal

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing entity.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", proposal.ListingID).
			First(&listing).Error; err != nil {
			return err
		}
		if listing.Status != entity.ListingStatusActive {
			return ErrListingUnavailable
		}

		result := tx.Model(&entity.Proposal{}).
			Where("id = ? AND status = ?", proposal.ID, entity.ProposalStatusPending).
			Update("status", entity.ProposalStatusAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProposalNotPending
		}

		if err := tx.Model(&entity.Listing{}).
			Where("id = ?", proposal.ListingID).
			Update("status", entity.ListingStatusSold).Error; err != nil {
			return err
		}

		if err := tx.
			Where("listing_id = ? AND id != ? AND status = ?",
				proposal.ListingID, proposal.ID, entity.ProposalStatusPending).
			Find(&rejected).Error; err != nil {
			return err
		}

		if len(rejected) == 0 {
			return nil
		}

		return tx.Model(&entity.Proposal{}).
			Where("listing_id = ? AND id != ? AND status = ?",
				proposal.ListingID, proposal.ID, entity.ProposalStatusPending).
			Update("status", entity.ProposalStatusRejected).Error
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}

func (r *proposalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Proposal{}, "id = ?", id).Error
}

func (r *proposalRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Proposal{}).Count(&count).Error
	return count, err
}
