package proposal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campusshare.app/api/internal/entity"
	listingRepo "campusshare.app/api/internal/modules/listing/repository"
	notification "campusshare.app/api/internal/modules/notification/service"
	proposalDto "campusshare.app/api/internal/modules/proposal/dto"
	repo "campusshare.app/api/internal/modules/proposal/repository"
	userRepo "campusshare.app/api/internal/modules/user/repository"
	"campusshare.app/api/pkg/apperror"
	commonDto "campusshare.app/api/pkg/dto"
	"campusshare.app/api/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// minMessageLength matches the DTO binding so callers bypassing the HTTP
// layer get the same rule.
const minMessageLength = 10

type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req proposalDto.CreateProposalRequest) (*proposalDto.ProposalResponse, error)
	GetByID(ctx context.Context, actorID, id uuid.UUID) (*proposalDto.ProposalResponse, error)
	GetMine(ctx context.Context, buyerID uuid.UUID, page, limit int) (*proposalDto.PaginatedProposalResponse, error)
	GetReceived(ctx context.Context, sellerID uuid.UUID, page, limit int) (*proposalDto.PaginatedProposalResponse, error)
	GetByListing(ctx context.Context, actorID, listingID uuid.UUID) ([]proposalDto.ProposalResponse, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*proposalDto.ProposalResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	proposalRepo        repo.ProposalRepository
	listingRepo         listingRepo.Repository
	userRepo            userRepo.UserRepository
	notificationService notification.NotificationService
	redisClient         *redis.Client
	createCooldown      time.Duration
}

func NewService(proposalRepo repo.ProposalRepository, listingRepo listingRepo.Repository, userRepo userRepo.UserRepository, notificationService notification.NotificationService, redisClient *redis.Client, createCooldown time.Duration) Service {
	return &service{
		proposalRepo:        proposalRepo,
		listingRepo:         listingRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		redisClient:         redisClient,
		createCooldown:      createCooldown,
	}
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req proposalDto.CreateProposalRequest) (*proposalDto.ProposalResponse, error) {
	if len(req.Message) < minMessageLength {
		return nil, fmt.Errorf("message must be at least %d characters: %w", minMessageLength, apperror.ErrInvalidInput)
	}

	listing, err := s.listingRepo.FindByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if listing.Status != entity.ListingStatusActive {
		return nil, fmt.Errorf("listing is no longer available: %w", apperror.ErrInvalidOperation)
	}

	if listing.SellerID == buyerID {
		return nil, fmt.Errorf("cannot send a proposal on your own listing: %w", apperror.ErrInvalidOperation)
	}

	hasPending, err := s.proposalRepo.HasPendingForBuyer(ctx, buyerID, req.ListingID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, fmt.Errorf("you already have a pending proposal on this listing: %w", apperror.ErrConflict)
	}

	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, buyerID, "create_proposal", s.createCooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		retry := ratelimit.RetryIn(ctx, s.redisClient, buyerID, "create_proposal", s.createCooldown)
		return nil, fmt.Errorf("you are sending proposals too quickly, retry in %s: %w", retry.Round(time.Second), apperror.ErrRateLimitExceeded)
	}

	creationFailed := true
	defer func() {
		if creationFailed {
			if err := ratelimit.Clear(ctx, s.redisClient, buyerID, "create_proposal"); err != nil {
				log.Printf("failed to clear rate limit: %v", err)
			}
		}
	}()

	proposedPrice := listing.Price
	if req.ProposedPrice != nil {
		proposedPrice = *req.ProposedPrice
	}

	proposal := &entity.Proposal{
		ListingID:     req.ListingID,
		BuyerID:       buyerID,
		SellerID:      listing.SellerID,
		Message:       req.Message,
		ProposedPrice: proposedPrice,
		Status:        entity.ProposalStatusPending,
	}

	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		return nil, err
	}
	creationFailed = false

	s.notificationService.Notify(ctx, listing.SellerID, buyerID, proposal.ID, "proposal",
		entity.NotificationProposalReceived,
		fmt.Sprintf("%s sent you a proposal for \"%s\"", s.actorName(ctx, buyerID), listing.Title))

	created, err := s.proposalRepo.FindByID(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}

	resp := buildProposalResponse(created)
	return &resp, nil
}

func (s *service) GetByID(ctx context.Context, actorID, id uuid.UUID) (*proposalDto.ProposalResponse, error) {
	proposal, err := s.findProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	if proposal.BuyerID != actorID && proposal.SellerID != actorID {
		return nil, fmt.Errorf("not a party to this proposal: %w", apperror.ErrForbidden)
	}

	resp := buildProposalResponse(proposal)
	return &resp, nil
}

func (s *service) GetMine(ctx context.Context, buyerID uuid.UUID, page, limit int) (*proposalDto.PaginatedProposalResponse, error) {
	return s.getPaged(ctx, page, limit, func(offset, limit int) ([]entity.Proposal, int64, error) {
		return s.proposalRepo.FindByBuyer(ctx, buyerID, offset, limit)
	})
}

func (s *service) GetReceived(ctx context.Context, sellerID uuid.UUID, page, limit int) (*proposalDto.PaginatedProposalResponse, error) {
	return s.getPaged(ctx, page, limit, func(offset, limit int) ([]entity.Proposal, int64, error) {
		return s.proposalRepo.FindBySeller(ctx, sellerID, offset, limit)
	})
}

func (s *service) getPaged(ctx context.Context, page, limit int, find func(offset, limit int) ([]entity.Proposal, int64, error)) (*proposalDto.PaginatedProposalResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	proposals, total, err := find((page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]proposalDto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		responses = append(responses, buildProposalResponse(&proposals[i]))
	}

	return &proposalDto.PaginatedProposalResponse{
		Data: responses,
		Meta: commonDto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *service) GetByListing(ctx context.Context, actorID, listingID uuid.UUID) ([]proposalDto.ProposalResponse, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if listing.SellerID != actorID {
		return nil, fmt.Errorf("only the seller can view a listing's proposals: %w", apperror.ErrForbidden)
	}

	proposals, err := s.proposalRepo.FindByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	responses := make([]proposalDto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		responses = append(responses, buildProposalResponse(&proposals[i]))
	}

	return responses, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*proposalDto.ProposalResponse, error) {
	proposal, err := s.findProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	if proposal.Status != entity.ProposalStatusPending {
		return nil, fmt.Errorf("proposal is already %s: %w", proposal.Status, apperror.ErrInvalidOperation)
	}

	switch status {
	case entity.ProposalStatusAccepted, entity.ProposalStatusRejected:
		if proposal.SellerID != actorID {
			return nil, fmt.Errorf("only the seller can %s a proposal: %w", verbFor(status), apperror.ErrForbidden)
		}
	case entity.ProposalStatusWithdrawn:
		if proposal.BuyerID != actorID {
			return nil, fmt.Errorf("only the buyer can withdraw a proposal: %w", apperror.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("invalid proposal status %q: %w", status, apperror.ErrInvalidInput)
	}

	switch status {
	case entity.ProposalStatusAccepted:
		if proposal.Listing.Status != entity.ListingStatusActive {
			return nil, fmt.Errorf("listing is no longer available: %w", apperror.ErrInvalidOperation)
		}

		rejected, err := s.proposalRepo.Accept(ctx, proposal)
		if err != nil {
			if errors.Is(err, repo.ErrListingUnavailable) {
				return nil, fmt.Errorf("listing is no longer available: %w", apperror.ErrInvalidOperation)
			}
			if errors.Is(err, repo.ErrProposalNotPending) {
				return nil, fmt.Errorf("proposal is no longer pending: %w", apperror.ErrInvalidOperation)
			}
			return nil, err
		}

		sellerName := s.actorName(ctx, proposal.SellerID)
		s.notificationService.Notify(ctx, proposal.BuyerID, actorID, proposal.ID, "proposal",
			entity.NotificationProposalAccepted,
			fmt.Sprintf("%s accepted your proposal for \"%s\"", sellerName, proposal.Listing.Title))

		for _, sibling := range rejected {
			s.notificationService.Notify(ctx, sibling.BuyerID, actorID, sibling.ID, "proposal",
				entity.NotificationProposalRejected,
				fmt.Sprintf("Your proposal for \"%s\" was not accepted", proposal.Listing.Title))
		}

	case entity.ProposalStatusRejected:
		if err := s.proposalRepo.UpdateStatus(ctx, id, status); err != nil {
			return nil, err
		}

		s.notificationService.Notify(ctx, proposal.BuyerID, actorID, proposal.ID, "proposal",
			entity.NotificationProposalRejected,
			fmt.Sprintf("%s declined your proposal for \"%s\"", s.actorName(ctx, proposal.SellerID), proposal.Listing.Title))

	case entity.ProposalStatusWithdrawn:
		if err := s.proposalRepo.UpdateStatus(ctx, id, status); err != nil {
			return nil, err
		}
	}

	updated, err := s.proposalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := buildProposalResponse(updated)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	proposal, err := s.findProposal(ctx, id)
	if err != nil {
		return err
	}

	if proposal.BuyerID != actorID {
		return fmt.Errorf("only the buyer can delete a proposal: %w", apperror.ErrForbidden)
	}

	if proposal.Status == entity.ProposalStatusAccepted {
		return fmt.Errorf("cannot delete an accepted proposal: %w", apperror.ErrInvalidOperation)
	}

	return s.proposalRepo.Delete(ctx, id)
}

func (s *service) findProposal(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	proposal, err := s.proposalRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("proposal not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return proposal, nil
}

func (s *service) actorName(ctx context.Context, id uuid.UUID) string {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return "Someone"
	}
	return fmt.Sprintf("%s %s", user.FirstName, user.LastName)
}

func verbFor(status string) string {
	if status == entity.ProposalStatusAccepted {
		return "accept"
	}
	return "reject"
}

func buildProposalResponse(p *entity.Proposal) proposalDto.ProposalResponse {
	resp := proposalDto.ProposalResponse{
		ID:            p.ID,
		ListingID:     p.ListingID,
		BuyerID:       p.BuyerID,
		SellerID:      p.SellerID,
		Message:       p.Message,
		ProposedPrice: p.ProposedPrice,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	if p.Listing.ID != uuid.Nil {
		resp.Listing = &proposalDto.ProposalListingSummary{
			ID:        p.Listing.ID,
			Title:     p.Listing.Title,
			Price:     p.Listing.Price,
			PriceType: p.Listing.PriceType,
			Status:    p.Listing.Status,
			Images:    p.Listing.Images,
		}
	}

	if p.Buyer.ID != uuid.Nil {
		resp.Buyer = &commonDto.UserSummary{
			FirstName:    p.Buyer.FirstName,
			LastName:     p.Buyer.LastName,
			University:   p.Buyer.University,
			Major:        p.Buyer.Major,
			Year:         p.Buyer.Year,
			Rating:       p.Buyer.Rating,
			TotalRatings: p.Buyer.TotalRatings,
			ProfileImage: p.Buyer.ProfileImage,
		}
	}

	return resp
}
