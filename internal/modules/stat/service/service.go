package stat

import (
	"context"

	"campusshare.app/api/internal/entity"
	groupRepo "campusshare.app/api/internal/modules/group/repository"
	listingRepo "campusshare.app/api/internal/modules/listing/repository"
	proposalRepo "campusshare.app/api/internal/modules/proposal/repository"
	userRepo "campusshare.app/api/internal/modules/user/repository"
)

type Overview struct {
	TotalUsers      int64 `json:"total_users"`
	ActiveListings  int64 `json:"active_listings"`
	SoldListings    int64 `json:"sold_listings"`
	TotalProposals  int64 `json:"total_proposals"`
	TotalStudyGroups int64 `json:"total_study_groups"`
}

type Service interface {
	GetOverview(ctx context.Context) (*Overview, error)
}

type service struct {
	userRepo     userRepo.UserRepository
	listingRepo  listingRepo.Repository
	proposalRepo proposalRepo.ProposalRepository
	groupRepo    groupRepo.GroupRepository
}

func NewService(userRepo userRepo.UserRepository, listingRepo listingRepo.Repository, proposalRepo proposalRepo.ProposalRepository, groupRepo groupRepo.GroupRepository) Service {
	return &service{
		userRepo:     userRepo,
		listingRepo:  listingRepo,
		proposalRepo: proposalRepo,
		groupRepo:    groupRepo,
	}
}

func (s *service) GetOverview(ctx context.Context) (*Overview, error) {
	users, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.listingRepo.CountByStatus(ctx, entity.ListingStatusActive)
	if err != nil {
		return nil, err
	}

	sold, err := s.listingRepo.CountByStatus(ctx, entity.ListingStatusSold)
	if err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalUsers:       users,
		ActiveListings:   active,
		SoldListings:     sold,
		TotalProposals:   proposals,
		TotalStudyGroups: groups,
	}, nil
}
