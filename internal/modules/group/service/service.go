package group

import (
	"context"
	"errors"
	"fmt"
	"log"

	"campusshare.app/api/internal/entity"
	groupDto "campusshare.app/api/internal/modules/group/dto"
	repo "campusshare.app/api/internal/modules/group/repository"
	search "campusshare.app/api/internal/modules/search/service"
	"campusshare.app/api/pkg/apperror"
	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultMaxMembers applies when a group is created without a capacity.
const defaultMaxMembers = 10

type Service interface {
	Create(ctx context.Context, creatorID uuid.UUID, req groupDto.CreateGroupRequest) (*groupDto.GroupResponse, error)
	GetAll(ctx context.Context, filter groupDto.GroupFilter) (*groupDto.PaginatedGroupResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*groupDto.GroupResponse, error)
	GetMine(ctx context.Context, userID uuid.UUID, page, limit int) (*groupDto.PaginatedGroupResponse, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req groupDto.UpdateGroupRequest) (*groupDto.GroupResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Join(ctx context.Context, userID, id uuid.UUID) (*groupDto.GroupResponse, error)
	Leave(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	groupRepo     repo.GroupRepository
	searchService search.SearchService
}

func NewService(groupRepo repo.GroupRepository, searchService search.SearchService) Service {
	return &service{
		groupRepo:     groupRepo,
		searchService: searchService,
	}
}

func toMeetingSchedule(slots []groupDto.MeetingSlotRequest) []entity.MeetingSlot {
	schedule := make([]entity.MeetingSlot, 0, len(slots))
	for _, slot := range slots {
		schedule = append(schedule, entity.MeetingSlot{
			Day:      slot.Day,
			Time:     slot.Time,
			Location: slot.Location,
		})
	}
	return schedule
}

func (s *service) Create(ctx context.Context, creatorID uuid.UUID, req groupDto.CreateGroupRequest) (*groupDto.GroupResponse, error) {
	if req.MaxMembers == 0 {
		req.MaxMembers = defaultMaxMembers
	}

	group := &entity.StudyGroup{
		CreatorID:       creatorID,
		Name:            req.Name,
		Description:     req.Description,
		Course:          req.Course,
		Subject:         req.Subject,
		MaxMembers:      req.MaxMembers,
		Status:          entity.GroupStatusActive,
		MeetingSchedule: toMeetingSchedule(req.MeetingSchedule),
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	if s.searchService != nil {
		if err := s.searchService.IndexGroup(group); err != nil {
			log.Printf("failed to index group %s: %v", group.ID, err)
		}
	}

	return s.GetByID(ctx, group.ID)
}

func (s *service) GetAll(ctx context.Context, filter groupDto.GroupFilter) (*groupDto.PaginatedGroupResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 12
	}

	offset := (filter.Page - 1) * filter.Limit

	var (
		groups []*entity.StudyGroup
		total  int64
		err    error
	)

	if filter.Search != "" && s.searchService != nil {
		groups, total, err = s.searchGroups(ctx, filter, offset)
	} else {
		groups, total, err = s.groupRepo.FindAll(ctx, repo.Query{
			Subject: filter.Subject,
			Status:  filter.Status,
			Search:  filter.Search,
		}, offset, filter.Limit)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]groupDto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, buildGroupResponse(g, false))
	}

	return &groupDto.PaginatedGroupResponse{
		Data: responses,
		Meta: commonDto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *service) searchGroups(ctx context.Context, filter groupDto.GroupFilter, offset int) ([]*entity.StudyGroup, int64, error) {
	filters := map[string]string{}
	if filter.Subject != "" {
		filters["subject"] = filter.Subject
	}
	if filter.Status != "" {
		filters["status"] = filter.Status
	}

	ids, total, err := s.searchService.SearchGroups(filter.Search, filters, offset, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	groups, err := s.groupRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*groupDto.GroupResponse, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := buildGroupResponse(group, true)
	return &resp, nil
}

func (s *service) GetMine(ctx context.Context, userID uuid.UUID, page, limit int) (*groupDto.PaginatedGroupResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	offset := (page - 1) * limit
	groups, total, err := s.groupRepo.FindByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]groupDto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		responses = append(responses, buildGroupResponse(g, false))
	}

	return &groupDto.PaginatedGroupResponse{
		Data: responses,
		Meta: commonDto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, req groupDto.UpdateGroupRequest) (*groupDto.GroupResponse, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if group.CreatorID != actorID {
		return nil, fmt.Errorf("only the creator can update this group: %w", apperror.ErrForbidden)
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Course != nil {
		group.Course = *req.Course
	}
	if req.Subject != nil {
		group.Subject = *req.Subject
	}
	if req.MeetingSchedule != nil {
		group.MeetingSchedule = toMeetingSchedule(*req.MeetingSchedule)
	}

	// The preloaded member list can lag a concurrent join; count from the
	// membership table instead.
	count, err := s.groupRepo.CountMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	memberCount := int(count)

	if req.MaxMembers != nil {
		if *req.MaxMembers < memberCount {
			return nil, fmt.Errorf("max members cannot be below the current member count: %w", apperror.ErrInvalidOperation)
		}
		group.MaxMembers = *req.MaxMembers
	}

	if req.Status != nil {
		group.Status = *req.Status
	}

	// Capacity changes can open or close the group
	if group.Status != entity.GroupStatusInactive {
		if memberCount >= group.MaxMembers {
			group.Status = entity.GroupStatusFull
		} else {
			group.Status = entity.GroupStatusActive
		}
	}

	if err := s.groupRepo.Save(ctx, group); err != nil {
		return nil, err
	}

	if s.searchService != nil {
		if err := s.searchService.IndexGroup(group); err != nil {
			log.Printf("failed to reindex group %s: %v", group.ID, err)
		}
	}

	resp := buildGroupResponse(group, true)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return err
	}

	if group.CreatorID != actorID {
		return fmt.Errorf("only the creator can delete this group: %w", apperror.ErrForbidden)
	}

	if err := s.groupRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchService != nil {
		if err := s.searchService.DeleteGroup(id.String()); err != nil {
			log.Printf("failed to remove group %s from index: %v", id, err)
		}
	}

	return nil
}

func (s *service) Join(ctx context.Context, userID, id uuid.UUID) (*groupDto.GroupResponse, error) {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if group.Status == entity.GroupStatusInactive {
		return nil, fmt.Errorf("group is inactive: %w", apperror.ErrInvalidOperation)
	}

	if err := s.groupRepo.AddMember(ctx, id, userID); err != nil {
		switch {
		case errors.Is(err, repo.ErrGroupFull):
			return nil, fmt.Errorf("group is full: %w", apperror.ErrResourceExhausted)
		case errors.Is(err, repo.ErrAlreadyMember):
			return nil, fmt.Errorf("already a member of this group: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	if s.searchService != nil {
		if updated, err := s.groupRepo.FindByID(ctx, id); err == nil {
			if err := s.searchService.IndexGroup(updated); err != nil {
				log.Printf("failed to reindex group %s: %v", id, err)
			}
		}
	}

	return s.GetByID(ctx, id)
}

func (s *service) Leave(ctx context.Context, userID, id uuid.UUID) error {
	group, err := s.findGroup(ctx, id)
	if err != nil {
		return err
	}

	if group.CreatorID == userID {
		return fmt.Errorf("the creator cannot leave their own group: %w", apperror.ErrInvalidOperation)
	}

	if err := s.groupRepo.RemoveMember(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("not a member of this group: %w", apperror.ErrNotFound)
		}
		return err
	}

	return nil
}

func (s *service) findGroup(ctx context.Context, id uuid.UUID) (*entity.StudyGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("study group not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return group, nil
}

func buildGroupResponse(g *entity.StudyGroup, includeMembers bool) groupDto.GroupResponse {
	resp := groupDto.GroupResponse{
		ID:              g.ID,
		CreatorID:       g.CreatorID,
		Name:            g.Name,
		Description:     g.Description,
		Course:          g.Course,
		Subject:         g.Subject,
		MaxMembers:      g.MaxMembers,
		MemberCount:     len(g.Members),
		Status:          g.Status,
		MeetingSchedule: g.MeetingSchedule,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}

	if !includeMembers {
		return resp
	}

	members := make([]groupDto.GroupMemberResponse, 0, len(g.Members))
	for _, m := range g.Members {
		member := groupDto.GroupMemberResponse{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if m.User.ID != uuid.Nil {
			member.User = &commonDto.UserSummary{
				FirstName:    m.User.FirstName,
				LastName:     m.User.LastName,
				University:   m.User.University,
				Major:        m.User.Major,
				Year:         m.User.Year,
				Rating:       m.User.Rating,
				TotalRatings: m.User.TotalRatings,
				ProfileImage: m.User.ProfileImage,
			}
		}
		members = append(members, member)
	}
	resp.Members = members

	return resp
}
