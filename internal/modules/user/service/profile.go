package service

import (
	"context"
	"errors"
	"fmt"

	"campusshare.app/api/internal/entity"
	"campusshare.app/api/internal/modules/user/dto"
	"campusshare.app/api/internal/modules/user/repository"
	"campusshare.app/api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Update(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*entity.User, error)
}

type profileService struct {
	repo repository.UserRepository
}

func NewProfileService(repo repository.UserRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Update applies the whitelisted mutable fields only; anything else in the
// payload never reaches the store.
func (s *profileService) Update(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*entity.User, error) {
	fields := map[string]interface{}{}

	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.University != nil {
		fields["university"] = *req.University
	}
	if req.Major != nil {
		fields["major"] = *req.Major
	}
	if req.Year != nil {
		fields["year"] = *req.Year
	}
	if req.ProfileImage != nil {
		fields["profile_image"] = *req.ProfileImage
	}

	if len(fields) == 0 {
		return s.GetByID(ctx, userID)
	}

	user, err := s.repo.UpdateFields(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}
