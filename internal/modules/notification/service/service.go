package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"campusshare.app/api/internal/entity"
	notificationDto "campusshare.app/api/internal/modules/notification/dto"
	repo "campusshare.app/api/internal/modules/notification/repository"
	"campusshare.app/api/pkg/apperror"
	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotificationService stores notifications and pushes them to connected
// clients over Redis pub/sub. Publishing is best effort.
type NotificationService interface {
	Notify(ctx context.Context, userID, actorID, entityID uuid.UUID, entityType, notifType, message string)
	GetByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*notificationDto.PaginatedNotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub
}

type notificationService struct {
	notificationRepo repo.NotificationRepository
	redisClient      *redis.Client
}

func NewNotificationService(notificationRepo repo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		redisClient:      redisClient,
	}
}

func channelFor(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

// Notify never fails the caller's operation: storage and publish errors are
// logged and swallowed.
func (s *notificationService) Notify(ctx context.Context, userID, actorID, entityID uuid.UUID, entityType, notifType, message string) {
	// Don't notify users about their own actions
	if userID == actorID {
		return
	}

	notification := &entity.Notification{
		UserID:     userID,
		ActorID:    actorID,
		EntityID:   entityID,
		EntityType: entityType,
		Type:       notifType,
		Message:    message,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("failed to store notification for user %s: %v", userID, err)
		return
	}

	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(notificationDto.NotificationResponse{
		ID:         notification.ID,
		Type:       notification.Type,
		Message:    notification.Message,
		EntityID:   notification.EntityID,
		EntityType: notification.EntityType,
		IsRead:     false,
		CreatedAt:  notification.CreatedAt,
	})
	if err != nil {
		log.Printf("failed to marshal notification: %v", err)
		return
	}

	if err := s.redisClient.Publish(ctx, channelFor(userID), payload).Err(); err != nil {
		log.Printf("failed to publish notification for user %s: %v", userID, err)
	}
}

func (s *notificationService) GetByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*notificationDto.PaginatedNotificationResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	offset := (page - 1) * limit
	notifications, total, err := s.notificationRepo.FindByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notificationDto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp := notificationDto.NotificationResponse{
			ID:         n.ID,
			Type:       n.Type,
			Message:    n.Message,
			EntityID:   n.EntityID,
			EntityType: n.EntityType,
			IsRead:     n.IsRead,
			CreatedAt:  n.CreatedAt,
		}
		if n.Actor != nil {
			resp.Actor = &commonDto.UserSummary{
				FirstName:    n.Actor.FirstName,
				LastName:     n.Actor.LastName,
				University:   n.Actor.University,
				Major:        n.Actor.Major,
				Year:         n.Actor.Year,
				Rating:       n.Actor.Rating,
				TotalRatings: n.Actor.TotalRatings,
				ProfileImage: n.Actor.ProfileImage,
			}
		}
		responses = append(responses, resp)
	}

	return &notificationDto.PaginatedNotificationResponse{
		Data:        responses,
		UnreadCount: unread,
		Meta:        commonDto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification not found: %w", apperror.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Subscribe returns nil when Redis is not configured; callers treat that as
// "live notifications unavailable".
func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Subscribe(ctx, channelFor(userID))
}
