package dto

import (
	"time"

	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	EntityID   uuid.UUID              `json:"entity_id"`
	EntityType string                 `json:"entity_type"`
	IsRead     bool                   `json:"is_read"`
	Actor      *commonDto.UserSummary `json:"actor,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type PaginatedNotificationResponse struct {
	Data        []NotificationResponse   `json:"data"`
	UnreadCount int64                    `json:"unread_count"`
	Meta        commonDto.PaginationMeta `json:"meta"`
}
