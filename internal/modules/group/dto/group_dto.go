package dto

import (
	"time"

	"campusshare.app/api/internal/entity"
	commonDto "campusshare.app/api/pkg/dto"
	"github.com/google/uuid"
)

type MeetingSlotRequest struct {
	Day      string `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Time     string `json:"time" binding:"required,max=50"`
	Location string `json:"location" binding:"required,max=255"`
}

type CreateGroupRequest struct {
	Name            string               `json:"name" binding:"required,min=1,max=100"`
	Description     string               `json:"description" binding:"required,min=1,max=500"`
	Course          string               `json:"course" binding:"required,max=100"`
	Subject         string               `json:"subject" binding:"required,max=100"`
	MaxMembers      int                  `json:"max_members" binding:"omitempty,gte=2,lte=50"`
	MeetingSchedule []MeetingSlotRequest `json:"meeting_schedule" binding:"omitempty,dive"`
}

type UpdateGroupRequest struct {
	Name            *string               `json:"name" binding:"omitempty,min=1,max=100"`
	Description     *string               `json:"description" binding:"omitempty,min=1,max=500"`
	Course          *string               `json:"course" binding:"omitempty,max=100"`
	Subject         *string               `json:"subject" binding:"omitempty,max=100"`
	MaxMembers      *int                  `json:"max_members" binding:"omitempty,gte=2,lte=50"`
	Status          *string               `json:"status" binding:"omitempty,oneof=active inactive"`
	MeetingSchedule *[]MeetingSlotRequest `json:"meeting_schedule" binding:"omitempty,dive"`
}

type GroupFilter struct {
	Subject string `form:"subject" binding:"omitempty,max=100"`
	Status  string `form:"status" binding:"omitempty,oneof=active full inactive"`
	Search  string `form:"search"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type GroupMemberResponse struct {
	UserID   uuid.UUID              `json:"user_id"`
	Role     string                 `json:"role"`
	JoinedAt time.Time              `json:"joined_at"`
	User     *commonDto.UserSummary `json:"user,omitempty"`
}

type GroupResponse struct {
	ID              uuid.UUID            `json:"id"`
	CreatorID       uuid.UUID            `json:"creator_id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Course          string               `json:"course"`
	Subject         string               `json:"subject"`
	MaxMembers      int                  `json:"max_members"`
	MemberCount     int                  `json:"member_count"`
	Status          string               `json:"status"`
	MeetingSchedule []entity.MeetingSlot `json:"meeting_schedule"`
	Members         []GroupMemberResponse `json:"members,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type PaginatedGroupResponse struct {
	Data []GroupResponse          `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
