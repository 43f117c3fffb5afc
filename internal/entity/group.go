package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GroupStatusActive   = "active"
	GroupStatusFull     = "full"
	GroupStatusInactive = "inactive"
)

const (
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"
)

type MeetingSlot struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

type StudyGroup struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID       uuid.UUID     `gorm:"type:uuid;index;not null" json:"creator_id"`
	Creator         User          `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Name            string        `gorm:"size:100;not null" json:"name"`
	Description     string        `gorm:"size:500;not null" json:"description"`
	Course          string        `gorm:"size:100;not null" json:"course"`
	Subject         string        `gorm:"size:100;index;not null" json:"subject"`
	MaxMembers      int           `gorm:"not null" json:"max_members"`
	Status          string        `gorm:"size:20;index;default:active" json:"status"`
	MeetingSchedule []MeetingSlot `gorm:"serializer:json;type:jsonb" json:"meeting_schedule"`
	Members         []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *StudyGroup) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

// GroupMember is the authoritative membership join, one row per (group, user).
// It doubles as the reverse index for user -> groups lookups.
type GroupMember struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Role     string    `gorm:"size:20;not null" json:"role"` // admin, member
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
