package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationProposalReceived = "proposal_received"
	NotificationProposalAccepted = "proposal_accepted"
	NotificationProposalRejected = "proposal_rejected"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`  // recipient
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`       // user who triggered it
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`      // proposal id
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`      // 'proposal'
	Type       string    `gorm:"size:50;not null" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
