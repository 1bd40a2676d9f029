package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationWithCount is the projection used by history listing.
type ConversationWithCount struct {
	Conversation
	MessageCount int64 `gorm:"column:message_count"`
}
