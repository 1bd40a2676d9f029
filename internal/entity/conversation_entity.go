package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	SessionId uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationSummary is a conversation with its message count, as listed in history.
type ConversationSummary struct {
	Conversation
	MessageCount int64
}

type ChatMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}
