package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	SessionId    uuid.UUID `json:"session_id" validate:"required"`
	FirstMessage string    `json:"first_message" validate:"required"`
}

type ConversationResponse struct {
	Id           uuid.UUID `json:"id"`
	SessionId    uuid.UUID `json:"session_id"`
	Title        string    `json:"title"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
