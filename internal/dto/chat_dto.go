package dto

import (
	"ai-chat-session-be/pkg/llm"

	"github.com/google/uuid"
)

// ChatRequest is one turn: the full transcript so far plus the session it is billed to.
type ChatRequest struct {
	Messages       []llm.RawMessage `json:"messages" validate:"required,min=1,dive"`
	SessionId      uuid.UUID        `json:"sessionId" validate:"required"`
	ConversationId *uuid.UUID       `json:"conversationId,omitempty"`
}

type ChatResponse struct {
	Message        string     `json:"message"`
	TokensUsed     int64      `json:"tokensUsed"`
	TokenLimit     int64      `json:"tokenLimit"`
	ConversationId *uuid.UUID `json:"conversationId,omitempty"`
}

// UsageRetryMessage is published on the internal bus when a reconcile write fails.
type UsageRetryMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	ModelName string    `json:"model_name"`
	Tokens    int64     `json:"tokens"`
	Attempt   int       `json:"attempt"`
}

// UsageEvent is pushed to websocket clients after each reconcile.
type UsageEvent struct {
	UserId     uuid.UUID `json:"-"`
	SessionId  uuid.UUID `json:"session_id"`
	TokensUsed int64     `json:"tokensUsed"`
	TokenLimit int64     `json:"tokenLimit"`
}
