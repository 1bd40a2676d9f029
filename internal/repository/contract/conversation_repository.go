package contract

import (
	"context"

	"ai-chat-session-be/internal/entity"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	FindOwned(ctx context.Context, id, userId uuid.UUID) (*entity.Conversation, error)
	// ListWithCounts orders by updated_at desc.
	ListWithCounts(ctx context.Context, userId uuid.UUID) ([]*entity.ConversationSummary, error)
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	// ListByConversation orders by created_at asc.
	ListByConversation(ctx context.Context, conversationId uuid.UUID) ([]*entity.ChatMessage, error)
	DeleteByConversation(ctx context.Context, conversationId uuid.UUID) error
}
