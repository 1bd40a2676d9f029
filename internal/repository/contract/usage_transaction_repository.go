package contract

import (
	"context"

	"ai-chat-session-be/internal/entity"

	"github.com/google/uuid"
)

type UsageTransactionRepository interface {
	Create(ctx context.Context, tx *entity.TokenUsageTransaction) error
	ListBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.TokenUsageTransaction, error)
}
