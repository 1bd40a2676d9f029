package contract

import (
	"context"

	"ai-chat-session-be/internal/entity"

	"github.com/google/uuid"
)

type UserSessionRepository interface {
	Create(ctx context.Context, session *entity.UserSession) error
	// FindActiveOwned returns the session only if it matches id, owner and status=active.
	FindActiveOwned(ctx context.Context, id, userId uuid.UUID) (*entity.UserSession, error)
	FindLatestActive(ctx context.Context, userId uuid.UUID) (*entity.UserSession, error)
	ListByUser(ctx context.Context, userId uuid.UUID) ([]*entity.UserSession, error)
	// MarkExpired flips active -> expired. It never touches a row in any other state.
	MarkExpired(ctx context.Context, id uuid.UUID) error
	// IncrementTokens adds delta in a single statement and returns the new total.
	IncrementTokens(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}
