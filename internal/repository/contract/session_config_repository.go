package contract

import (
	"context"

	"ai-chat-session-be/internal/entity"
)

type SessionConfigRepository interface {
	FindByPlanModel(ctx context.Context, planId, modelName string) (*entity.SessionConfig, error)
	FindAll(ctx context.Context) ([]*entity.SessionConfig, error)
	Upsert(ctx context.Context, config *entity.SessionConfig) error
}
