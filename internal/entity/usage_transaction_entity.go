package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenUsageTransaction records the consumption of one reconciled chat turn.
type TokenUsageTransaction struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	UserId    uuid.UUID
	ModelName string
	Tokens    int64
	CreatedAt time.Time
}
