package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenUsageTransaction struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	ModelName string    `gorm:"type:varchar(100);not null"`
	Tokens    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"default:now();not null"`
}

func (TokenUsageTransaction) TableName() string {
	return "token_usage_transactions"
}
