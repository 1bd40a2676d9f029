package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionConfig struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlanId            string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_session_config_plan_model"`
	ModelName         string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_session_config_plan_model"`
	TokenLimitPerHour int64     `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (SessionConfig) TableName() string {
	return "session_config"
}
