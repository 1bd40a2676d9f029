package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionConfig is one quota policy row keyed by (plan, model).
type SessionConfig struct {
	Id                uuid.UUID
	PlanId            string
	ModelName         string
	TokenLimitPerHour int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
