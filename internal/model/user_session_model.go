package model

import (
	"time"

	"github.com/google/uuid"
)

type UserSession struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;index:idx_user_sessions_owner_status"`
	PlanId         string    `gorm:"type:varchar(50);not null"`
	ModelName      string    `gorm:"type:varchar(100);not null"`
	HoursPurchased int       `gorm:"not null"`
	PricePaid      float64   `gorm:"type:numeric(10,2);not null"`
	ExpiresAt      time.Time `gorm:"not null"`
	Status         string    `gorm:"type:session_status;not null;default:'active';index:idx_user_sessions_owner_status"`
	TokensUsed     int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
