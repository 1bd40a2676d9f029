package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusExpired SessionStatus = "expired"
)

// UserSession is one purchased access window. Status only ever moves active -> expired.
type UserSession struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	PlanId         string
	ModelName      string
	HoursPurchased int
	PricePaid      float64
	ExpiresAt      time.Time
	Status         SessionStatus
	TokensUsed     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExpiredAt reports whether the window has closed at the given instant.
func (s *UserSession) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RemainingAt is the time left in the window, never negative.
func (s *UserSession) RemainingAt(now time.Time) time.Duration {
	if s.ExpiredAt(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
