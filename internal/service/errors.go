package service

import "errors"

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrInvalidHours         = errors.New("hours must be between 1 and 4")
	ErrSessionNotFound      = errors.New("session not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
