package dto

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseSessionRequest struct {
	PlanId string `json:"plan_id" validate:"required"`
	Hours  int    `json:"hours" validate:"required,min=1,max=4"`
}

type SessionResponse struct {
	Id               uuid.UUID `json:"id"`
	PlanId           string    `json:"plan_id"`
	ModelName        string    `json:"model_name"`
	HoursPurchased   int       `json:"hours_purchased"`
	PricePaid        float64   `json:"price_paid"`
	Status           string    `json:"status"`
	TokensUsed       int64     `json:"tokens_used"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	TokenLimit       *int64    `json:"token_limit,omitempty"`
	RemainingSeconds *int64    `json:"remaining_seconds,omitempty"`
}
