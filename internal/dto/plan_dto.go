package dto

type PlanPriceDTO struct {
	Hours int     `json:"hours"`
	Price float64 `json:"price"`
}

type PlanResponse struct {
	Id                string         `json:"id"`
	Name              string         `json:"name"`
	ModelName         string         `json:"model_name"`
	DisplayModel      string         `json:"display_model"`
	Prices            []PlanPriceDTO `json:"prices"`
	TokenLimitPerHour int64          `json:"token_limit_per_hour"`
}
