package service

import "ai-chat-session-be/internal/entity"

// DefaultPlans is the purchasable catalog. Prices are keyed by hours (1..4).
// DefaultTokenLimit only seeds session_config; the gate always reads the table.
func DefaultPlans() []entity.Plan {
	return []entity.Plan{
		{
			Id:                "basic",
			Name:              "Basic",
			ModelName:         "google/gemini-2.5-flash-lite",
			DisplayModel:      "Gemini 2.5 Flash Lite",
			Prices:            map[int]float64{1: 10, 2: 18, 3: 24, 4: 30},
			DefaultTokenLimit: 50000,
		},
		{
			Id:                "standard",
			Name:              "Standard",
			ModelName:         "google/gemini-2.5-flash",
			DisplayModel:      "Gemini 2.5 Flash",
			Prices:            map[int]float64{1: 25, 2: 45, 3: 60, 4: 75},
			DefaultTokenLimit: 100000,
		},
		{
			Id:                "pro",
			Name:              "Pro",
			ModelName:         "google/gemini-2.5-pro",
			DisplayModel:      "Gemini 2.5 Pro",
			Prices:            map[int]float64{1: 30, 2: 55, 3: 75, 4: 95},
			DefaultTokenLimit: 200000,
		},
	}
}

// FindPlan looks a plan up by id in the default catalog.
func FindPlan(id string) (entity.Plan, bool) {
	for _, p := range DefaultPlans() {
		if p.Id == id {
			return p, true
		}
	}
	return entity.Plan{}, false
}
