package specification

import (
	"gorm.io/gorm"
)

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByPlanModel selects the quota policy row of a (plan, model) pair.
type ByPlanModel struct {
	PlanID    string
	ModelName string
}

func (s ByPlanModel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("plan_id = ? AND model_name = ?", s.PlanID, s.ModelName)
}
