package implementation

import (
	"context"
	"errors"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/mapper"
	"ai-chat-session-be/internal/model"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionConfigRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionConfigRepository(db *gorm.DB) contract.SessionConfigRepository {
	return &SessionConfigRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionConfigRepositoryImpl) FindByPlanModel(ctx context.Context, planId, modelName string) (*entity.SessionConfig, error) {
	var m model.SessionConfig
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.ByPlanModel{PlanID: planId, ModelName: modelName})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ConfigToEntity(&m), nil
}

func (r *SessionConfigRepositoryImpl) FindAll(ctx context.Context) ([]*entity.SessionConfig, error) {
	var models []*model.SessionConfig
	query := specification.ApplyAll(r.db.WithContext(ctx), specification.OrderBy{Field: "plan_id"})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	configs := make([]*entity.SessionConfig, len(models))
	for i, m := range models {
		configs[i] = r.mapper.ConfigToEntity(m)
	}
	return configs, nil
}

func (r *SessionConfigRepositoryImpl) Upsert(ctx context.Context, config *entity.SessionConfig) error {
	m := r.mapper.ConfigToModel(config)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "model_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_limit_per_hour", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*config = *r.mapper.ConfigToEntity(m)
	return nil
}
