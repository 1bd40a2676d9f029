package mapper

import (
	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.UserSession) *entity.UserSession {
	if s == nil {
		return nil
	}
	return &entity.UserSession{
		Id:             s.Id,
		UserId:         s.UserId,
		PlanId:         s.PlanId,
		ModelName:      s.ModelName,
		HoursPurchased: s.HoursPurchased,
		PricePaid:      s.PricePaid,
		ExpiresAt:      s.ExpiresAt,
		Status:         entity.SessionStatus(s.Status),
		TokensUsed:     s.TokensUsed,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.UserSession) *model.UserSession {
	if s == nil {
		return nil
	}
	return &model.UserSession{
		Id:             s.Id,
		UserId:         s.UserId,
		PlanId:         s.PlanId,
		ModelName:      s.ModelName,
		HoursPurchased: s.HoursPurchased,
		PricePaid:      s.PricePaid,
		ExpiresAt:      s.ExpiresAt,
		Status:         string(s.Status),
		TokensUsed:     s.TokensUsed,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.UserSession) []*entity.UserSession {
	entities := make([]*entity.UserSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

// Quota policy

func (m *SessionMapper) ConfigToEntity(c *model.SessionConfig) *entity.SessionConfig {
	if c == nil {
		return nil
	}
	return &entity.SessionConfig{
		Id:                c.Id,
		PlanId:            c.PlanId,
		ModelName:         c.ModelName,
		TokenLimitPerHour: c.TokenLimitPerHour,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func (m *SessionMapper) ConfigToModel(c *entity.SessionConfig) *model.SessionConfig {
	if c == nil {
		return nil
	}
	return &model.SessionConfig{
		Id:                c.Id,
		PlanId:            c.PlanId,
		ModelName:         c.ModelName,
		TokenLimitPerHour: c.TokenLimitPerHour,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// Usage ledger

func (m *SessionMapper) UsageToModel(t *entity.TokenUsageTransaction) *model.TokenUsageTransaction {
	if t == nil {
		return nil
	}
	return &model.TokenUsageTransaction{
		Id:        t.Id,
		SessionId: t.SessionId,
		UserId:    t.UserId,
		ModelName: t.ModelName,
		Tokens:    t.Tokens,
		CreatedAt: t.CreatedAt,
	}
}

func (m *SessionMapper) UsageToEntity(t *model.TokenUsageTransaction) *entity.TokenUsageTransaction {
	if t == nil {
		return nil
	}
	return &entity.TokenUsageTransaction{
		Id:        t.Id,
		SessionId: t.SessionId,
		UserId:    t.UserId,
		ModelName: t.ModelName,
		Tokens:    t.Tokens,
		CreatedAt: t.CreatedAt,
	}
}
