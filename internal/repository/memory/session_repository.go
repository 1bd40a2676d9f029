package memory

import (
	"context"
	"fmt"
	"sort"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/repository/contract"

	"github.com/google/uuid"
)

type userSessionRepository struct {
	uow *unitOfWork
}

func (r *userSessionRepository) Create(ctx context.Context, session *entity.UserSession) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if _, exists := s.sessions[session.Id]; exists {
		return fmt.Errorf("session %s already exists", session.Id)
	}
	if session.Status == "" {
		session.Status = entity.SessionStatusActive
	}
	now := s.now()
	session.CreatedAt, session.UpdatedAt = now, now

	row := *session
	s.sessions[row.Id] = &row
	r.uow.record(func() { delete(s.sessions, row.Id) })
	return nil
}

func (r *userSessionRepository) FindActiveOwned(ctx context.Context, id, userId uuid.UUID) (*entity.UserSession, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok || row.UserId != userId || row.Status != entity.SessionStatusActive {
		return nil, nil
	}
	out := *row
	return &out, nil
}

func (r *userSessionRepository) FindLatestActive(ctx context.Context, userId uuid.UUID) (*entity.UserSession, error) {
	sessions, err := r.ListByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.Status == entity.SessionStatusActive {
			return session, nil
		}
	}
	return nil, nil
}

func (r *userSessionRepository) ListByUser(ctx context.Context, userId uuid.UUID) ([]*entity.UserSession, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.UserSession
	for _, row := range s.sessions {
		if row.UserId == userId {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *userSessionRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok || row.Status != entity.SessionStatusActive {
		return nil
	}
	prev := row.Status
	row.Status = entity.SessionStatusExpired
	row.UpdatedAt = s.now()
	r.uow.record(func() { row.Status = prev })
	return nil
}

func (r *userSessionRepository) IncrementTokens(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok {
		return 0, fmt.Errorf("increment tokens for session %s: %w", id, contract.ErrNotFound)
	}
	row.TokensUsed += delta
	row.UpdatedAt = s.now()
	r.uow.record(func() { row.TokensUsed -= delta })
	return row.TokensUsed, nil
}

type sessionConfigRepository struct {
	uow *unitOfWork
}

func (r *sessionConfigRepository) FindByPlanModel(ctx context.Context, planId, modelName string) (*entity.SessionConfig, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.configs[configKey(planId, modelName)]
	if !ok {
		return nil, nil
	}
	out := *row
	return &out, nil
}

func (r *sessionConfigRepository) FindAll(ctx context.Context) ([]*entity.SessionConfig, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.SessionConfig, 0, len(s.configs))
	for _, row := range s.configs {
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanId < out[j].PlanId })
	return out, nil
}

func (r *sessionConfigRepository) Upsert(ctx context.Context, config *entity.SessionConfig) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := configKey(config.PlanId, config.ModelName)
	now := s.now()
	if existing, ok := s.configs[key]; ok {
		prev := *existing
		existing.TokenLimitPerHour = config.TokenLimitPerHour
		existing.UpdatedAt = now
		*config = *existing
		r.uow.record(func() { *existing = prev })
		return nil
	}

	if config.Id == uuid.Nil {
		config.Id = uuid.New()
	}
	config.CreatedAt, config.UpdatedAt = now, now
	row := *config
	s.configs[key] = &row
	r.uow.record(func() { delete(s.configs, key) })
	return nil
}

type usageTransactionRepository struct {
	uow *unitOfWork
}

func (r *usageTransactionRepository) Create(ctx context.Context, tx *entity.TokenUsageTransaction) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Id == uuid.Nil {
		tx.Id = uuid.New()
	}
	tx.CreatedAt = s.now()
	row := *tx
	s.usage = append(s.usage, &row)
	r.uow.record(func() {
		for i, existing := range s.usage {
			if existing.Id == row.Id {
				s.usage = append(s.usage[:i], s.usage[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *usageTransactionRepository) ListBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.TokenUsageTransaction, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.TokenUsageTransaction
	for _, row := range s.usage {
		if row.SessionId == sessionId {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}
