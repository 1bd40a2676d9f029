package implementation

import (
	"context"
	"errors"
	"fmt"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/mapper"
	"ai-chat-session-be/internal/model"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewUserSessionRepository(db *gorm.DB) contract.UserSessionRepository {
	return &UserSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *UserSessionRepositoryImpl) Create(ctx context.Context, session *entity.UserSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserSessionRepositoryImpl) FindActiveOwned(ctx context.Context, id, userId uuid.UUID) (*entity.UserSession, error) {
	return r.findOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: string(entity.SessionStatusActive)},
	)
}

func (r *UserSessionRepositoryImpl) FindLatestActive(ctx context.Context, userId uuid.UUID) (*entity.UserSession, error) {
	return r.findOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: string(entity.SessionStatusActive)},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

func (r *UserSessionRepositoryImpl) ListByUser(ctx context.Context, userId uuid.UUID) ([]*entity.UserSession, error) {
	var models []*model.UserSession
	query := specification.ApplyAll(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *UserSessionRepositoryImpl) MarkExpired(ctx context.Context, id uuid.UUID) error {
	// Conditional on the current state so a concurrent writer can never resurrect the row.
	return r.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("id = ? AND status = ?", id, string(entity.SessionStatusActive)).
		Update("status", string(entity.SessionStatusExpired)).Error
}

func (r *UserSessionRepositoryImpl) IncrementTokens(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var total []int64
	err := r.db.WithContext(ctx).Raw(`
		UPDATE user_sessions
		SET tokens_used = tokens_used + ?, updated_at = NOW()
		WHERE id = ?
		RETURNING tokens_used
	`, delta, id).Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("increment tokens: %w", err)
	}
	if len(total) == 0 {
		return 0, fmt.Errorf("increment tokens for session %s: %w", id, contract.ErrNotFound)
	}
	return total[0], nil
}

func (r *UserSessionRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.UserSession, error) {
	var m model.UserSession
	query := specification.ApplyAll(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
