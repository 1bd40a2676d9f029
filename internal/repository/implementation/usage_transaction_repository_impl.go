package implementation

import (
	"context"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/mapper"
	"ai-chat-session-be/internal/model"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewUsageTransactionRepository(db *gorm.DB) contract.UsageTransactionRepository {
	return &UsageTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *UsageTransactionRepositoryImpl) Create(ctx context.Context, tx *entity.TokenUsageTransaction) error {
	m := r.mapper.UsageToModel(tx)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tx = *r.mapper.UsageToEntity(m)
	return nil
}

func (r *UsageTransactionRepositoryImpl) ListBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.TokenUsageTransaction, error) {
	var models []*model.TokenUsageTransaction
	query := specification.ApplyAll(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	txs := make([]*entity.TokenUsageTransaction, len(models))
	for i, m := range models {
		txs[i] = r.mapper.UsageToEntity(m)
	}
	return txs, nil
}
