package unitofwork

import (
	"context"

	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type gormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *gormUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTxActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *gormUnitOfWork) Commit() error {
	if u.tx == nil {
		return ErrNoActiveTx
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *gormUnitOfWork) Rollback() error {
	if u.tx == nil {
		return ErrNoActiveTx
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *gormUnitOfWork) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.conn())
}

func (u *gormUnitOfWork) UserSessionRepository() contract.UserSessionRepository {
	return implementation.NewUserSessionRepository(u.conn())
}

func (u *gormUnitOfWork) SessionConfigRepository() contract.SessionConfigRepository {
	return implementation.NewSessionConfigRepository(u.conn())
}

func (u *gormUnitOfWork) UsageTransactionRepository() contract.UsageTransactionRepository {
	return implementation.NewUsageTransactionRepository(u.conn())
}

func (u *gormUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.conn())
}

func (u *gormUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return implementation.NewChatMessageRepository(u.conn())
}
