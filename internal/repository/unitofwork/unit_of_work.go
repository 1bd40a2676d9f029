package unitofwork

import (
	"context"
	"errors"

	"ai-chat-session-be/internal/repository/contract"
)

var (
	ErrTxActive   = errors.New("transaction already started")
	ErrNoActiveTx = errors.New("no active transaction")
)

// UnitOfWork groups the repositories of one operation. Between Begin and
// Commit/Rollback every repository it returns writes in the same transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	UserSessionRepository() contract.UserSessionRepository
	SessionConfigRepository() contract.SessionConfigRepository
	UsageTransactionRepository() contract.UsageTransactionRepository
	ConversationRepository() contract.ConversationRepository
	ChatMessageRepository() contract.ChatMessageRepository
}

// Transact runs fn inside a transaction on uow and commits when fn returns nil.
func Transact(ctx context.Context, uow UnitOfWork, fn func() error) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return uow.Commit()
}
