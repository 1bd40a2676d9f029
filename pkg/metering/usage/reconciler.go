// Package usage folds upstream token consumption into a session's running total.
package usage

import (
	"context"
	"fmt"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/metering"
	"ai-chat-session-be/pkg/metering/admission"

	"github.com/google/uuid"
)

// Usage is the post-turn state returned to the caller.
type Usage struct {
	TokensUsed int64
	TokenLimit int64
}

// Entry is one consumption record. It is also the payload of a reconcile retry.
type Entry struct {
	SessionId uuid.UUID `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	ModelName string    `json:"model_name"`
	Tokens    int64     `json:"tokens"`
}

type Reconciler struct {
	logger logger.ILogger
}

func NewReconciler(logger logger.ILogger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile runs after every successful completion, even when the new total passes
// the budget. Overage is only enforced by the next admission.
func (r *Reconciler) Reconcile(ctx context.Context, uow unitofwork.UnitOfWork, adm *admission.Admission, consumed int64) (*Usage, error) {
	entry := EntryFor(adm, consumed)
	total, err := r.Apply(ctx, uow, entry)
	if err != nil {
		return nil, err
	}

	if total > adm.TokenLimit {
		r.logger.Info("USAGE", "Session passed its budget on this turn", map[string]interface{}{
			"session_id":  entry.SessionId.String(),
			"tokens_used": total,
			"token_limit": adm.TokenLimit,
		})
	}
	return &Usage{TokensUsed: total, TokenLimit: adm.TokenLimit}, nil
}

// EntryFor builds the consumption record of a turn. Negative consumption is treated as 0.
func EntryFor(adm *admission.Admission, consumed int64) Entry {
	if consumed < 0 {
		consumed = 0
	}
	return Entry{
		SessionId: adm.Session.Id,
		UserId:    adm.Session.UserId,
		ModelName: adm.Session.ModelName,
		Tokens:    consumed,
	}
}

// Apply increments tokens_used and writes the ledger row in one transaction.
func (r *Reconciler) Apply(ctx context.Context, uow unitofwork.UnitOfWork, entry Entry) (int64, error) {
	if entry.Tokens < 0 {
		entry.Tokens = 0
	}

	if err := uow.Begin(ctx); err != nil {
		return 0, metering.New(metering.Unknown, fmt.Errorf("begin reconcile: %w", err))
	}

	total, err := uow.UserSessionRepository().IncrementTokens(ctx, entry.SessionId, entry.Tokens)
	if err != nil {
		uow.Rollback()
		return 0, metering.New(metering.Unknown, err)
	}

	if entry.Tokens > 0 {
		err = uow.UsageTransactionRepository().Create(ctx, &entity.TokenUsageTransaction{
			SessionId: entry.SessionId,
			UserId:    entry.UserId,
			ModelName: entry.ModelName,
			Tokens:    entry.Tokens,
		})
		if err != nil {
			uow.Rollback()
			return 0, metering.New(metering.Unknown, fmt.Errorf("record usage: %w", err))
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, metering.New(metering.Unknown, fmt.Errorf("commit reconcile: %w", err))
	}
	return total, nil
}
