// Package admission decides whether a chat turn may run against a purchased session.
package admission

import (
	"context"
	"time"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/metering"
	"ai-chat-session-be/pkg/metering/quota"

	"github.com/google/uuid"
)

// Admission is the context of an admitted turn.
type Admission struct {
	Session    *entity.UserSession
	TokenLimit int64
}

// Remaining is the budget left before the turn runs. It can be negative only after
// an overage that the next admission has not seen yet.
func (a *Admission) Remaining() int64 {
	return a.TokenLimit - a.Session.TokensUsed
}

type Gate struct {
	quota  *quota.Resolver
	logger logger.ILogger
	now    func() time.Time
}

func NewGate(resolver *quota.Resolver, logger logger.ILogger) *Gate {
	return &Gate{
		quota:  resolver,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the wall clock used for expiry checks.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Admit runs the checks in order and stops at the first failure:
// caller identity, active owned session, expiry, quota.
// The only write is the active -> expired flip when the window has closed.
func (g *Gate) Admit(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*Admission, error) {
	if userId == uuid.Nil {
		return nil, metering.New(metering.Unauthorized, nil)
	}

	session, err := uow.UserSessionRepository().FindActiveOwned(ctx, sessionId, userId)
	if err != nil {
		return nil, metering.New(metering.Unknown, err)
	}
	if session == nil {
		return nil, metering.New(metering.NoActiveSession, nil)
	}

	if session.ExpiredAt(g.now()) {
		if err := uow.UserSessionRepository().MarkExpired(ctx, session.Id); err != nil {
			g.logger.Error("ADMISSION", "Failed to persist session expiry", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			return nil, metering.New(metering.Unknown, err)
		}
		g.logger.Info("ADMISSION", "Session expired on use", map[string]interface{}{
			"session_id": session.Id.String(),
			"user_id":    userId.String(),
			"expires_at": session.ExpiresAt,
		})
		return nil, metering.New(metering.SessionExpired, nil)
	}

	budget, err := g.quota.Resolve(ctx, uow, session.PlanId, session.ModelName)
	if err != nil {
		return nil, metering.New(metering.Unknown, err)
	}
	if session.TokensUsed >= budget {
		e := metering.New(metering.QuotaExceeded, nil)
		e.Used, e.Limit = session.TokensUsed, budget
		return nil, e
	}

	return &Admission{Session: session, TokenLimit: budget}, nil
}
