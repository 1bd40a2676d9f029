package events

import (
	"context"

	"ai-chat-session-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// SessionEvents emits the session lifecycle and usage events.
// Publish failures are logged and never returned: events are best effort.
type SessionEvents struct {
	publisher Publisher
	logger    logger.ILogger
}

// NewSessionEvents accepts a nil publisher, in which case every call is a no-op.
func NewSessionEvents(publisher Publisher, logger logger.ILogger) *SessionEvents {
	return &SessionEvents{publisher: publisher, logger: logger}
}

func (s *SessionEvents) publish(ctx context.Context, evt BaseEvent) {
	if s == nil || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *SessionEvents) SessionPurchased(ctx context.Context, sessionId, userId uuid.UUID, planId, modelName string, hours int, price float64) {
	s.publish(ctx, New(SessionPurchased, map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
		"plan_id":    planId,
		"model_name": modelName,
		"hours":      hours,
		"price_paid": price,
	}))
}

func (s *SessionEvents) SessionExpired(ctx context.Context, sessionId, userId uuid.UUID) {
	s.publish(ctx, New(SessionExpired, map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
	}))
}

func (s *SessionEvents) TokensConsumed(ctx context.Context, sessionId, userId uuid.UUID, modelName string, tokens, tokensUsed, tokenLimit int64) {
	s.publish(ctx, New(TokensConsumed, map[string]interface{}{
		"session_id":  sessionId.String(),
		"user_id":     userId.String(),
		"model_name":  modelName,
		"tokens":      tokens,
		"tokens_used": tokensUsed,
		"token_limit": tokenLimit,
	}))
}

func (s *SessionEvents) UsageReconcileFailed(ctx context.Context, sessionId, userId uuid.UUID, tokens int64, reason string) {
	s.publish(ctx, New(UsageReconcileFailed, map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
		"tokens":     tokens,
		"reason":     reason,
	}))
}
