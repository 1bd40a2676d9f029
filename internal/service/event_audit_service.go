package service

import (
	"context"

	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/pkg/events"
	pktNats "ai-chat-session-be/pkg/nats"
)

// EventSubscriber is the part of pkg/nats.Subscriber the audit trail needs.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// EventAuditService writes every session event to the usage log, so billing
// disputes can be settled from one file.
type EventAuditService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewEventAuditService(subscriber EventSubscriber, logger logger.ILogger) *EventAuditService {
	return &EventAuditService{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (s *EventAuditService) Start() error {
	return s.subscriber.Subscribe(pktNats.SubjectPrefix+">", "session-audit", s.Handle)
}

func (s *EventAuditService) Handle(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["event_type"] = event.EventType()
	details["occurred_at"] = event.Timestamp()

	switch event.EventType() {
	case events.UsageReconcileFailed:
		details["priority"] = "anomaly"
		s.logger.Error("AUDIT", "Usage reconcile failed", details)
	case events.SessionExpired:
		s.logger.Info("AUDIT", "Session expired", details)
	default:
		s.logger.Info("AUDIT", "Session event", details)
	}
	return nil
}
