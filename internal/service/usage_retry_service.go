package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/metering/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	PublishUsageRetry(ctx context.Context, msg dto.UsageRetryMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (s *publisherService) PublishUsageRetry(ctx context.Context, payload dto.UsageRetryMessage) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return s.publisher.Publish(s.topicName, msg)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService re-applies usage increments that failed after a completed turn.
// A message is attempted at most maxAttempts times, counting the original write.
type consumerService struct {
	subscriber  message.Subscriber
	publisher   IPublisherService
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	reconciler  *usage.Reconciler
	maxAttempts int
	backoff     time.Duration
	logger      logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	publisher IPublisherService,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	reconciler *usage.Reconciler,
	maxAttempts int,
	backoff time.Duration,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		publisher:   publisher,
		topicName:   topicName,
		uowFactory:  uowFactory,
		reconciler:  reconciler,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.UsageRetryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("USAGE", "Dropping undecodable usage retry", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	// Linear backoff: attempt n waits n*backoff.
	if wait := time.Duration(payload.Attempt) * cs.backoff; wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			msg.Nack()
			return
		}
	}

	details := map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"user_id":    payload.UserId.String(),
		"tokens":     payload.Tokens,
		"attempt":    payload.Attempt,
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	total, err := cs.reconciler.Apply(ctx, uow, usage.Entry{
		SessionId: payload.SessionId,
		UserId:    payload.UserId,
		ModelName: payload.ModelName,
		Tokens:    payload.Tokens,
	})
	if err == nil {
		details["tokens_used"] = total
		cs.logger.Info("USAGE", "Usage retry applied", details)
		msg.Ack()
		return
	}

	details["error"] = err.Error()
	details["priority"] = "anomaly"

	next := payload
	next.Attempt++
	if next.Attempt >= cs.maxAttempts {
		cs.logger.Error("USAGE", "Giving up on usage retry, tokens are unaccounted", details)
		msg.Ack()
		return
	}

	if err := cs.publisher.PublishUsageRetry(ctx, next); err != nil {
		details["publish_error"] = err.Error()
		cs.logger.Error("USAGE", "Failed to requeue usage retry", details)
		msg.Nack()
		return
	}
	cs.logger.Warn("USAGE", "Usage retry failed, requeued", details)
	msg.Ack()
}
