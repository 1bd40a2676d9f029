package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/metering/usage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryMessage(t *testing.T, payload dto.UsageRetryMessage) *message.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), data)
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func newConsumer(factory unitofwork.RepositoryFactory, requeue IPublisherService, maxAttempts int) *consumerService {
	return NewConsumerService(nil, requeue, "usage.test", factory, usage.NewReconciler(nopLogger()), maxAttempts, 0, nopLogger()).(*consumerService)
}

func TestRetryConsumerAppliesIncrement(t *testing.T) {
	store := memory.NewStore()
	owner := uuid.New()
	session := seedSession(t, store, owner, 100, time.Now().Add(time.Hour))
	requeue := &recordingRetry{}

	cs := newConsumer(store, requeue, 5)
	msg := retryMessage(t, dto.UsageRetryMessage{SessionId: session.Id, UserId: owner, ModelName: session.ModelName, Tokens: 40, Attempt: 1})
	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, requeue.messages)
	assert.EqualValues(t, 140, loadSession(t, store, owner, session.Id).TokensUsed)

	ledger, err := store.NewUnitOfWork(context.Background()).UsageTransactionRepository().ListBySession(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestRetryConsumerBoundsAttempts(t *testing.T) {
	tests := []struct {
		name        string
		attempt     int
		wantRequeue bool
	}{
		{name: "requeues with next attempt", attempt: 1, wantRequeue: true},
		{name: "gives up at the limit", attempt: 2, wantRequeue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			owner := uuid.New()
			session := seedSession(t, store, owner, 0, time.Now().Add(time.Hour))
			requeue := &recordingRetry{}

			cs := newConsumer(failingIncrementFactory{inner: store}, requeue, 3)
			msg := retryMessage(t, dto.UsageRetryMessage{SessionId: session.Id, UserId: owner, Tokens: 10, Attempt: tt.attempt})
			cs.processMessage(context.Background(), msg)

			assert.True(t, acked(msg))
			if tt.wantRequeue {
				require.Len(t, requeue.messages, 1)
				assert.Equal(t, tt.attempt+1, requeue.messages[0].Attempt)
				assert.EqualValues(t, 10, requeue.messages[0].Tokens)
			} else {
				assert.Empty(t, requeue.messages)
			}
		})
	}
}

func TestRetryConsumerAcksGarbage(t *testing.T) {
	cs := newConsumer(memory.NewStore(), &recordingRetry{}, 3)
	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)
	assert.True(t, acked(msg))
}

func TestRetryRoundTripOverGoChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	store := memory.NewStore()
	owner := uuid.New()
	session := seedSession(t, store, owner, 5, time.Now().Add(time.Hour))

	publisher := NewPublisherService("usage.reconcile.retry", pubSub)
	consumer := NewConsumerService(pubSub, publisher, "usage.reconcile.retry", store, usage.NewReconciler(nopLogger()), 3, 0, nopLogger())
	require.NoError(t, consumer.Consume(ctx))

	require.NoError(t, publisher.PublishUsageRetry(ctx, dto.UsageRetryMessage{
		SessionId: session.Id, UserId: owner, Tokens: 20, Attempt: 1,
	}))

	assert.Eventually(t, func() bool {
		return loadSession(t, store, owner, session.Id).TokensUsed == 25
	}, 2*time.Second, 10*time.Millisecond)
}
