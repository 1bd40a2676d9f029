package nats

import (
	"context"
	"testing"
	"time"

	"ai-chat-session-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKeepsTypeAndTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := events.BaseEvent{
		Type:       events.TokensConsumed,
		Data:       map[string]interface{}{"session_id": "abc", "tokens": 42},
		OccurredAt: at,
	}

	data, err := encode(evt)
	require.NoError(t, err)

	got, err := decode(Subject(evt.Type), data)
	require.NoError(t, err)

	assert.Equal(t, events.TokensConsumed, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "abc", got.Payload()["session_id"])
	assert.EqualValues(t, 42, got.Payload()["tokens"])
	assert.NotContains(t, got.Payload(), "occurred_at")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode("events.X", []byte("not json"))
	assert.Error(t, err)
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), events.New(events.SessionExpired, nil)))
	p.Close()
}
