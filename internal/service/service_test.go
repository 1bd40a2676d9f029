package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/events"
	"ai-chat-session-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Shared fakes for the service tests.

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	models []string
	chatFn func(ctx context.Context, history []llm.Message) (*llm.Completion, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	opts := llm.ApplyOptions(options...)
	p.mu.Lock()
	p.calls++
	p.models = append(p.models, opts.Model)
	p.mu.Unlock()
	return p.chatFn(ctx, history)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func replyWith(content string, tokens int64) func(context.Context, []llm.Message) (*llm.Completion, error) {
	return func(context.Context, []llm.Message) (*llm.Completion, error) {
		return &llm.Completion{Content: content, Usage: llm.Usage{TotalTokens: tokens}}, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingRetry struct {
	mu       sync.Mutex
	messages []dto.UsageRetryMessage
	err      error
}

func (r *recordingRetry) PublishUsageRetry(ctx context.Context, msg dto.UsageRetryMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []dto.UsageEvent
}

func (n *recordingNotifier) NotifyUsage(ctx context.Context, event dto.UsageEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// failingIncrementFactory hands out units of work whose usage write always fails.
type failingIncrementFactory struct {
	inner unitofwork.RepositoryFactory
}

func (f failingIncrementFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingIncrementUow{f.inner.NewUnitOfWork(ctx)}
}

type failingIncrementUow struct {
	unitofwork.UnitOfWork
}

func (u failingIncrementUow) UserSessionRepository() contract.UserSessionRepository {
	return failingSessions{u.UnitOfWork.UserSessionRepository()}
}

type failingSessions struct {
	contract.UserSessionRepository
}

func (failingSessions) IncrementTokens(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	return 0, errors.New("connection reset by peer")
}

func seedConfig(t *testing.T, store *memory.Store, planId, model string, limit int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.NewUnitOfWork(ctx).SessionConfigRepository().Upsert(ctx, &entity.SessionConfig{
		PlanId: planId, ModelName: model, TokenLimitPerHour: limit,
	}))
}

func seedSession(t *testing.T, store *memory.Store, owner uuid.UUID, used int64, expiresAt time.Time) *entity.UserSession {
	t.Helper()
	ctx := context.Background()
	s := &entity.UserSession{
		UserId:         owner,
		PlanId:         "basic",
		ModelName:      "google/gemini-2.5-flash-lite",
		HoursPurchased: 1,
		ExpiresAt:      expiresAt,
		TokensUsed:     used,
	}
	require.NoError(t, store.NewUnitOfWork(ctx).UserSessionRepository().Create(ctx, s))
	return s
}

func loadSession(t *testing.T, store *memory.Store, owner, id uuid.UUID) *entity.UserSession {
	t.Helper()
	sessions, err := store.NewUnitOfWork(context.Background()).UserSessionRepository().ListByUser(context.Background(), owner)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.Id == id {
			return s
		}
	}
	t.Fatalf("session %s not found", id)
	return nil
}

func nopLogger() logger.ILogger {
	return logger.NewNopLogger()
}
