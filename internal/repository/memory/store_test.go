package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, store *Store, userId uuid.UUID) *entity.UserSession {
	t.Helper()
	session := &entity.UserSession{
		UserId:    userId,
		PlanId:    "basic",
		ModelName: "google/gemini-2.5-flash-lite",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.NewUnitOfWork(context.Background()).UserSessionRepository().Create(context.Background(), session))
	return session
}

func TestFindActiveOwnedFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	owner := uuid.New()
	session := newSession(t, store, owner)
	repo := store.NewUnitOfWork(ctx).UserSessionRepository()

	found, err := repo.FindActiveOwned(ctx, session.Id, owner)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entity.SessionStatusActive, found.Status)

	other, err := repo.FindActiveOwned(ctx, session.Id, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, other, "foreign owner must not see the session")

	require.NoError(t, repo.MarkExpired(ctx, session.Id))
	gone, err := repo.FindActiveOwned(ctx, session.Id, owner)
	require.NoError(t, err)
	assert.Nil(t, gone, "expired sessions are not active")
}

func TestIncrementTokensIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := newSession(t, store, uuid.New())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.NewUnitOfWork(ctx).UserSessionRepository().IncrementTokens(ctx, session.Id, 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, err := store.NewUnitOfWork(ctx).UserSessionRepository().IncrementTokens(ctx, session.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestIncrementTokensUnknownSession(t *testing.T) {
	ctx := context.Background()
	_, err := NewStore().NewUnitOfWork(ctx).UserSessionRepository().IncrementTokens(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestRollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := newSession(t, store, uuid.New())

	uow := store.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.UserSessionRepository().IncrementTokens(ctx, session.Id, 40)
	require.NoError(t, err)
	require.NoError(t, uow.UsageTransactionRepository().Create(ctx, &entity.TokenUsageTransaction{SessionId: session.Id, Tokens: 40}))
	require.NoError(t, uow.Rollback())

	found, err := store.NewUnitOfWork(ctx).UserSessionRepository().FindActiveOwned(ctx, session.Id, session.UserId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.TokensUsed)

	ledger, err := store.NewUnitOfWork(ctx).UsageTransactionRepository().ListBySession(ctx, session.Id)
	require.NoError(t, err)
	assert.Empty(t, ledger)

	assert.ErrorIs(t, uow.Commit(), unitofwork.ErrNoActiveTx)
}

func TestConversationListing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := uuid.New()
	uow := store.NewUnitOfWork(ctx)

	first := &entity.Conversation{UserId: user, Title: "first"}
	second := &entity.Conversation{UserId: user, Title: "second"}
	require.NoError(t, uow.ConversationRepository().Create(ctx, first))
	require.NoError(t, uow.ConversationRepository().Create(ctx, second))
	require.NoError(t, uow.ConversationRepository().Create(ctx, &entity.Conversation{UserId: uuid.New(), Title: "foreign"}))

	for _, content := range []string{"hi", "hello"} {
		require.NoError(t, uow.ChatMessageRepository().Create(ctx, &entity.ChatMessage{ConversationId: first.Id, Role: "user", Content: content}))
	}
	require.NoError(t, uow.ConversationRepository().Touch(ctx, first.Id))

	list, err := uow.ConversationRepository().ListWithCounts(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, int64(2), list[0].MessageCount)
	assert.Equal(t, int64(0), list[1].MessageCount)

	messages, err := uow.ChatMessageRepository().ListByConversation(ctx, first.Id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)

	require.NoError(t, uow.ChatMessageRepository().DeleteByConversation(ctx, first.Id))
	require.NoError(t, uow.ConversationRepository().Delete(ctx, first.Id))
	assert.ErrorIs(t, uow.ConversationRepository().Delete(ctx, first.Id), contract.ErrNotFound)
}

func TestSessionConfigUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().NewUnitOfWork(ctx).SessionConfigRepository()

	require.NoError(t, repo.Upsert(ctx, &entity.SessionConfig{PlanId: "basic", ModelName: "m", TokenLimitPerHour: 10}))
	require.NoError(t, repo.Upsert(ctx, &entity.SessionConfig{PlanId: "basic", ModelName: "m", TokenLimitPerHour: 20}))

	cfg, err := repo.FindByPlanModel(ctx, "basic", "m")
	require.NoError(t, err)
	assert.Equal(t, int64(20), cfg.TokenLimitPerHour)

	missing, err := repo.FindByPlanModel(ctx, "basic", "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTransactRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := newSession(t, store, uuid.New())
	boom := errors.New("boom")

	uow := store.NewUnitOfWork(ctx)
	err := unitofwork.Transact(ctx, uow, func() error {
		if _, err := uow.UserSessionRepository().IncrementTokens(ctx, session.Id, 25); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := store.NewUnitOfWork(ctx).UserSessionRepository().FindActiveOwned(ctx, session.Id, session.UserId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.TokensUsed)

	err = unitofwork.Transact(ctx, uow, func() error {
		_, err := uow.UserSessionRepository().IncrementTokens(ctx, session.Id, 25)
		return err
	})
	require.NoError(t, err)

	found, err = store.NewUnitOfWork(ctx).UserSessionRepository().FindActiveOwned(ctx, session.Id, session.UserId)
	require.NoError(t, err)
	assert.Equal(t, int64(25), found.TokensUsed)
}
