package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/pkg/metering"
	"ai-chat-session-be/pkg/metering/admission"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *memory.Store, used int64) *admission.Admission {
	t.Helper()
	s := &entity.UserSession{
		UserId:     uuid.New(),
		PlanId:     "basic",
		ModelName:  "flash",
		ExpiresAt:  time.Now().Add(time.Hour),
		TokensUsed: used,
	}
	require.NoError(t, store.NewUnitOfWork(context.Background()).UserSessionRepository().Create(context.Background(), s))
	return &admission.Admission{Session: s, TokenLimit: 1000}
}

func ledger(t *testing.T, store *memory.Store, id uuid.UUID) []*entity.TokenUsageTransaction {
	t.Helper()
	rows, err := store.NewUnitOfWork(context.Background()).UsageTransactionRepository().ListBySession(context.Background(), id)
	require.NoError(t, err)
	return rows
}

func TestReconcileIsAdditive(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		turns []int64
		want  int64
	}{
		{name: "two turns", start: 100, turns: []int64{30, 70}, want: 200},
		{name: "order independent", start: 100, turns: []int64{70, 30}, want: 200},
		{name: "zero consumption", start: 5, turns: []int64{0}, want: 5},
		{name: "negative clamps to zero", start: 5, turns: []int64{-40}, want: 5},
		{name: "passes budget", start: 950, turns: []int64{100}, want: 1050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			adm := seed(t, store, tt.start)
			r := NewReconciler(logger.NewNopLogger())

			var last *Usage
			for _, n := range tt.turns {
				u, err := r.Reconcile(context.Background(), store.NewUnitOfWork(context.Background()), adm, n)
				require.NoError(t, err)
				last = u
			}
			assert.Equal(t, tt.want, last.TokensUsed)
			assert.Equal(t, int64(1000), last.TokenLimit)
		})
	}
}

func TestReconcileWritesLedgerOnlyForConsumption(t *testing.T) {
	store := memory.NewStore()
	adm := seed(t, store, 0)
	r := NewReconciler(logger.NewNopLogger())

	_, err := r.Reconcile(context.Background(), store.NewUnitOfWork(context.Background()), adm, 0)
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), store.NewUnitOfWork(context.Background()), adm, 42)
	require.NoError(t, err)

	rows := ledger(t, store, adm.Session.Id)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].Tokens)
	assert.Equal(t, "flash", rows[0].ModelName)
	assert.Equal(t, adm.Session.UserId, rows[0].UserId)
}

type failingLedger struct{}

func (failingLedger) Create(ctx context.Context, tx *entity.TokenUsageTransaction) error {
	return errors.New("ledger unavailable")
}

func (failingLedger) ListBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.TokenUsageTransaction, error) {
	return nil, nil
}

type ledgerlessUow struct {
	unitofwork.UnitOfWork
}

func (ledgerlessUow) UsageTransactionRepository() contract.UsageTransactionRepository {
	return failingLedger{}
}

func TestReconcileRollsBackOnLedgerFailure(t *testing.T) {
	store := memory.NewStore()
	adm := seed(t, store, 10)
	r := NewReconciler(logger.NewNopLogger())

	_, err := r.Reconcile(context.Background(), ledgerlessUow{store.NewUnitOfWork(context.Background())}, adm, 25)
	assert.Equal(t, metering.Unknown, metering.KindOf(err))

	total, err := r.Apply(context.Background(), store.NewUnitOfWork(context.Background()), Entry{SessionId: adm.Session.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total, "increment must be rolled back with the ledger write")
}

func TestApplyUnknownSession(t *testing.T) {
	store := memory.NewStore()
	_, err := NewReconciler(logger.NewNopLogger()).Apply(context.Background(), store.NewUnitOfWork(context.Background()), Entry{SessionId: uuid.New(), Tokens: 3})
	assert.ErrorIs(t, err, contract.ErrNotFound)
}
