package admission

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
	"ai-chat-session-be/pkg/metering/quota"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	gate  *Gate
	owner uuid.UUID
}

func newFixture(t *testing.T, budget int64) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	if budget >= 0 {
		require.NoError(t, store.NewUnitOfWork(ctx).SessionConfigRepository().Upsert(ctx, &entity.SessionConfig{
			PlanId: "basic", ModelName: "flash", TokenLimitPerHour: budget,
		}))
	}
	gate := NewGate(quota.NewResolver(0, logger.NewNopLogger()), logger.NewNopLogger()).WithClock(func() time.Time { return now })
	return &fixture{store: store, gate: gate, owner: uuid.New()}
}

func (f *fixture) session(t *testing.T, used int64, expiresAt time.Time) *entity.UserSession {
	t.Helper()
	s := &entity.UserSession{
		UserId:     f.owner,
		PlanId:     "basic",
		ModelName:  "flash",
		ExpiresAt:  expiresAt,
		TokensUsed: used,
	}
	require.NoError(t, f.store.NewUnitOfWork(context.Background()).UserSessionRepository().Create(context.Background(), s))
	return s
}

func (f *fixture) status(t *testing.T, id uuid.UUID) entity.SessionStatus {
	t.Helper()
	sessions, err := f.store.NewUnitOfWork(context.Background()).UserSessionRepository().ListByUser(context.Background(), f.owner)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.Id == id {
			return s.Status
		}
	}
	t.Fatalf("session %s not found", id)
	return ""
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name      string
		budget    int64
		used      int64
		expiresAt time.Time
		caller    func(f *fixture) uuid.UUID
		wantKind  metering.Kind
		admitted  bool
	}{
		{name: "active under budget", budget: 1000, used: 950, expiresAt: now.Add(time.Minute), admitted: true},
		{name: "exactly at budget", budget: 1000, used: 1000, expiresAt: now.Add(time.Minute), wantKind: metering.QuotaExceeded},
		{name: "over budget", budget: 1000, used: 1050, expiresAt: now.Add(time.Minute), wantKind: metering.QuotaExceeded},
		{name: "unconfigured policy", budget: -1, used: 0, expiresAt: now.Add(time.Minute), wantKind: metering.QuotaExceeded},
		{name: "expires exactly now", budget: 1000, used: 0, expiresAt: now, wantKind: metering.SessionExpired},
		{name: "expired and exhausted reports expiry", budget: 1000, used: 5000, expiresAt: now.Add(-time.Second), wantKind: metering.SessionExpired},
		{name: "foreign caller", budget: 1000, expiresAt: now.Add(time.Minute), caller: func(*fixture) uuid.UUID { return uuid.New() }, wantKind: metering.NoActiveSession},
		{name: "anonymous caller", budget: 1000, expiresAt: now.Add(time.Minute), caller: func(*fixture) uuid.UUID { return uuid.Nil }, wantKind: metering.Unauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.budget)
			s := f.session(t, tt.used, tt.expiresAt)
			caller := f.owner
			if tt.caller != nil {
				caller = tt.caller(f)
			}

			adm, err := f.gate.Admit(context.Background(), f.store.NewUnitOfWork(context.Background()), caller, s.Id)
			if tt.admitted {
				require.NoError(t, err)
				assert.Equal(t, s.Id, adm.Session.Id)
				assert.Equal(t, tt.used, adm.Session.TokensUsed)
				assert.Equal(t, tt.budget, adm.TokenLimit)
				assert.Equal(t, tt.budget-tt.used, adm.Remaining())
				assert.Equal(t, entity.SessionStatusActive, f.status(t, s.Id))
				return
			}
			assert.Nil(t, adm)
			assert.Equal(t, tt.wantKind, metering.KindOf(err))
		})
	}
}

func TestAdmitUnknownSession(t *testing.T) {
	f := newFixture(t, 1000)
	_, err := f.gate.Admit(context.Background(), f.store.NewUnitOfWork(context.Background()), f.owner, uuid.New())
	assert.Equal(t, metering.NoActiveSession, metering.KindOf(err))
}

func TestAdmitQuotaCarriesUsage(t *testing.T) {
	f := newFixture(t, 1000)
	s := f.session(t, 1200, now.Add(time.Hour))

	_, err := f.gate.Admit(context.Background(), f.store.NewUnitOfWork(context.Background()), f.owner, s.Id)
	var e *metering.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, int64(1200), e.Used)
	assert.Equal(t, int64(1000), e.Limit)
}

func TestAdmitExpiryIsPersistedAndIdempotent(t *testing.T) {
	f := newFixture(t, 1000)
	s := f.session(t, 10, now.Add(-time.Second))
	ctx := context.Background()

	_, err := f.gate.Admit(ctx, f.store.NewUnitOfWork(ctx), f.owner, s.Id)
	assert.Equal(t, metering.SessionExpired, metering.KindOf(err))
	assert.Equal(t, entity.SessionStatusExpired, f.status(t, s.Id))

	// The row is no longer active, so the lookup filter rejects it first.
	_, err = f.gate.Admit(ctx, f.store.NewUnitOfWork(ctx), f.owner, s.Id)
	assert.Equal(t, metering.NoActiveSession, metering.KindOf(err))
	assert.Equal(t, entity.SessionStatusExpired, f.status(t, s.Id))
}

type brokenSessions struct {
	contract.UserSessionRepository
	markErr error
}

func (b brokenSessions) MarkExpired(ctx context.Context, id uuid.UUID) error { return b.markErr }

type brokenUow struct {
	unitofwork.UnitOfWork
	sessions contract.UserSessionRepository
}

func (u brokenUow) UserSessionRepository() contract.UserSessionRepository { return u.sessions }

func TestAdmitExpiryWriteFailureIsUnknown(t *testing.T) {
	f := newFixture(t, 1000)
	s := f.session(t, 0, now.Add(-time.Minute))
	ctx := context.Background()
	inner := f.store.NewUnitOfWork(ctx)
	uow := brokenUow{UnitOfWork: inner, sessions: brokenSessions{UserSessionRepository: inner.UserSessionRepository(), markErr: errors.New("disk full")}}

	_, err := f.gate.Admit(ctx, uow, f.owner, s.Id)
	assert.Equal(t, metering.Unknown, metering.KindOf(err))
	assert.Equal(t, entity.SessionStatusActive, f.status(t, s.Id))
}
