package memory

import (
	"context"
	"sync"
	"time"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/repository/contract"
	"ai-chat-session-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store is an in-process replacement for the postgres schema. It backs STORE_DRIVER=memory
// and the service tests. All access is serialized by one mutex.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	users         map[uuid.UUID]*entity.User
	sessions      map[uuid.UUID]*entity.UserSession
	configs       map[string]*entity.SessionConfig
	usage         []*entity.TokenUsageTransaction
	conversations map[uuid.UUID]*conversationRow
	messages      []*messageRow
}

type conversationRow struct {
	entity.Conversation
	seq int64
}

type messageRow struct {
	entity.ChatMessage
	seq int64
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[uuid.UUID]*entity.User),
		sessions:      make(map[uuid.UUID]*entity.UserSession),
		configs:       make(map[string]*entity.SessionConfig),
		conversations: make(map[uuid.UUID]*conversationRow),
	}
}

// WithClock overrides the timestamp source used for created_at/updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func configKey(planId, modelName string) string {
	return planId + "\x00" + modelName
}

// unitOfWork keeps an undo log while a transaction is open. Rollback replays it in reverse.
type unitOfWork struct {
	store *Store
	inTx  bool
	undo  []func()
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return unitofwork.ErrTxActive
	}
	u.inTx = true
	u.undo = nil
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return unitofwork.ErrNoActiveTx
	}
	u.inTx = false
	u.undo = nil
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return unitofwork.ErrNoActiveTx
	}
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()
	u.inTx = false
	u.undo = nil
	return nil
}

// record must be called with the store mutex held.
func (u *unitOfWork) record(fn func()) {
	if u.inTx {
		u.undo = append(u.undo, fn)
	}
}

func (u *unitOfWork) UserRepository() contract.UserRepository {
	return &userRepository{uow: u}
}

func (u *unitOfWork) UserSessionRepository() contract.UserSessionRepository {
	return &userSessionRepository{uow: u}
}

func (u *unitOfWork) SessionConfigRepository() contract.SessionConfigRepository {
	return &sessionConfigRepository{uow: u}
}

func (u *unitOfWork) UsageTransactionRepository() contract.UsageTransactionRepository {
	return &usageTransactionRepository{uow: u}
}

func (u *unitOfWork) ConversationRepository() contract.ConversationRepository {
	return &conversationRepository{uow: u}
}

func (u *unitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &chatMessageRepository{uow: u}
}
