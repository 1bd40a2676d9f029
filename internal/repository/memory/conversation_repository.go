package memory

import (
	"context"
	"sort"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/repository/contract"

	"github.com/google/uuid"
)

type conversationRepository struct {
	uow *unitOfWork
}

func (r *conversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversation.Id == uuid.Nil {
		conversation.Id = uuid.New()
	}
	now := s.now()
	conversation.CreatedAt, conversation.UpdatedAt = now, now
	row := &conversationRow{Conversation: *conversation, seq: s.nextSeq()}
	s.conversations[row.Id] = row
	r.uow.record(func() { delete(s.conversations, row.Id) })
	return nil
}

func (r *conversationRepository) FindOwned(ctx context.Context, id, userId uuid.UUID) (*entity.Conversation, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.conversations[id]
	if !ok || row.UserId != userId {
		return nil, nil
	}
	out := row.Conversation
	return &out, nil
}

func (r *conversationRepository) ListWithCounts(ctx context.Context, userId uuid.UUID) ([]*entity.ConversationSummary, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[uuid.UUID]int64)
	for _, m := range s.messages {
		counts[m.ConversationId]++
	}

	var rows []*conversationRow
	for _, row := range s.conversations {
		if row.UserId == userId {
			rows = append(rows, row)
		}
	}
	// updated_at desc; the touch sequence breaks ties between equal timestamps.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].UpdatedAt.Equal(rows[j].UpdatedAt) {
			return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]*entity.ConversationSummary, len(rows))
	for i, row := range rows {
		out[i] = &entity.ConversationSummary{Conversation: row.Conversation, MessageCount: counts[row.Id]}
	}
	return out, nil
}

func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.conversations[id]
	if !ok {
		return contract.ErrNotFound
	}
	prevAt, prevSeq := row.UpdatedAt, row.seq
	row.UpdatedAt = s.now()
	row.seq = s.nextSeq()
	r.uow.record(func() { row.UpdatedAt, row.seq = prevAt, prevSeq })
	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.conversations[id]
	if !ok {
		return contract.ErrNotFound
	}
	delete(s.conversations, id)
	r.uow.record(func() { s.conversations[id] = row })
	return nil
}

type chatMessageRepository struct {
	uow *unitOfWork
}

func (r *chatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[message.ConversationId]; !ok {
		return contract.ErrNotFound
	}
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	message.CreatedAt = s.now()
	row := &messageRow{ChatMessage: *message, seq: s.nextSeq()}
	s.messages = append(s.messages, row)
	r.uow.record(func() {
		for i, existing := range s.messages {
			if existing == row {
				s.messages = append(s.messages[:i], s.messages[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *chatMessageRepository) ListByConversation(ctx context.Context, conversationId uuid.UUID) ([]*entity.ChatMessage, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*messageRow
	for _, m := range s.messages {
		if m.ConversationId == conversationId {
			rows = append(rows, m)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*entity.ChatMessage, len(rows))
	for i, row := range rows {
		cp := row.ChatMessage
		out[i] = &cp
	}
	return out, nil
}

func (r *chatMessageRepository) DeleteByConversation(ctx context.Context, conversationId uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*messageRow
	kept := make([]*messageRow, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ConversationId == conversationId {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	r.uow.record(func() { s.messages = append(s.messages, removed...) })
	return nil
}
