package memory

import (
	"context"
	"fmt"
	"strings"

	"ai-chat-session-be/internal/entity"
	"ai-chat-session-be/internal/repository/contract"

	"github.com/google/uuid"
)

type userRepository struct {
	uow *unitOfWork
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("email %q: %w", user.Email, contract.ErrDuplicate)
		}
	}
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	row := *user
	s.users[row.Id] = &row
	r.uow.record(func() { delete(s.users, row.Id) })
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		if strings.EqualFold(row.Email, email) {
			out := *row
			return &out, nil
		}
	}
	return nil, nil
}
