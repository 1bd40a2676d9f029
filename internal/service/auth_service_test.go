package service

import (
	"context"
	"testing"
	"time"

	"ai-chat-session-be/internal/dto"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/pkg/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	store := memory.NewStore()
	verifier := identity.NewVerifier("auth-secret", time.Hour)
	svc := NewAuthService(store, verifier, nopLogger())
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{FullName: "Ada Lovelace", Email: " Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.Email)

	_, err = svc.Register(ctx, &dto.RegisterRequest{FullName: "Ada Again", Email: "ada@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.Id, login.User.Id)

	userId, err := verifier.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Id, userId)
}
