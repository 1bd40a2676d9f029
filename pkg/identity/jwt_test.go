package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	v := NewVerifier("secret", time.Hour).WithClock(func() time.Time { return now })
	userId := uuid.New()

	token, expiresAt, err := v.Issue(userId)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userId, got)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	v := NewVerifier("secret", time.Hour).WithClock(func() time.Time { return now })
	valid, _, err := v.Issue(uuid.New())
	require.NoError(t, err)

	expired, _, err := NewVerifier("secret", time.Hour).WithClock(func() time.Time { return now.Add(-2 * time.Hour) }).Issue(uuid.New())
	require.NoError(t, err)

	otherKey, _, err := NewVerifier("other", time.Hour).WithClock(func() time.Time { return now }).Issue(uuid.New())
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "abc.def.ghi"},
		{name: "expired", token: expired},
		{name: "wrong key", token: otherKey},
		{name: "missing user", token: noUser},
		{name: "missing exp", token: noExp},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
			assert.Equal(t, uuid.Nil, id)
		})
	}
}
