// Package identity issues and verifies the bearer credential of a caller.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredential = errors.New("identity: invalid credential")

type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewVerifier(secret string, ttl time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to stamp and validate tokens.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Issue signs an HS256 token carrying user_id and exp.
func (v *Verifier) Issue(userId uuid.UUID) (string, time.Time, error) {
	issuedAt := v.now()
	expiresAt := issuedAt.Add(v.ttl)

	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"iat":     issuedAt.Unix(),
		"exp":     expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the caller identity of a token, or ErrInvalidCredential.
func (v *Verifier) Verify(tokenStr string) (uuid.UUID, error) {
	if tokenStr == "" {
		return uuid.Nil, ErrInvalidCredential
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidCredential
	}
	raw, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(raw)
	if err != nil || userId == uuid.Nil {
		return uuid.Nil, ErrInvalidCredential
	}
	return userId, nil
}
