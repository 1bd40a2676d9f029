// Package lock serializes chat turns that target the same session.
package lock

import (
	"context"
	"fmt"
)

// Locker hands out mutual exclusion per key. release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// SessionKey is the lock key of one purchased session.
func SessionKey(sessionId fmt.Stringer) string {
	return "session:" + sessionId.String()
}

type noopLocker struct{}

// NewNoop performs no serialization. Concurrent turns on one session can all pass
// admission against the same tokens_used snapshot.
func NewNoop() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}
