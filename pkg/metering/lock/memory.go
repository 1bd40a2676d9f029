package lock

import (
	"context"
	"sync"
)

// MemoryLocker is a keyed mutex for a single process. Entries are dropped once
// nobody holds or waits on them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyedLock)}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.unref(key, l)
		})
	}, nil
}

func (m *MemoryLocker) unref(key string, l *keyedLock) {
	m.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// size is the number of tracked keys.
func (m *MemoryLocker) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
