package lock

import (
	"context"
	"sync"
)

type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// entry is a one-slot semaphore shared by every waiter on the same key.
// refs counts holders plus waiters so idle keys can be dropped.
type entry struct {
	ch   chan struct{}
	refs int
}

// NewMemory returns an in-process Locker.
func NewMemory() Locker {
	return &memoryLocker{locks: make(map[string]*entry)}
}

func (l *memoryLocker) Lock(ctx context.Context, key string) (ReleaseFunc, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return func() {}, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *memoryLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
