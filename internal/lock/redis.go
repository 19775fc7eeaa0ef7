package lock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// lockExpiry bounds how long a crashed holder can block a key.  Position
// assignment is a single short transaction, so no extension is needed.
const lockExpiry = 10 * time.Second

type redisLocker struct {
	rs     *redsync.Redsync
	prefix string
}

// NewRedis returns a Locker backed by redsync over the given client.  Keys
// are namespaced with prefix.
func NewRedis(client redis.UniversalClient, prefix string) Locker {
	return &redisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: prefix,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (ReleaseFunc, error) {
	mutex := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(64),
		redsync.WithRetryDelay(25*time.Millisecond),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return func() {}, err
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// An unreleased lock expires on its own.  Unlock must not use the
		// request context, which may already be done.
		_, _ = mutex.Unlock()
	}, nil
}

// New picks the Redis locker when a client is available and the memory
// locker otherwise.
func New(client *redis.Client, prefix string) Locker {
	if client == nil {
		return NewMemory()
	}
	return NewRedis(client, prefix)
}
