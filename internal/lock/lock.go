// Package lock provides keyed mutual exclusion used to serialize writes that
// read and then increment an ordering key, such as ticket positions within a
// column.  The memory implementation is sufficient for a single process;
// the Redis implementation extends the critical section across replicas.
package lock

import (
	"context"
	"fmt"
)

// ReleaseFunc releases a held lock.  It is safe to call more than once.
type ReleaseFunc func()

// Locker acquires named locks.  Lock blocks until the lock is held or ctx
// is done.
type Locker interface {
	Lock(ctx context.Context, key string) (ReleaseFunc, error)
}

// TicketPositionKey is the lock key guarding position assignment in a column.
func TicketPositionKey(columnID uint64) string {
	return fmt.Sprintf("ticket-position:%d", columnID)
}
