package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// roomLocks hands out one exclusive lock per room number. Acquisition honours
// ctx, so a caller whose request deadline passes gives up before touching the
// ledger.
type roomLocks struct {
	mu    sync.Mutex
	locks map[int]*semaphore.Weighted
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[int]*semaphore.Weighted)}
}

func (l *roomLocks) get(room int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.locks[room]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.locks[room] = s
	}
	return s
}

// lock blocks until the room is free or ctx is done. The returned func
// releases the lock.
func (l *roomLocks) lock(ctx context.Context, room int) (func(), error) {
	s := l.get(room)
	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.Release(1)
		return nil, err
	}
	return func() { s.Release(1) }, nil
}
