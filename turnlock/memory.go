package turnlock

import (
	"context"
	"fmt"
	"sync"

	"github.com/creastat/aura"
)

// MemoryLocker is a keyed mutex for a single process.
// Entries are removed once nobody holds or waits for them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	slot chan struct{}
	refs int
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock)}
}

// Lock implements Locker.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	kl := l.acquireRef(key)

	select {
	case kl.slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.slot
				l.releaseRef(key, kl)
			})
		}, nil
	case <-ctx.Done():
		l.releaseRef(key, kl)
		return nil, fmt.Errorf("%w: %w", aura.ErrLockBusy, ctx.Err())
	}
}

// Len returns the number of keys currently held or awaited.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *MemoryLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{slot: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *MemoryLocker) releaseRef(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
