// Package lock provides keyed mutual exclusion for edits that must not interleave,
// backed by Redis across replicas or by an in-process table for a single instance.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotObtained is returned when the lock is still held by someone else after the wait period
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out locks by key
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// With runs fn while holding the lock for key
func With(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	held, err := l.Obtain(ctx, key)
	if err != nil {
		return err
	}
	defer held.Release(context.WithoutCancel(ctx))

	return fn(ctx)
}

// LocalLocker is an in-process keyed mutex
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
	wait  time.Duration
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocal creates a LocalLocker. A zero wait blocks until the context ends.
func NewLocal(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*localEntry),
		wait:  wait,
	}
}

// Obtain blocks until key is free, the wait period passes or ctx is done
func (l *LocalLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		t := time.NewTimer(l.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case e.sem <- struct{}{}:
		return &localLock{owner: l, key: key, entry: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	case <-timeout:
		l.unref(key, e)
		return nil, ErrNotObtained
	}
}

func (l *LocalLocker) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

type localLock struct {
	owner *LocalLocker
	key   string
	entry *localEntry
	once  sync.Once
}

func (k *localLock) Release(context.Context) error {
	k.once.Do(func() {
		<-k.entry.sem
		k.owner.unref(k.key, k.entry)
	})
	return nil
}
