package watcher

import (
	"context"
	"sync"
)

// Mirror is a local copy of a collection, replaced wholesale on every snapshot.
type Mirror[T any] struct {
	mu      sync.RWMutex
	docs    []T
	version uint64
	ready   chan struct{}
	once    sync.Once
	subs    map[chan struct{}]struct{}
}

func NewMirror[T any]() *Mirror[T] {
	return &Mirror[T]{ready: make(chan struct{}), subs: map[chan struct{}]struct{}{}}
}

// changed must be called with mu held.
func (m *Mirror[T]) changed() {
	for ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Updates signals after every accepted snapshot until ctx ends. Bursts coalesce.
func (m *Mirror[T]) Updates(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Apply replaces the copy. Snapshots older than the current one are ignored.
func (m *Mirror[T]) Apply(s Snapshot[T]) {
	m.mu.Lock()
	if s.Version != 0 && s.Version <= m.version {
		m.mu.Unlock()
		return
	}
	m.docs = s.Docs
	m.version = s.Version
	m.changed()
	m.mu.Unlock()
	m.once.Do(func() { close(m.ready) })
}

// Replace installs docs directly, bumping the version.
func (m *Mirror[T]) Replace(docs []T) {
	m.mu.Lock()
	m.docs = docs
	m.version++
	m.changed()
	m.mu.Unlock()
	m.once.Do(func() { close(m.ready) })
}

// Docs returns a copy of the current collection.
func (m *Mirror[T]) Docs() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]T(nil), m.docs...)
}

// Snapshot returns the docs together with the version they belong to.
func (m *Mirror[T]) Snapshot() ([]T, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]T(nil), m.docs...), m.version
}

func (m *Mirror[T]) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *Mirror[T]) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the first snapshot arrives.
func (m *Mirror[T]) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
