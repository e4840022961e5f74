package feed

import (
	"context"
	"sync"
)

// Memory is an in-process feed, suitable for a single instance and for tests.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[chan struct{}]struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: map[string]map[chan struct{}]struct{}{}}
}

func (m *Memory) Notify(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs[topic(path)] {
		signal(ch)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	key := topic(path)
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if m.subs[key] == nil {
		m.subs[key] = map[chan struct{}]struct{}{}
	}
	m.subs[key][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[key][ch]; ok {
			delete(m.subs[key], ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Close ends every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for key, set := range m.subs {
		for ch := range set {
			close(ch)
		}
		delete(m.subs, key)
	}
	return nil
}
