package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMirror_ReplacesWholesale(t *testing.T) {
	m := NewMirror[string]()
	require.False(t, m.Ready())

	m.Apply(Snapshot[string]{Docs: []string{"a", "b"}, Version: 1})
	require.True(t, m.Ready())
	require.Equal(t, []string{"a", "b"}, m.Docs())

	m.Apply(Snapshot[string]{Docs: []string{"c"}, Version: 2})
	require.Equal(t, []string{"c"}, m.Docs())
	require.Equal(t, uint64(2), m.Version())
}

func TestMirror_IgnoresStaleSnapshot(t *testing.T) {
	m := NewMirror[string]()
	m.Apply(Snapshot[string]{Docs: []string{"new"}, Version: 5})
	m.Apply(Snapshot[string]{Docs: []string{"old"}, Version: 4})
	require.Equal(t, []string{"new"}, m.Docs())
}

func TestMirror_DocsIsACopy(t *testing.T) {
	m := NewMirror[string]()
	m.Replace([]string{"a"})
	d := m.Docs()
	d[0] = "mutated"
	require.Equal(t, []string{"a"}, m.Docs())
}

func TestMirror_SnapshotPairsDocsWithVersion(t *testing.T) {
	m := NewMirror[string]()
	m.Apply(Snapshot[string]{Docs: []string{"a"}, Version: 3})

	docs, v := m.Snapshot()
	require.Equal(t, []string{"a"}, docs)
	require.Equal(t, uint64(3), v)

	docs[0] = "mutated"
	again, _ := m.Snapshot()
	require.Equal(t, []string{"a"}, again)
}

func TestMirror_WaitReady(t *testing.T) {
	m := NewMirror[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.WaitReady(ctx), context.DeadlineExceeded)

	go m.Replace([]int{1})
	require.NoError(t, m.WaitReady(context.Background()))
}

func TestMirror_Updates(t *testing.T) {
	m := NewMirror[string]()
	ctx, cancel := context.WithCancel(context.Background())
	updates := m.Updates(ctx)

	m.Replace([]string{"a"})
	m.Replace([]string{"b"})
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no update")
	}
	require.Equal(t, []string{"b"}, m.Docs())

	// stale snapshots are not announced
	m.Apply(Snapshot[string]{Docs: []string{"old"}, Version: 1})
	select {
	case <-updates:
		t.Fatal("stale snapshot announced")
	default:
	}

	cancel()
	for range updates {
	}
}
