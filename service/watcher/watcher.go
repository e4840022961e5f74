// Package watcher turns change notices into a stream of full collection snapshots.
package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Notifier is the subscribe half of a change feed.
type Notifier interface {
	Subscribe(ctx context.Context, path string) (<-chan struct{}, error)
}

// Loader reads the whole collection in its ordering.
type Loader[T any] func(ctx context.Context) ([]T, error)

type Snapshot[T any] struct {
	Path    string
	Docs    []T
	Version uint64
	At      time.Time
}

type Watcher[T any] struct {
	feed  Notifier
	path  string
	load  Loader[T]
	log   *slog.Logger
	retry time.Duration

	// seq stays monotonic across resubscriptions so mirrors never see a version go back
	seq atomic.Uint64
}

func New[T any](feed Notifier, path string, load Loader[T], log *slog.Logger) *Watcher[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher[T]{feed: feed, path: path, load: load, log: log, retry: 2 * time.Second}
}

// Subscribe emits the current collection, then a fresh copy after every change.
// The channel closes when ctx ends or the feed drops the subscription.
func (w *Watcher[T]) Subscribe(ctx context.Context) (<-chan Snapshot[T], error) {
	// subscribe before the first load so a write in between is not lost
	notices, err := w.feed.Subscribe(ctx, w.path)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot[T])
	go func() {
		defer close(out)

		// armed after a failed load; the collection may have recovered without a write
		var retry <-chan time.Time
		emit := func() bool {
			docs, err := w.load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				w.log.Warn("snapshot load failed", "path", w.path, "err", err, "retry_in", w.retry)
				retry = time.After(w.retry)
				return true
			}
			retry = nil
			snap := Snapshot[T]{Path: w.path, Docs: docs, Version: w.seq.Add(1), At: time.Now()}
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-retry:
				if !emit() {
					return
				}
			case _, ok := <-notices:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}

// Run applies every snapshot until ctx ends, resubscribing whenever the stream
// breaks.
func (w *Watcher[T]) Run(ctx context.Context, apply func(Snapshot[T])) {
	for {
		stream, err := w.Subscribe(ctx)
		if err != nil {
			w.log.Error("watch subscribe failed", "path", w.path, "err", err)
		} else {
			for snap := range stream {
				apply(snap)
			}
		}
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("watch stream ended, resubscribing", "path", w.path)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retry):
		}
	}
}
