// Package feed carries "collection changed" notices between writers and watchers.
// A notice holds no payload: subscribers reload the whole collection.
package feed

import (
	"context"
	"strings"
)

type Feed interface {
	// Notify announces that the collection at path changed.
	Notify(ctx context.Context, path string) error
	// Subscribe delivers a notice per change on path until ctx ends, then closes the channel.
	// Bursts may be coalesced into a single notice.
	Subscribe(ctx context.Context, path string) (<-chan struct{}, error)
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendAMQP     = "amqp"
)

// signal does a non-blocking send; a pending notice already covers this one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// topic turns "artifacts/decor/public/data/bookings" into "artifacts.decor.public.data.bookings".
func topic(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}
