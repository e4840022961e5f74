package cart

import (
	"context"
	"log/slog"
	"time"
)

// DefaultIdleTTL is how long an untouched cart survives.
const DefaultIdleTTL = 24 * time.Hour

type Cleaner interface {
	ReleaseExpired(ctx context.Context) (int, error)
}

type cleaner struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

func NewCleaner(store *Store, ttl time.Duration) Cleaner {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &cleaner{store: store, ttl: ttl, now: time.Now}
}

func (c *cleaner) ReleaseExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.store.Sweep(c.now().Add(-c.ttl)), nil
}

// RunCleaner releases idle carts every interval until ctx ends.
func RunCleaner(ctx context.Context, c Cleaner, every time.Duration, log *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.ReleaseExpired(ctx)
			if err != nil {
				return
			}
			if n > 0 && log != nil {
				log.Info("released idle carts", "count", n)
			}
		}
	}
}
