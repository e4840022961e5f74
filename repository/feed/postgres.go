package feed

import (
	"context"
	"fmt"

	"decorrental/util/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres uses LISTEN/NOTIFY. The table triggers installed by database.Migrate
// publish on the same channel, so writes made outside this service are seen too.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (p *Postgres) Notify(ctx context.Context, path string) error {
	_, err := p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, database.ChangeChannel, path)
	return err
}

func (p *Postgres) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `LISTEN `+database.ChangeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", database.ChangeChannel, err)
	}
	// a LISTENing connection must not go back to the pool
	pc := conn.Hijack()

	want := topic(path)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pc.Close(context.Background())
		for {
			n, err := pc.WaitForNotification(ctx)
			if err != nil {
				return
			}
			if topic(n.Payload) == want {
				signal(out)
			}
		}
	}()
	return out, nil
}

// Close is a no-op: the pool belongs to the connection handle.
func (p *Postgres) Close() error { return nil }
