package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "collection-changed:"

// Redis fans notices out over Redis pub/sub so every instance sees every write.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Notify(ctx context.Context, path string) error {
	return r.client.Publish(ctx, redisChannelPrefix+topic(path), time.Now().UnixNano()).Err()
}

func (r *Redis) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	ps := r.client.Subscribe(ctx, redisChannelPrefix+topic(path))
	// wait for the subscription to be confirmed so no notice is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", path, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(out)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *Redis) Close() error { return r.client.Close() }
