// Package connection owns the database pool and change feed for one process.
package connection

import (
	"context"
	"fmt"
	"strings"

	"decorrental/repository/feed"
	"decorrental/util/apperr"
	"decorrental/util/database"
)

type Config struct {
	DatabaseURL  string
	FeedBackend  string
	RedisURL     string
	AMQPURL      string
	AMQPExchange string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return apperr.New(apperr.Configuration, "database url is required")
	}
	if _, err := database.ParseConfig(c.DatabaseURL); err != nil {
		return apperr.Wrap(apperr.Configuration, "malformed database url", err)
	}
	switch c.backend() {
	case feed.BackendPostgres, feed.BackendMemory:
	case feed.BackendRedis:
		if c.RedisURL == "" {
			return apperr.New(apperr.Configuration, "redis url is required for the redis feed")
		}
	case feed.BackendAMQP:
		if c.AMQPURL == "" {
			return apperr.New(apperr.Configuration, "amqp url is required for the amqp feed")
		}
		if c.AMQPExchange == "" {
			return apperr.New(apperr.Configuration, "amqp exchange is required for the amqp feed")
		}
	default:
		return apperr.New(apperr.Configuration, fmt.Sprintf("unknown feed backend %q", c.FeedBackend))
	}
	return nil
}

func (c Config) backend() string {
	if c.FeedBackend == "" {
		return feed.BackendPostgres
	}
	return strings.ToLower(c.FeedBackend)
}

// Handle is passed explicitly to repositories and watchers.
type Handle struct {
	DB   *database.DB
	Feed feed.Feed
}

func Connect(ctx context.Context, cfg Config) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Configuration, "connect database", err)
	}

	var f feed.Feed
	switch cfg.backend() {
	case feed.BackendPostgres:
		f = feed.NewPostgres(db.Pool)
	case feed.BackendMemory:
		f = feed.NewMemory()
	case feed.BackendRedis:
		f, err = feed.NewRedis(ctx, cfg.RedisURL)
	case feed.BackendAMQP:
		f, err = feed.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	}
	if err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.Configuration, "open change feed", err)
	}
	return &Handle{DB: db, Feed: f}, nil
}

// Disconnect closes the feed first so watchers stop before the pool goes away.
func (h *Handle) Disconnect() error {
	var err error
	if h.Feed != nil {
		err = h.Feed.Close()
	}
	if h.DB != nil {
		h.DB.Close()
	}
	return err
}
