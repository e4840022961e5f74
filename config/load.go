package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func Load() App {
	cfg := App{
		Port:              getenv("APP_PORT", "8080"),
		DatabaseURL:       must("DATABASE_URL"),
		JWTSecret:         getenv("JWT_SECRET", "local_dev_secret"),
		CustomTokenSecret: getenv("CUSTOM_TOKEN_SECRET", "local_dev_custom_secret"),
		AppID:             getenv("APP_ID", "decor"),
		FeedBackend:       getenv("FEED_BACKEND", "postgres"),
		RedisURL:          os.Getenv("REDIS_URL"),
		AMQPURL:           os.Getenv("AMQP_URL"),
		AMQPExchange:      getenv("AMQP_EXCHANGE", "decor.collections"),
		CheckoutStrict:    getbool("CHECKOUT_STRICT", false),
		CartIdleTTL:       getduration("CART_IDLE_TTL", 24*time.Hour),
		Env:               getenv("APP_ENV", "dev"),
	}
	if p := os.Getenv("PORT"); p != "" {
		cfg.Port = p
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env, using default", "key", k, "value", v)
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env, using default", "key", k, "value", v)
		return def
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
