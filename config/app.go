package config

import "time"

type App struct {
	Port              string        `env:"APP_PORT" default:"8080"`
	DatabaseURL       string        `env:"DATABASE_URL,required"`
	JWTSecret         string        `env:"JWT_SECRET"`
	CustomTokenSecret string        `env:"CUSTOM_TOKEN_SECRET"`
	AppID             string        `env:"APP_ID" default:"decor"`
	FeedBackend       string        `env:"FEED_BACKEND" default:"postgres"`
	RedisURL          string        `env:"REDIS_URL"`
	AMQPURL           string        `env:"AMQP_URL"`
	AMQPExchange      string        `env:"AMQP_EXCHANGE" default:"decor.collections"`
	CheckoutStrict    bool          `env:"CHECKOUT_STRICT" default:"false"`
	CartIdleTTL       time.Duration `env:"CART_IDLE_TTL" default:"24h"`
	Env               string        `env:"APP_ENV" default:"dev"`
}
