package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8090"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API           APIConfig
	AMQP          AMQPConfig
	Redis         RedisConfig
	Mongo         MongoConfig
	Push          PushConfig
	Token         TokenConfig
	Notifications NotificationsConfig
}

// APIConfig points at the platform backend all REST calls go to.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8000/api/v1"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s"`
}

// AMQPConfig configures the realtime broadcasting channel. An empty URI
// disables realtime entirely; polling still converges.
type AMQPConfig struct {
	URI      string `env:"AMQP_URI"`
	Exchange string `env:"AMQP_EXCHANGE, default=broadcasting"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// MongoConfig configures the optional notification snapshot cache. An empty
// URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=loyalty_agent"`
}

// PushConfig configures the best-effort push registrar. An empty instance id
// means the environment does not support push and registration is skipped.
type PushConfig struct {
	InstanceID string `env:"PUSH_INSTANCE_ID"`
	StateDir   string `env:"PUSH_STATE_DIR, default=/var/lib/loyalty-agent"`
}

// TokenConfig selects where the bearer token survives restarts: "file"
// (default) or "redis" (requires REDIS_ADDR).
type TokenConfig struct {
	Store string `env:"TOKEN_STORE, default=file"`
	Path  string `env:"TOKEN_PATH,  default=/var/lib/loyalty-agent/token"`
}

type NotificationsConfig struct {
	ListInterval  time.Duration `env:"NOTIFICATIONS_LIST_INTERVAL,  default=30s"`
	CountInterval time.Duration `env:"NOTIFICATIONS_COUNT_INTERVAL, default=10s"`
	PerPage       int           `env:"NOTIFICATIONS_PER_PAGE,       default=10"`
	BufferCap     int           `env:"NOTIFICATIONS_BUFFER_CAP,     default=20"`
	RefreshDelay  time.Duration `env:"NOTIFICATIONS_REFRESH_DELAY,  default=1s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
