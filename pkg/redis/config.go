package redis

import "time"

// Config is read from REDIS_* variables.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // bounds all attempts together

	// KeyPrefix namespaces the storefront cache keys dropped on invalidation.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"menukit:"`
	// Channel receives the partner id of every invalidated partner.
	Channel string `env:"REDIS_INVALIDATE_CHANNEL" envDefault:"menukit:partner-changed"`
}
