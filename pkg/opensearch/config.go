package opensearch

import "time"

// Config holds OpenSearch connection settings, read from OPENSEARCH_* variables.
// Empty credentials disable basic auth for local clusters.
type Config struct {
	Addresses      []string      `env:"OPENSEARCH_ADDRESSES" envDefault:"http://localhost:9200"`
	Username       string        `env:"OPENSEARCH_USERNAME"`
	Password       string        `env:"OPENSEARCH_PASSWORD"`
	MaxRetries     int           `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry   bool          `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	ConnectRetries int           `env:"OPENSEARCH_CONNECT_RETRIES" envDefault:"3"`
	ConnectBackoff time.Duration `env:"OPENSEARCH_CONNECT_BACKOFF" envDefault:"2s"`
}
