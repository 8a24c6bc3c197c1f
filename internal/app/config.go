package app

import (
	"github.com/dmitrymomot/menukit/pkg/analytics"
	"github.com/dmitrymomot/menukit/pkg/httpserver"
	"github.com/dmitrymomot/menukit/pkg/qrcode"
	"github.com/dmitrymomot/menukit/pkg/ratelimiter"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Invalidation targets.
const (
	InvalidateRedis = "redis"
	InvalidateHTTP  = "http"
	InvalidateAMQP  = "amqp"
)

// Config is the process configuration. Driver and invalidator specific
// settings are loaded only when selected.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_SERVICE" envDefault:"menukit"`

	// LogLevel overrides the environment's default level.
	LogLevel string `env:"LOG_LEVEL"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	AutoMigrate bool   `env:"STORE_AUTO_MIGRATE" envDefault:"true"`

	// PlansFile overrides the embedded plan catalog.
	PlansFile string `env:"PLANS_FILE"`

	Invalidators []string `env:"INVALIDATORS" envSeparator:","`

	HTTP      httpserver.Config
	Razorpay  razorpay.Config
	QR        qrcode.Config
	Analytics analytics.Config
	ScanRate  ratelimiter.Config
}
