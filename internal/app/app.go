package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/menukit/pkg/analytics"
	"github.com/dmitrymomot/menukit/pkg/api"
	"github.com/dmitrymomot/menukit/pkg/billing"
	"github.com/dmitrymomot/menukit/pkg/config"
	"github.com/dmitrymomot/menukit/pkg/httpserver"
	"github.com/dmitrymomot/menukit/pkg/invalidate"
	"github.com/dmitrymomot/menukit/pkg/logger"
	mongoconn "github.com/dmitrymomot/menukit/pkg/mongo"
	"github.com/dmitrymomot/menukit/pkg/opensearch"
	"github.com/dmitrymomot/menukit/pkg/pg"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/qrcode"
	"github.com/dmitrymomot/menukit/pkg/ratelimiter"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
	redisconn "github.com/dmitrymomot/menukit/pkg/redis"
	"github.com/dmitrymomot/menukit/pkg/store/memory"
	storemongo "github.com/dmitrymomot/menukit/pkg/store/mongo"
	"github.com/dmitrymomot/menukit/pkg/store/postgres"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
	"github.com/dmitrymomot/menukit/pkg/webhook"
)

//go:embed plans.yaml
var defaultPlans embed.FS

// Store is everything the application needs from a storage driver.
type Store interface {
	subscription.Store
	subscription.Ledger
	usage.Store
	api.PaymentLister
	api.QRRegistry
	Ping(ctx context.Context) error
}

// App holds the wired components of a running process.
type App struct {
	Config   Config
	Logger   *slog.Logger
	Catalog  plan.Catalog
	Store    Store
	Service  subscription.Service
	Meter    *usage.Meter
	Checkout *billing.Checkout
	Handler  http.Handler

	checks  []httpserver.Check
	closers []func(context.Context) error
	redis   *redis.Client
}

// Option customizes New, mostly for tests.
type Option func(*options)

type options struct {
	store   Store
	gateway billing.SubscriptionCreator
}

// WithStore skips the configured driver and uses s.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

// WithGateway replaces the Razorpay client used by checkout.
func WithGateway(g billing.SubscriptionCreator) Option {
	return func(o *options) { o.gateway = g }
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger builds the process logger for cfg.Env.
func NewLogger(cfg Config, extractors ...logger.ContextExtractor) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(extractors...),
	}
	var levelErr error
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err == nil {
			opts = append(opts, logger.WithLevel(level))
		}
		levelErr = err
	}

	log := logger.New(opts...)
	if levelErr != nil {
		log.Warn("ignoring LOG_LEVEL", logger.Component("app"), logger.Error(levelErr))
	}
	return log
}

// LoadCatalog reads PlansFile, or the embedded catalog when it is empty.
func LoadCatalog(ctx context.Context, cfg Config) (plan.Catalog, error) {
	src := plan.NewFSSource(defaultPlans, "plans.yaml")
	if cfg.PlansFile != "" {
		src = plan.NewFileSource(cfg.PlansFile)
	}
	return plan.NewCatalog(ctx, src, plan.WithTestMode(cfg.Razorpay.TestMode))
}

// New connects every configured backend and wires the services. On error,
// everything opened so far is closed.
func New(ctx context.Context, cfg Config, log *slog.Logger, opts ...Option) (_ *App, err error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			err = errors.Join(ErrSetup, err)
		}
	}()

	if a.Catalog, err = LoadCatalog(ctx, cfg); err != nil {
		return nil, err
	}

	a.Store = o.store
	if a.Store == nil {
		if a.Store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}
	a.checks = append(a.checks, httpserver.Check{Name: "store", Fn: a.Store.Ping})

	inv, err := a.invalidator(ctx)
	if err != nil {
		return nil, err
	}

	a.Service = subscription.NewService(a.Catalog, a.Store, a.Store, inv, subscription.WithLogger(log))

	recorder, err := a.recorder(ctx)
	if err != nil {
		return nil, err
	}
	a.Meter = usage.NewMeter(a.Catalog, a.Store,
		usage.WithResolver(a.Store),
		usage.WithRecorder(recorder),
		usage.WithLogger(log),
	)

	gateway := o.gateway
	if gateway == nil && cfg.Razorpay.KeyID != "" {
		client, err := razorpay.NewClient(cfg.Razorpay, razorpay.WithClientLogger(log))
		if err != nil {
			return nil, err
		}
		gateway = client
	}
	if gateway != nil {
		a.Checkout = billing.NewCheckout(cfg.Razorpay.KeyID, a.Catalog, gateway, billing.WithLogger(log))
	} else {
		log.WarnContext(ctx, "razorpay credentials not set, checkout disabled", logger.Component("app"))
	}

	gen, err := qrcode.NewGenerator(cfg.QR)
	if err != nil {
		return nil, err
	}

	limiter, err := a.scanLimiter(ctx)
	if err != nil {
		return nil, err
	}

	a.Handler = api.NewRouter(api.Deps{
		Catalog:      a.Catalog,
		Service:      a.Service,
		Meter:        a.Meter,
		Processor:    billing.NewWebhookProcessor(cfg.Razorpay.WebhookSecret, a.Service, billing.WithLogger(log)),
		Verifier:     billing.NewPaymentVerifier(cfg.Razorpay.KeySecret, a.Catalog, a.Service, a.Store, billing.WithLogger(log)),
		Checkout:     a.Checkout,
		Payments:     a.Store,
		QRCodes:      a.Store,
		QR:           gen,
		Checks:       a.checks,
		ScanLimiter:  limiter,
		Logger:       log,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})
	return a, nil
}

// Migrate applies the schema of the configured store driver and disconnects.
// The memory driver has nothing to migrate.
func Migrate(ctx context.Context, cfg Config, log *slog.Logger) (err error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.AutoMigrate = true
	a := &App{Config: cfg, Logger: log}
	defer func() { err = errors.Join(err, a.Close(context.WithoutCancel(ctx))) }()

	if _, err := a.openStore(ctx); err != nil {
		return errors.Join(ErrSetup, err)
	}
	return nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	switch strings.ToLower(a.Config.StoreDriver) {
	case DriverMemory, "":
		return memory.New(), nil

	case DriverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		if a.Config.AutoMigrate {
			if err := pg.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir, cfg, a.Logger); err != nil {
				return nil, err
			}
		}
		return postgres.New(pool), nil

	case DriverMongo:
		var cfg mongoconn.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongoconn.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.onClose(client.Disconnect)
		s := storemongo.New(client.Database(cfg.Database))
		if a.Config.AutoMigrate {
			if err := s.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, a.Config.StoreDriver)
}

// invalidator builds the configured targets behind one async fan-out.
func (a *App) invalidator(ctx context.Context) (subscription.Invalidator, error) {
	var targets []subscription.Invalidator
	for _, name := range a.Config.Invalidators {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue

		case InvalidateRedis:
			client, cfg, err := a.redisClient(ctx)
			if err != nil {
				return nil, err
			}
			targets = append(targets, invalidate.NewRedis(client, cfg))

		case InvalidateHTTP:
			var cfg invalidate.HTTPConfig
			if err := config.Load(&cfg); err != nil {
				return nil, err
			}
			breaker := webhook.NewBreaker("revalidate", webhook.DefaultBreakerConfig(), a.Logger)
			targets = append(targets, invalidate.NewHTTP(webhook.NewSender(), cfg, breaker))

		case InvalidateAMQP:
			var cfg invalidate.AMQPConfig
			if err := config.Load(&cfg); err != nil {
				return nil, err
			}
			pub, err := invalidate.NewRabbitMQPublisher(cfg, a.Logger)
			if err != nil {
				return nil, err
			}
			a.onClose(func(context.Context) error { return pub.Close() })
			targets = append(targets, invalidate.NewAMQP(pub))

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownInvalidator, name)
		}
	}

	if len(targets) == 0 {
		return invalidate.Noop{}, nil
	}
	async := invalidate.NewAsync(invalidate.Multi(targets...), invalidate.WithAsyncLogger(a.Logger))
	// Registered last so it drains before the targets close.
	a.onClose(async.Close)
	return async, nil
}

// redisClient connects on first use; invalidation and rate limiting share it.
func (a *App) redisClient(ctx context.Context) (*redis.Client, redisconn.Config, error) {
	var cfg redisconn.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	if a.redis != nil {
		return a.redis, cfg, nil
	}
	client, err := redisconn.Connect(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	a.redis = client
	a.onClose(func(context.Context) error { return client.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redisconn.Healthcheck(client)})
	return client, cfg, nil
}

func (a *App) scanLimiter(ctx context.Context) (*ratelimiter.Bucket, error) {
	cfg := a.Config.ScanRate
	if !cfg.Enabled {
		return nil, nil
	}

	var store ratelimiter.Store
	switch strings.ToLower(cfg.Store) {
	case ratelimiter.StoreMemory, "":
		mem := ratelimiter.NewMemoryStore()
		a.onClose(func(context.Context) error { mem.Close(); return nil })
		store = mem
	case ratelimiter.StoreRedis:
		client, _, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		store = ratelimiter.NewRedisStore(client, "menukit:ratelimit:scan:")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLimiterStore, cfg.Store)
	}
	return ratelimiter.NewBucket(store, cfg)
}

func (a *App) recorder(ctx context.Context) (usage.Recorder, error) {
	if !a.Config.Analytics.Enabled {
		return analytics.Noop{}, nil
	}
	var cfg opensearch.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := opensearch.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.checks = append(a.checks, httpserver.Check{Name: "opensearch", Fn: opensearch.Healthcheck(client)})
	return analytics.NewOpenSearch(analytics.NewClientIndexer(client), a.Config.Analytics), nil
}
