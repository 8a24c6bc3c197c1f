package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment names recognised by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Format is the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type profile struct {
	name   string
	level  slog.Level
	format Format
}

var profiles = map[string]profile{
	EnvProduction: {EnvProduction, slog.LevelInfo, FormatJSON},
	"prod":        {EnvProduction, slog.LevelInfo, FormatJSON},
	EnvStaging:    {EnvStaging, slog.LevelInfo, FormatJSON},
	"stage":       {EnvStaging, slog.LevelInfo, FormatJSON},
}

var development = profile{EnvDevelopment, slog.LevelDebug, FormatText}

// Option configures New.
type Option func(*config)

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// WithEnvironment applies the level and format of env and tags every record
// with env and service. Unknown environments use the development profile:
// text output at debug level.
func WithEnvironment(env, service string) Option {
	p, ok := profiles[strings.ToLower(env)]
	if !ok {
		p = development
	}
	return func(c *config) {
		c.level = p.level
		c.format = p.format
		c.attrs = append(c.attrs, slog.String("env", p.name))
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
	}
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets the encoding. Panics on an unknown format.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Sprintf("logger: invalid format %q", f))
	}
	return func(c *config) { c.format = f }
}

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithContextExtractors registers extractors run on every record. Nil
// extractors are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// ParseLevel reads a level name such as "debug", "warn" or "error+2".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// New creates a logger from opts.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var h slog.Handler
	if cfg.format == FormatText {
		h = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		h = h.WithAttrs(cfg.attrs)
	}
	return slog.New(NewContextHandler(h, cfg.extractors...))
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
