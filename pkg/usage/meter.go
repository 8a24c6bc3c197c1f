package usage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

// Store is the persistence required by the meter.
type Store interface {
	// Get returns a partner or subscription.ErrPartnerNotFound.
	Get(ctx context.Context, partnerID string) (*subscription.Partner, error)

	// IncrementScans applies subscription.Usage.Increment(limit, now) to the stored usage
	// as one atomic operation and returns the resulting usage and whether it incremented.
	// Returns subscription.ErrPartnerNotFound or subscription.ErrSubscriptionNotFound.
	IncrementScans(ctx context.Context, partnerID string, limit int64, now time.Time) (subscription.Usage, bool, error)
}

// Resolver maps a menu QR code to its partner.
type Resolver interface {
	// ResolvePartner returns ErrNotFound for unknown codes.
	ResolvePartner(ctx context.Context, qrID string) (string, error)
}

// Scan is an analytics record of an accepted scan.
type Scan struct {
	PartnerID  string    `json:"partner_id"`
	QRID       string    `json:"qr_id,omitempty"`
	ScansCycle int64     `json:"scans_cycle"`
	At         time.Time `json:"at"`
}

// Recorder receives accepted scans.
type Recorder interface {
	Record(ctx context.Context, scan Scan) error
}

// Result is the outcome of a metering call.
type Result struct {
	Success      bool               `json:"success"`
	LimitReached bool               `json:"limitReached,omitempty"`
	Usage        subscription.Usage `json:"usage"`
}

// Meter enforces the monthly scan quota.
type Meter struct {
	catalog  plan.Catalog
	store    Store
	resolver Resolver
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Meter.
type Option func(*Meter)

// WithResolver enables MeterQR.
func WithResolver(r Resolver) Option {
	return func(m *Meter) { m.resolver = r }
}

// WithRecorder sets the analytics sink for accepted scans.
func WithRecorder(r Recorder) Option {
	return func(m *Meter) { m.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Meter) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMeter creates a meter. Panics if catalog or store is nil.
func NewMeter(catalog plan.Catalog, store Store, opts ...Option) *Meter {
	if catalog == nil {
		panic("usage: plan catalog is required")
	}
	if store == nil {
		panic("usage: Store is required")
	}

	m := &Meter{
		catalog: catalog,
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MeterQR resolves a QR code and meters one scan for its partner.
func (m *Meter) MeterQR(ctx context.Context, qrID string) (Result, error) {
	if m.resolver == nil {
		return Result{}, ErrNoResolver
	}

	partnerID, err := m.resolver.ResolvePartner(ctx, qrID)
	if err != nil {
		return Result{}, mapNotFound(err)
	}
	return m.meter(ctx, partnerID, qrID)
}

// Meter meters one scan for a partner.
func (m *Meter) Meter(ctx context.Context, partnerID string) (Result, error) {
	return m.meter(ctx, partnerID, "")
}

func (m *Meter) meter(ctx context.Context, partnerID, qrID string) (Result, error) {
	if partnerID == "" {
		return Result{}, ErrNotFound
	}

	partner, err := m.store.Get(ctx, partnerID)
	if err != nil {
		return Result{}, mapNotFound(err)
	}
	if partner.Subscription == nil {
		return Result{}, ErrNotFound
	}

	limit := m.limitFor(partner.Subscription.PlanID)
	now := m.now().UTC()

	u, ok, err := m.store.IncrementScans(ctx, partnerID, limit, now)
	if err != nil {
		return Result{}, mapNotFound(err)
	}
	if !ok {
		return Result{Success: false, LimitReached: true, Usage: u}, nil
	}

	m.record(ctx, Scan{PartnerID: partnerID, QRID: qrID, ScansCycle: u.ScansCycle, At: now})
	return Result{Success: true, Usage: u}, nil
}

// limitFor falls back to plan.DefaultScanLimit when the plan is gone from the catalog.
func (m *Meter) limitFor(planID string) int64 {
	p, err := m.catalog.Get(planID)
	if err != nil {
		return plan.DefaultScanLimit
	}
	return p.EffectiveScanLimit()
}

func (m *Meter) record(ctx context.Context, scan Scan) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Record(ctx, scan); err != nil {
		m.logger.WarnContext(ctx, "failed to record scan",
			logger.Component("usage"),
			logger.PartnerID(scan.PartnerID),
			logger.Error(err),
		)
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, subscription.ErrPartnerNotFound) || errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return errors.Join(ErrFailedToMeter, err)
}
