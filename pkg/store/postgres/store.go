// Package postgres implements the partner, payment and QR code stores on PostgreSQL.
//
// The subscription is stored as normalized columns on the partners row; a NULL
// plan_id means the partner has no subscription. Scan metering is a single
// statement that locks the row, applies the monthly reset and increments only
// below the limit.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/menukit/pkg/pg"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// ErrConcurrentUpdate means a write raced with a subscription being attached.
var ErrConcurrentUpdate = errors.New("postgres: concurrent subscription change, retry")

type Store struct {
	db DB
}

// New creates a store. Panics if db is nil.
func New(db DB) *Store {
	if db == nil {
		panic("postgres: db is required")
	}
	return &Store{db: db}
}

const partnerColumns = `id, country, feature_flags, plan_id, plan_version, status, start_date, expiry_date,
	gateway_subscription_id, gateway_payment_id, is_free_plan_used, scans_cycle, last_reset, created_at, updated_at`

func (s *Store) Create(ctx context.Context, p *subscription.Partner) error {
	sub := subscriptionColumns(p.Subscription)
	_, err := s.db.Exec(ctx, `INSERT INTO partners (`+partnerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.Country, p.FeatureFlags,
		sub.planID, sub.planVersion, sub.status, sub.startDate, sub.expiryDate,
		sub.gatewaySubscriptionID, sub.gatewayPaymentID, sub.isFreePlanUsed, sub.scansCycle, sub.lastReset,
		p.CreatedAt, p.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return subscription.ErrPartnerAlreadyExists
	}
	return err
}

func (s *Store) Get(ctx context.Context, partnerID string) (*subscription.Partner, error) {
	row := s.db.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, partnerID)
	p, err := scanPartner(row)
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrPartnerNotFound
	}
	return p, err
}

func (s *Store) ReplaceSubscription(ctx context.Context, partnerID string, sub subscription.Subscription, featureFlags string, now time.Time) error {
	c := subscriptionColumns(&sub)
	tag, err := s.db.Exec(ctx, `UPDATE partners SET
			feature_flags = $2, plan_id = $3, plan_version = $4, status = $5, start_date = $6, expiry_date = $7,
			gateway_subscription_id = $8, gateway_payment_id = $9, is_free_plan_used = $10,
			scans_cycle = $11, last_reset = $12, updated_at = $13
		WHERE id = $1`,
		partnerID, featureFlags,
		c.planID, c.planVersion, c.status, c.startDate, c.expiryDate,
		c.gatewaySubscriptionID, c.gatewayPaymentID, c.isFreePlanUsed, c.scansCycle, c.lastReset,
		now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrPartnerNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, partnerID string, upd subscription.StatusUpdate, now time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE partners SET
			status = $2,
			expiry_date = COALESCE($3, expiry_date),
			gateway_subscription_id = CASE WHEN $4 = '' THEN gateway_subscription_id ELSE $4 END,
			updated_at = $5
		WHERE id = $1 AND plan_id IS NOT NULL`,
		partnerID, string(upd.Status), upd.ExpiryDate, upd.GatewaySubscriptionID, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missing(ctx, partnerID)
	}
	return nil
}

// incrementScans locks the partner row, resets a counter from an earlier UTC month
// and increments only when below the limit. The reset is kept even when denied.
const incrementScans = `
WITH cur AS (
	SELECT id, scans_cycle, last_reset,
		last_reset IS NULL
			OR date_trunc('month', last_reset AT TIME ZONE 'UTC')
				<> date_trunc('month', $3::timestamptz AT TIME ZONE 'UTC') AS stale
	FROM partners
	WHERE id = $1 AND plan_id IS NOT NULL
	FOR UPDATE
), base AS (
	SELECT id,
		CASE WHEN stale THEN 0 ELSE scans_cycle END AS scans,
		CASE WHEN stale THEN $3::timestamptz ELSE last_reset END AS reset_at
	FROM cur
), upd AS (
	UPDATE partners p SET
		scans_cycle = CASE WHEN $2::bigint = -1 OR b.scans < $2::bigint THEN b.scans + 1 ELSE b.scans END,
		last_reset  = b.reset_at,
		updated_at  = CASE WHEN $2::bigint = -1 OR b.scans < $2::bigint THEN $3::timestamptz ELSE p.updated_at END
	FROM base b
	WHERE p.id = b.id
	RETURNING p.scans_cycle, p.last_reset, ($2::bigint = -1 OR b.scans < $2::bigint) AS accepted
)
SELECT scans_cycle, last_reset, accepted FROM upd`

func (s *Store) IncrementScans(ctx context.Context, partnerID string, limit int64, now time.Time) (subscription.Usage, bool, error) {
	var (
		u        subscription.Usage
		accepted bool
	)
	err := s.db.QueryRow(ctx, incrementScans, partnerID, limit, now.UTC()).Scan(&u.ScansCycle, &u.LastReset, &accepted)
	if pg.IsNotFoundError(err) {
		return subscription.Usage{}, false, s.missing(ctx, partnerID)
	}
	if err != nil {
		return subscription.Usage{}, false, err
	}
	u.LastReset = u.LastReset.UTC()
	return u, accepted, nil
}

func (s *Store) AppendPayment(ctx context.Context, rec subscription.PaymentRecord) error {
	details := rec.Details
	if details == nil {
		details = map[string]any{}
	}
	_, err := s.db.Exec(ctx, `INSERT INTO payments
			(id, partner_id, gateway_payment_id, gateway_subscription_id, amount, currency, paid_at, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.PartnerID, rec.GatewayPaymentID, rec.GatewaySubscriptionID,
		rec.Amount.Amount, rec.Amount.Currency, rec.Date, details,
	)
	switch {
	case pg.IsDuplicateKeyError(err):
		return subscription.ErrDuplicatePayment
	case pg.IsForeignKeyViolationError(err):
		return subscription.ErrPartnerNotFound
	}
	return err
}

func (s *Store) ListPayments(ctx context.Context, partnerID string) ([]subscription.PaymentRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT id, partner_id, gateway_payment_id, gateway_subscription_id,
			amount, currency, paid_at, details
		FROM payments WHERE partner_id = $1 ORDER BY paid_at, id`, partnerID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (subscription.PaymentRecord, error) {
		var rec subscription.PaymentRecord
		err := row.Scan(&rec.ID, &rec.PartnerID, &rec.GatewayPaymentID, &rec.GatewaySubscriptionID,
			&rec.Amount.Amount, &rec.Amount.Currency, &rec.Date, &rec.Details)
		rec.Date = rec.Date.UTC()
		return rec, err
	})
}

func (s *Store) AssignQR(ctx context.Context, qrID, partnerID string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO qr_codes (id, partner_id) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET partner_id = EXCLUDED.partner_id`, qrID, partnerID)
	if pg.IsForeignKeyViolationError(err) {
		return subscription.ErrPartnerNotFound
	}
	return err
}

func (s *Store) ResolvePartner(ctx context.Context, qrID string) (string, error) {
	var partnerID string
	err := s.db.QueryRow(ctx, `SELECT partner_id FROM qr_codes WHERE id = $1`, qrID).Scan(&partnerID)
	if pg.IsNotFoundError(err) {
		return "", usage.ErrNotFound
	}
	return partnerID, err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// missing tells a missing partner from a partner without a subscription.
func (s *Store) missing(ctx context.Context, partnerID string) error {
	var hasSub bool
	err := s.db.QueryRow(ctx, `SELECT plan_id IS NOT NULL FROM partners WHERE id = $1`, partnerID).Scan(&hasSub)
	switch {
	case pg.IsNotFoundError(err):
		return subscription.ErrPartnerNotFound
	case err != nil:
		return err
	case !hasSub:
		return subscription.ErrSubscriptionNotFound
	}
	// The row gained a subscription between the two statements.
	return ErrConcurrentUpdate
}

type subColumns struct {
	planID                *string
	planVersion           int
	status                *string
	startDate             *time.Time
	expiryDate            *time.Time
	gatewaySubscriptionID string
	gatewayPaymentID      string
	isFreePlanUsed        bool
	scansCycle            int64
	lastReset             *time.Time
}

func subscriptionColumns(sub *subscription.Subscription) subColumns {
	if sub == nil {
		return subColumns{}
	}
	status := string(sub.Status)
	return subColumns{
		planID:                &sub.PlanID,
		planVersion:           sub.PlanVersion,
		status:                &status,
		startDate:             nullTime(sub.StartDate),
		expiryDate:            nullTime(sub.ExpiryDate),
		gatewaySubscriptionID: sub.GatewaySubscriptionID,
		gatewayPaymentID:      sub.GatewayPaymentID,
		isFreePlanUsed:        sub.IsFreePlanUsed,
		scansCycle:            sub.Usage.ScansCycle,
		lastReset:             nullTime(sub.Usage.LastReset),
	}
}

func scanPartner(row pgx.Row) (*subscription.Partner, error) {
	var (
		p subscription.Partner
		c subColumns
	)
	err := row.Scan(&p.ID, &p.Country, &p.FeatureFlags,
		&c.planID, &c.planVersion, &c.status, &c.startDate, &c.expiryDate,
		&c.gatewaySubscriptionID, &c.gatewayPaymentID, &c.isFreePlanUsed, &c.scansCycle, &c.lastReset,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()

	if c.planID != nil {
		p.Subscription = &subscription.Subscription{
			PlanID:                *c.planID,
			PlanVersion:           c.planVersion,
			Status:                subscription.Status(deref(c.status)),
			StartDate:             derefTime(c.startDate),
			ExpiryDate:            derefTime(c.expiryDate),
			GatewaySubscriptionID: c.gatewaySubscriptionID,
			GatewayPaymentID:      c.gatewayPaymentID,
			IsFreePlanUsed:        c.isFreePlanUsed,
			Usage: subscription.Usage{
				ScansCycle: c.scansCycle,
				LastReset:  derefTime(c.lastReset),
			},
		}
	}
	return &p, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
