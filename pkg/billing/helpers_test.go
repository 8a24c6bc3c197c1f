package billing_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/store/memory"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/webhook"
)

const (
	webhookSecret = "whsec_test"
	keySecret     = "key_secret_test"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testCatalog(t *testing.T) plan.Catalog {
	t.Helper()

	c, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(
		plan.Plan{ID: "trial", Trial: true, PeriodDays: 14, ScanLimit: plan.Limit(100)},
		plan.Plan{
			ID:                "gold",
			Name:              "Gold",
			PeriodDays:        365,
			ScanLimit:         plan.Limit(plan.Unlimited),
			Price:             plan.Money{Amount: 99900, Currency: "INR"},
			Features:          map[string]bool{"ordering": true, "pos": true},
			GatewayPlanID:     "plan_gold",
			GatewayPlanIDTest: "plan_gold_test",
		},
		plan.Plan{ID: "offline", Name: "Offline", PeriodDays: 30},
	))
	require.NoError(t, err)
	return c
}

// spyStore counts reads and writes that reach the partner store.
type spyStore struct {
	*memory.Store
	gets    atomic.Int32
	updates atomic.Int32
	failing bool
}

func (s *spyStore) Get(ctx context.Context, id string) (*subscription.Partner, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, id)
}

func (s *spyStore) UpdateStatus(ctx context.Context, id string, upd subscription.StatusUpdate, now time.Time) error {
	s.updates.Add(1)
	if s.failing {
		return errors.New("connection reset")
	}
	return s.Store.UpdateStatus(ctx, id, upd, now)
}

type failingLedger struct{}

func (failingLedger) AppendPayment(context.Context, subscription.PaymentRecord) error {
	return errors.New("ledger offline")
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, partnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, partnerID)
	return nil
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type env struct {
	catalog plan.Catalog
	store   *spyStore
	inv     *recordingInvalidator
	svc     subscription.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		catalog: testCatalog(t),
		store:   &spyStore{Store: memory.New()},
		inv:     &recordingInvalidator{},
	}
	e.svc = subscription.NewService(e.catalog, e.store, e.store, e.inv, subscription.WithClock(clock))
	return e
}

func (e *env) onboard(t *testing.T, partnerID string) {
	t.Helper()
	_, err := e.svc.Onboard(context.Background(), partnerID, "IN")
	require.NoError(t, err)
}

func sign(secret, msg string) string {
	return webhook.Sign(secret, []byte(msg))
}
