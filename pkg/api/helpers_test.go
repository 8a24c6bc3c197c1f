package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/api"
	"github.com/dmitrymomot/menukit/pkg/billing"
	"github.com/dmitrymomot/menukit/pkg/httpserver"
	"github.com/dmitrymomot/menukit/pkg/invalidate"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/qrcode"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
	"github.com/dmitrymomot/menukit/pkg/store/memory"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
	"github.com/dmitrymomot/menukit/pkg/webhook"
)

const (
	webhookSecret = "whsec_test"
	keySecret     = "key_secret_test"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSubscription(ctx context.Context, req razorpay.CreateSubscriptionRequest) (*razorpay.CreatedSubscription, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*razorpay.CreatedSubscription)
	return out, args.Error(1)
}

type env struct {
	store   *memory.Store
	gateway *mockGateway
	handler http.Handler
}

func newEnv(t *testing.T, customize ...func(*api.Deps)) *env {
	t.Helper()

	catalog, err := plan.NewCatalog(context.Background(), plan.NewInMemSource(
		plan.Plan{ID: "trial", Name: "Trial", Trial: true, PeriodDays: 14, ScanLimit: plan.Limit(2)},
		plan.Plan{
			ID:            "gold",
			Name:          "Gold",
			PeriodDays:    365,
			ScanLimit:     plan.Limit(plan.Unlimited),
			Price:         plan.Money{Amount: 99900, Currency: "INR"},
			Features:      map[string]bool{"ordering": true, "pos": true},
			GatewayPlanID: "plan_gold",
			Public:        true,
		},
	))
	require.NoError(t, err)

	store := memory.New()
	svc := subscription.NewService(catalog, store, store, invalidate.Noop{}, subscription.WithClock(clock))
	gen, err := qrcode.NewGenerator(qrcode.Config{BaseURL: "https://menu.example.com", Size: 128})
	require.NoError(t, err)

	e := &env{store: store, gateway: &mockGateway{}}
	deps := api.Deps{
		Catalog:   catalog,
		Service:   svc,
		Meter:     usage.NewMeter(catalog, store, usage.WithResolver(store), usage.WithClock(clock)),
		Processor: billing.NewWebhookProcessor(webhookSecret, svc, billing.WithClock(clock)),
		Verifier:  billing.NewPaymentVerifier(keySecret, catalog, svc, store, billing.WithClock(clock)),
		Checkout:  billing.NewCheckout("rzp_test_key", catalog, e.gateway),
		Payments:  store,
		QRCodes:   store,
		QR:        gen,
		Checks: []httpserver.Check{
			{Name: "store", Fn: store.Ping},
		},
		MaxBodyBytes: 4 << 10,
	}
	for _, fn := range customize {
		fn(&deps)
	}
	e.handler = api.NewRouter(deps)
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) onboard(t *testing.T, partnerID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/partners", map[string]string{"partner_id": partnerID, "country": "IN"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sign(secret string, msg []byte) string {
	return webhook.Sign(secret, msg)
}
