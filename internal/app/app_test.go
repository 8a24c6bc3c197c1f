package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/internal/app"
	"github.com/dmitrymomot/menukit/pkg/feature"
	"github.com/dmitrymomot/menukit/pkg/ratelimiter"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
	"github.com/dmitrymomot/menukit/pkg/store/memory"
)

type stubGateway struct{}

func (stubGateway) CreateSubscription(context.Context, razorpay.CreateSubscriptionRequest) (*razorpay.CreatedSubscription, error) {
	return &razorpay.CreatedSubscription{ID: "sub_stub"}, nil
}

func baseConfig() app.Config {
	cfg := app.Config{StoreDriver: app.DriverMemory}
	cfg.QR.BaseURL = "https://menu.example.com"
	cfg.Razorpay.KeyID = "rzp_test_key"
	return cfg
}

func TestLoadCatalog_Embedded(t *testing.T) {
	t.Parallel()

	c, err := app.LoadCatalog(context.Background(), app.Config{})
	require.NoError(t, err)

	trial, ok := c.Trial()
	require.True(t, ok)
	assert.Equal(t, "trial", trial.ID)

	for _, p := range c.List() {
		for name := range p.Features {
			_, err := feature.ParseKey(name)
			assert.NoError(t, err, "plan %s uses unknown feature %s", p.ID, name)
		}
		if !p.Trial {
			assert.NotEmpty(t, p.GatewayPlanID, p.ID)
			assert.NotEmpty(t, p.GatewayPlanIDTest, p.ID)
		}
	}

	growth, err := c.Get("growth")
	require.NoError(t, err)
	assert.Equal(t, "plan_growth_live", c.GatewayPlanID(growth))
}

func TestLoadCatalog_TestModeAndFile(t *testing.T) {
	t.Parallel()

	cfg := app.Config{}
	cfg.Razorpay.TestMode = true
	c, err := app.LoadCatalog(context.Background(), cfg)
	require.NoError(t, err)
	growth, err := c.Get("growth")
	require.NoError(t, err)
	assert.Equal(t, "plan_growth_test", c.GatewayPlanID(growth))

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nplans:\n  - id: solo\n    trial: true\n"), 0o600))
	c, err = app.LoadCatalog(context.Background(), app.Config{PlansFile: path})
	require.NoError(t, err)
	require.Len(t, c.List(), 1)
}

func TestNew(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), baseConfig(), nil, app.WithGateway(stubGateway{}))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close(context.Background())) })

	require.NotNil(t, a.Checkout)
	assert.IsType(t, &memory.Store{}, a.Store)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(`{"partner_id":"p-1"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(`{"plan_id":"growth","partner_id":"p-1"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"subscription_id":"sub_stub","key_id":"rzp_test_key"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	var plans struct {
		Plans []struct {
			ID string `json:"id"`
		} `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	ids := make([]string, 0, len(plans.Plans))
	for _, p := range plans.Plans {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"starter", "growth"}, ids)
}

func TestNew_CheckoutDisabledWithoutCredentials(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Razorpay.KeyID = ""
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Checkout)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(`{}`)))
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*app.Config)
		wantErr error
	}{
		{name: "unknown driver", mutate: func(c *app.Config) { c.StoreDriver = "sqlite" }, wantErr: app.ErrUnknownDriver},
		{name: "unknown invalidator", mutate: func(c *app.Config) { c.Invalidators = []string{"memcached"} }, wantErr: app.ErrUnknownInvalidator},
		{name: "unknown limiter store", mutate: func(c *app.Config) {
			c.ScanRate = ratelimiter.Config{Enabled: true, Store: "etcd", Capacity: 1, RefillRate: 1, RefillInterval: time.Second}
		}, wantErr: app.ErrUnknownLimiterStore},
		{name: "invalid limiter shape", mutate: func(c *app.Config) {
			c.ScanRate = ratelimiter.Config{Enabled: true, Store: ratelimiter.StoreMemory}
		}, wantErr: ratelimiter.ErrInvalidConfig},
		{name: "bad qr base url", mutate: func(c *app.Config) { c.QR.BaseURL = "not a url" }},
		{name: "missing plans file", mutate: func(c *app.Config) { c.PlansFile = "/nonexistent/plans.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := app.New(context.Background(), cfg, nil, app.WithGateway(stubGateway{}))
			require.Error(t, err)
			assert.ErrorIs(t, err, app.ErrSetup)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	require.NoError(t, app.Migrate(context.Background(), app.Config{StoreDriver: app.DriverMemory}, nil))

	err := app.Migrate(context.Background(), app.Config{StoreDriver: "cassandra"}, nil)
	assert.ErrorIs(t, err, app.ErrUnknownDriver)
	assert.ErrorIs(t, err, app.ErrSetup)
}

func TestNew_ScanLimiter(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.ScanRate = ratelimiter.Config{Enabled: true, Store: ratelimiter.StoreMemory, Capacity: 1, RefillRate: 1, RefillInterval: time.Hour}
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close(context.Background())) })

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/partners", strings.NewReader(`{"partner_id":"p-1"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec = httptest.NewRecorder()
		a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/partners/p-1/scans", nil))
		assert.Equal(t, want, rec.Code)
	}
}
