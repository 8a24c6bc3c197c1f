package plan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/menukit/pkg/plan"
)

func TestPlan_Period(t *testing.T) {
	t.Parallel()

	assert.Equal(t, plan.DefaultPeriodDays, plan.Plan{}.Period())
	assert.Equal(t, 30, plan.Plan{PeriodDays: 30}.Period())

	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC), plan.Plan{}.ExpiresAt(start))
	assert.Equal(t, time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC), plan.Plan{PeriodDays: 14}.ExpiresAt(start))
}

func TestPlan_EffectiveScanLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     *int64
		want      int64
		unlimited bool
	}{
		{name: "not configured", limit: nil, want: plan.DefaultScanLimit},
		{name: "explicit zero", limit: plan.Limit(0), want: 0},
		{name: "configured", limit: plan.Limit(100), want: 100},
		{name: "unlimited", limit: plan.Limit(plan.Unlimited), want: plan.Unlimited, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := plan.Plan{ScanLimit: tt.limit}
			assert.Equal(t, tt.want, p.EffectiveScanLimit())
			assert.Equal(t, tt.unlimited, p.IsUnlimited())
		})
	}
}
