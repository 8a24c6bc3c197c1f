package plan

import (
	"maps"
	"time"
)

const (
	// Unlimited disables the scan quota (-1 chosen for SQL compatibility).
	Unlimited int64 = -1

	// DefaultScanLimit applies when a plan does not configure a quota.
	DefaultScanLimit int64 = 1000

	// DefaultPeriodDays applies when a plan does not configure a billing period.
	DefaultPeriodDays = 365
)

// Money represents a monetary amount in the smallest currency unit.
// For example, ₹999.00 would be Amount: 99900, Currency: "INR".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Plan describes a subscription tier. Plans are immutable after loading.
type Plan struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Version           int             `json:"version" yaml:"version"`
	Price             Money           `json:"price" yaml:"price"`
	PeriodDays        int             `json:"period_days" yaml:"period_days"`
	ScanLimit         *int64          `json:"scan_limit,omitempty" yaml:"scan_limit"` // nil = not configured, -1 = unlimited
	Features          map[string]bool `json:"features" yaml:"features"`
	GatewayPlanID     string          `json:"gateway_plan_id,omitempty" yaml:"gateway_plan_id"`
	GatewayPlanIDTest string          `json:"gateway_plan_id_test,omitempty" yaml:"gateway_plan_id_test"`
	Public            bool            `json:"public" yaml:"public"`
	Trial             bool            `json:"trial" yaml:"trial"`
}

// Period returns the billing period in days.
func (p Plan) Period() int {
	if p.PeriodDays <= 0 {
		return DefaultPeriodDays
	}
	return p.PeriodDays
}

// ExpiresAt returns the end of a billing period starting at start.
func (p Plan) ExpiresAt(start time.Time) time.Time {
	return start.AddDate(0, 0, p.Period()).UTC()
}

// Limit returns a pointer to n for use as Plan.ScanLimit.
func Limit(n int64) *int64 {
	return &n
}

// EffectiveScanLimit returns the monthly scan quota the meter enforces. An
// explicit zero allows no scans.
func (p Plan) EffectiveScanLimit() int64 {
	if p.ScanLimit == nil {
		return DefaultScanLimit
	}
	return *p.ScanLimit
}

// IsUnlimited reports whether scans are not metered for this plan.
func (p Plan) IsUnlimited() bool {
	return p.EffectiveScanLimit() == Unlimited
}

func (p Plan) clone() Plan {
	p.Features = maps.Clone(p.Features)
	if p.ScanLimit != nil {
		p.ScanLimit = Limit(*p.ScanLimit)
	}
	return p
}
