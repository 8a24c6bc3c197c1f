package subscription

import (
	"time"

	"github.com/dmitrymomot/menukit/pkg/plan"
)

// Usage is the rolling monthly scan counter.
type Usage struct {
	ScansCycle int64     `json:"scans_cycle"`
	LastReset  time.Time `json:"last_reset"`
}

// SameCycle reports whether a and b fall into the same UTC calendar month.
func SameCycle(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Increment applies one scan at now against limit.
//
// A zero usage or one from an earlier calendar month is reset to {0, now} before the
// limit check. The returned bool is false when the counter is at or above limit; the
// counter is then left as is. plan.Unlimited always increments.
func (u Usage) Increment(limit int64, now time.Time) (Usage, bool) {
	now = now.UTC()
	if u.LastReset.IsZero() || !SameCycle(u.LastReset, now) {
		u = Usage{LastReset: now}
	}

	if limit != plan.Unlimited && u.ScansCycle >= limit {
		return u, false
	}

	u.ScansCycle++
	return u, true
}
