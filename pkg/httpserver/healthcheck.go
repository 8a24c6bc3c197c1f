package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/menukit/pkg/logger"
)

// Check is a named dependency probe, such as a database ping.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// HealthReport is the readiness response body.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always answers 200 {"status":"ok"}.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, http.StatusOK, HealthReport{Status: "ok"})
	}
}

// ReadinessHandler runs every check with the given timeout. Any failure answers 503.
// Error details are logged, not returned.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report := HealthReport{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Fn(ctx); err != nil {
				if log != nil {
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component("httpserver"),
						slog.String("check", c.Name),
						logger.Error(err),
					)
				}
				report.Checks[c.Name] = "error"
				report.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[c.Name] = "ok"
		}
		writeReport(w, status, report)
	}
}

func writeReport(w http.ResponseWriter, status int, report HealthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
