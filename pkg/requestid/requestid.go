package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// Header carries the request id in both directions.
	Header = "X-Request-ID"
	// GatewayEventHeader is the delivery id Razorpay sends with each webhook.
	GatewayEventHeader = "X-Razorpay-Event-Id"

	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type contextKey struct{}

// WithContext stores id in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware assigns a request id from Header, then GatewayEventHeader, else a new
// UUID. Invalid client values are replaced. The id is echoed in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := pick(r.Header.Get(Header), r.Header.Get(GatewayEventHeader))
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// LoggerExtractor adds request_id to log records; pass it to logger.WithContextExtractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

func pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" && len(c) <= maxIDLength && validID.MatchString(c) {
			return c
		}
	}
	return uuid.NewString()
}
