package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/menukit/pkg/billing"
	"github.com/dmitrymomot/menukit/pkg/httpserver"
	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/qrcode"
	"github.com/dmitrymomot/menukit/pkg/ratelimiter"
	"github.com/dmitrymomot/menukit/pkg/requestid"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
)

const defaultMaxBody = 1 << 20

// PaymentLister reads the payment ledger.
type PaymentLister interface {
	ListPayments(ctx context.Context, partnerID string) ([]subscription.PaymentRecord, error)
}

// QRRegistry links menu QR codes to partners.
type QRRegistry interface {
	AssignQR(ctx context.Context, qrID, partnerID string) error
	ResolvePartner(ctx context.Context, qrID string) (string, error)
}

// Deps are the components behind the routes. Catalog, Service, Meter, Processor
// and Verifier are required. Routes of a nil optional dependency are not mounted.
type Deps struct {
	Catalog   plan.Catalog
	Service   subscription.Service
	Meter     *usage.Meter
	Processor *billing.WebhookProcessor
	Verifier  *billing.PaymentVerifier

	Checkout *billing.Checkout
	Payments PaymentLister
	QRCodes  QRRegistry
	QR       *qrcode.Generator
	Checks   []httpserver.Check

	// ScanLimiter throttles the scan routes per client and menu.
	ScanLimiter *ratelimiter.Bucket

	Logger       *slog.Logger
	MaxBodyBytes int64
	// RequestTimeout bounds every request except health probes. Zero disables it.
	RequestTimeout time.Duration
}

type handlers struct {
	Deps
	log      *slog.Logger
	validate *validator.Validate
	maxBody  int64
}

// NewRouter builds the HTTP handler. Panics if a required dependency is nil.
func NewRouter(d Deps) http.Handler {
	switch {
	case d.Catalog == nil:
		panic("api: plan catalog is required")
	case d.Service == nil:
		panic("api: subscription service is required")
	case d.Meter == nil:
		panic("api: usage meter is required")
	case d.Processor == nil:
		panic("api: webhook processor is required")
	case d.Verifier == nil:
		panic("api: payment verifier is required")
	}

	h := &handlers{
		Deps:     d,
		log:      d.Logger,
		validate: newValidator(),
		maxBody:  d.MaxBodyBytes,
	}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBody
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(recoverer(h.log))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(h.log, 2*time.Second, d.Checks...))

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}

		r.Post("/webhooks/razorpay", h.razorpayWebhook)

		r.Route("/subscriptions", func(r chi.Router) {
			if d.Checkout != nil {
				r.Post("/", h.createSubscription)
			}
			r.Post("/verify", h.verifyPayment)
		})

		r.With(h.throttleScans("qrID")...).Post("/scans/{qrID}", h.meterQR)

		r.Get("/plans", h.listPlans)
		if d.QR != nil {
			r.Get("/qr/{qrID}.png", h.qrImage)
		}

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", h.onboard)
			r.Route("/{partnerID}", func(r chi.Router) {
				r.Post("/upgrade", h.upgrade)
				r.Get("/subscription", h.getSubscription)
				r.Get("/features/{key}", h.hasFeature)
				r.With(h.throttleScans("partnerID")...).Post("/scans", h.meterPartner)
				if d.Payments != nil {
					r.Get("/payments", h.listPayments)
				}
				if d.QRCodes != nil {
					r.Put("/qr/{qrID}", h.assignQR)
				}
			})
		})
	})

	return r
}

// throttleScans limits scans per client IP and route parameter.
func (h *handlers) throttleScans(param string) []func(http.Handler) http.Handler {
	if h.ScanLimiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		ratelimiter.Middleware(h.ScanLimiter,
			ratelimiter.Composite(ratelimiter.ByIP, ratelimiter.ByURLParam(param)),
			ratelimiter.WithLogger(h.log),
			ratelimiter.WithDeniedHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.fail(w, r, ErrTooManyScans)
			})),
		),
	}
}

// requestLogger logs one line per request. 5xx responses log at error level.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				logger.Component("api"),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("remote_ip", r.RemoteAddr),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// recoverer turns a handler panic into a logged 500 response.
func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorContext(r.Context(), "handler panic",
					logger.Component("api"),
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
