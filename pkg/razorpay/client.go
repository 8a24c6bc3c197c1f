package razorpay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/sony/gobreaker/v2"

	"github.com/dmitrymomot/menukit/pkg/logger"
)

const defaultTotalCount = 12

// SubscriptionCreator is the subset of the Razorpay SDK the client calls.
// *resources.Subscription from razorpay-go satisfies it.
type SubscriptionCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// CreateSubscriptionRequest opens a gateway subscription for a partner.
type CreateSubscriptionRequest struct {
	GatewayPlanID  string
	PartnerID      string
	InternalPlanID string
	StoreName      string
	TotalCount     int
}

// CreatedSubscription is the gateway's answer to a create call.
type CreatedSubscription struct {
	ID        string `json:"id"`
	PlanID    string `json:"plan_id"`
	Status    string `json:"status"`
	ShortURL  string `json:"short_url,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Client calls the Razorpay subscriptions API.
type Client struct {
	subs       SubscriptionCreator
	breaker    *gobreaker.CircuitBreaker[map[string]interface{}]
	totalCount int
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSubscriptionCreator replaces the SDK resource, mainly for tests.
func WithSubscriptionCreator(sc SubscriptionCreator) ClientOption {
	return func(c *Client) {
		if sc != nil {
			c.subs = sc
		}
	}
}

// WithClientLogger sets the logger used for breaker state changes.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client from credentials. It returns ErrMissingCredentials
// when neither credentials nor an explicit SubscriptionCreator are supplied.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	c := &Client{
		totalCount: cfg.TotalCount,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if c.totalCount <= 0 {
		c.totalCount = defaultTotalCount
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.subs == nil {
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, ErrMissingCredentials
		}
		c.subs = rzp.NewClient(cfg.KeyID, cfg.KeySecret).Subscription
	}

	c.breaker = gobreaker.NewCircuitBreaker[map[string]interface{}](gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				logger.Component("razorpay"),
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// CreateSubscription creates a pending gateway subscription. Partner and plan
// references travel in the notes so webhooks can be routed back.
func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*CreatedSubscription, error) {
	if req.GatewayPlanID == "" {
		return nil, ErrMissingPlanID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := req.TotalCount
	if total <= 0 {
		total = c.totalCount
	}

	data := map[string]interface{}{
		"plan_id":         req.GatewayPlanID,
		"total_count":     total,
		"customer_notify": 1,
		"notes": map[string]interface{}{
			"partner_id":       req.PartnerID,
			"internal_plan_id": req.InternalPlanID,
			"store_name":       req.StoreName,
		},
	}

	resp, err := c.breaker.Execute(func() (map[string]interface{}, error) {
		return c.subs.Create(data, nil)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrGatewayUnavailable
		}
		return nil, errors.Join(ErrGateway, err)
	}

	out := &CreatedSubscription{
		ID:       stringField(resp, "id"),
		PlanID:   stringField(resp, "plan_id"),
		Status:   stringField(resp, "status"),
		ShortURL: stringField(resp, "short_url"),
	}
	if ts, ok := resp["created_at"].(float64); ok {
		out.CreatedAt = int64(ts)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: missing subscription id", ErrUnexpectedResponse)
	}
	return out, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
