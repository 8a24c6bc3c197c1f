package invalidate

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/menukit/pkg/webhook"
)

// HTTPConfig points at the storefront revalidation endpoint.
type HTTPConfig struct {
	URL        string        `env:"REVALIDATE_URL"`
	Secret     string        `env:"REVALIDATE_SECRET"`
	Timeout    time.Duration `env:"REVALIDATE_TIMEOUT" envDefault:"5s"`
	MaxRetries int           `env:"REVALIDATE_MAX_RETRIES" envDefault:"2"`
}

// RevalidateRequest is the JSON body posted to the storefront.
type RevalidateRequest struct {
	Tags      []string  `json:"tags"`
	PartnerID string    `json:"partner_id"`
	At        time.Time `json:"at"`
}

// HTTP posts signed revalidation requests. One circuit breaker guards the endpoint.
type HTTP struct {
	sender  *webhook.Sender
	cfg     HTTPConfig
	breaker *webhook.Breaker
	now     func() time.Time
}

// NewHTTP creates an HTTP invalidator. Panics if sender is nil.
func NewHTTP(sender *webhook.Sender, cfg HTTPConfig, breaker *webhook.Breaker) *HTTP {
	if sender == nil {
		panic("invalidate: webhook sender is required")
	}
	return &HTTP{sender: sender, cfg: cfg, breaker: breaker, now: time.Now}
}

func (h *HTTP) Invalidate(ctx context.Context, partnerID string) error {
	if partnerID == "" {
		return ErrEmptyPartnerID
	}

	opts := []webhook.SendOption{webhook.WithMaxRetries(h.cfg.MaxRetries)}
	if h.cfg.Timeout > 0 {
		opts = append(opts, webhook.WithTimeout(h.cfg.Timeout))
	}
	if h.cfg.Secret != "" {
		opts = append(opts, webhook.WithSignature(h.cfg.Secret))
	}
	if h.breaker != nil {
		opts = append(opts, webhook.WithCircuitBreaker(h.breaker))
	}

	err := h.sender.Send(ctx, h.cfg.URL, RevalidateRequest{
		Tags:      []string{Tag(partnerID)},
		PartnerID: partnerID,
		At:        h.now().UTC(),
	}, opts...)
	if err != nil {
		return errors.Join(ErrHTTPInvalidation, err)
	}
	return nil
}
