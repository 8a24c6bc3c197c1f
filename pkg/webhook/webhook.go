package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const userAgent = "menukit-webhook/1.0"

// Sender posts JSON payloads to partner-facing endpoints. It is safe for concurrent use.
type Sender struct {
	client *http.Client
}

// NewSender returns a Sender backed by a pooled HTTP client.
func NewSender() *Sender {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Sender{client: &http.Client{Timeout: 30 * time.Second, Transport: transport}}
}

// Send marshals data and POSTs it to target.
//
// Network errors, 5xx, 408, 425 and 429 are retried with backoff. Any other 4xx
// stops immediately with ErrPermanentFailure.
func (s *Sender) Send(ctx context.Context, target string, data any, opts ...SendOption) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := checkTarget(target); err != nil {
		return err
	}

	o := newSendOptions(opts)
	var lastErr error
	for attempt := 1; attempt <= o.maxRetries+1; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(o.backoff.NextInterval(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		res, err := s.guarded(ctx, target, body, o)
		res.Attempt = attempt
		if o.onDelivery != nil {
			o.onDelivery(res)
		}

		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrCircuitOpen):
			return err
		case isPermanent(res.StatusCode):
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrWebhookDeliveryFailed, o.maxRetries+1, lastErr)
}

func (s *Sender) guarded(ctx context.Context, target string, body []byte, o *sendOptions) (DeliveryResult, error) {
	if o.breaker == nil {
		return s.post(ctx, target, body, o)
	}

	var res DeliveryResult
	_, err := o.breaker.Execute(func() (int, error) {
		var postErr error
		res, postErr = s.post(ctx, target, body, o)
		return res.StatusCode, postErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		res.Error = ErrCircuitOpen
		return res, ErrCircuitOpen
	}
	return res, err
}

func (s *Sender) post(ctx context.Context, target string, body []byte, o *sendOptions) (res DeliveryResult, err error) {
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.Error = err
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	if o.secret != "" {
		sig, err := SignPayload(o.secret, body)
		if err != nil {
			return res, err
		}
		sig.Apply(req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return res, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		res.Success = true
		return res, nil
	}
	return res, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, excerpt(resp.Body))
}

// excerpt reads at most 64KB of an error body and returns a single-line prefix.
func excerpt(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	msg := strings.ReplaceAll(string(raw), "\n", " ")
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}

func checkTarget(target string) error {
	if target == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	case u.Host == "":
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

// isPermanent reports 4xx responses that a retry cannot fix.
func isPermanent(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}
