package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/webhook"
)

type revalidate struct {
	Tags []string `json:"tags"`
}

func fastRetry(n int) []webhook.SendOption {
	return []webhook.SendOption{
		webhook.WithMaxRetries(n),
		webhook.WithBackoff(webhook.FixedBackoff{Interval: time.Millisecond}),
	}
}

func TestSender_Send_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "menukit-webhook/1.0", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"tags":["partner:p1"]}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{Tags: []string{"partner:p1"}})
	assert.NoError(t, err)
}

func TestSender_Send_Signed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))

		headers, err := webhook.ExtractSignatureHeaders(r.Header)
		assert.NoError(t, err)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, webhook.VerifySignature("revalidate-secret", body, headers, time.Minute))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var results []webhook.DeliveryResult
	err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{Tags: []string{"partner:p1"}},
		webhook.WithSignature("revalidate-secret"),
		webhook.WithHeader("X-Custom", "yes"),
		webhook.WithTimeout(5*time.Second),
		webhook.WithOnDelivery(func(r webhook.DeliveryResult) { results = append(results, r) }),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 1, results[0].Attempt)
	assert.Equal(t, http.StatusNoContent, results[0].StatusCode)
}

func TestSender_Send_RetriesTemporaryFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{}, fastRetry(3)...)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_Send_GivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{}, fastRetry(2)...)
	assert.ErrorIs(t, err, webhook.ErrWebhookDeliveryFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_Send_PermanentFailure(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(code)
		}))

		err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{}, fastRetry(3)...)
		assert.ErrorIs(t, err, webhook.ErrPermanentFailure, "status %d", code)
		assert.Equal(t, int32(1), calls.Load(), "status %d", code)
		server.Close()
	}
}

func TestSender_Send_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, webhook.NewSender().Send(context.Background(), server.URL, revalidate{}, fastRetry(1)...))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_Send_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := webhook.NewBreaker("test", webhook.BreakerConfig{FailureThreshold: 2, Timeout: time.Hour}, nil)
	sender := webhook.NewSender()
	opts := append(fastRetry(0), webhook.WithCircuitBreaker(breaker))

	for range 2 {
		err := sender.Send(context.Background(), server.URL, revalidate{}, opts...)
		assert.ErrorIs(t, err, webhook.ErrWebhookDeliveryFailed)
	}

	err := sender.Send(context.Background(), server.URL, revalidate{}, opts...)
	assert.ErrorIs(t, err, webhook.ErrCircuitOpen)
	assert.True(t, webhook.IsCircuitOpen(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_Send_CircuitBreakerRecovers(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := webhook.NewBreaker("recover", webhook.BreakerConfig{FailureThreshold: 1, MaxRequests: 1, Timeout: 50 * time.Millisecond}, nil)
	sender := webhook.NewSender()
	opts := append(fastRetry(0), webhook.WithCircuitBreaker(breaker))

	assert.Error(t, sender.Send(context.Background(), server.URL, revalidate{}, opts...))
	assert.ErrorIs(t, sender.Send(context.Background(), server.URL, revalidate{}, opts...), webhook.ErrCircuitOpen)

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)
	assert.NoError(t, sender.Send(context.Background(), server.URL, revalidate{}, opts...))
}

func TestSender_Send_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := webhook.NewSender().Send(context.Background(), server.URL, revalidate{},
		webhook.WithTimeout(20*time.Millisecond), webhook.WithMaxRetries(0))
	assert.ErrorIs(t, err, webhook.ErrTimeout)
}

func TestSender_Send_ContextCancelledBetweenRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := webhook.NewSender().Send(ctx, server.URL, revalidate{},
		webhook.WithMaxRetries(5), webhook.WithBackoff(webhook.FixedBackoff{Interval: time.Second}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSender_Send_ValidationErrors(t *testing.T) {
	t.Parallel()

	sender := webhook.NewSender()
	tests := []struct {
		name    string
		url     string
		data    any
		wantErr error
	}{
		{name: "empty url", url: "", data: revalidate{}, wantErr: webhook.ErrInvalidURL},
		{name: "ftp scheme", url: "ftp://example.com/hook", data: revalidate{}, wantErr: webhook.ErrInvalidURL},
		{name: "no host", url: "http://", data: revalidate{}, wantErr: webhook.ErrInvalidURL},
		{name: "unmarshalable payload", url: "https://example.com", data: make(chan int), wantErr: webhook.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, sender.Send(context.Background(), tt.url, tt.data), tt.wantErr)
		})
	}
}
