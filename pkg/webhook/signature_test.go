package webhook_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/webhook"
)

func TestSign(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"subscription.charged"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)

	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), webhook.Sign("secret", payload))
	assert.NotEqual(t, webhook.Sign("secret", payload), webhook.Sign("secret", []byte(`{"event": "subscription.charged"}`)))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"subscription.halted","payload":{}}`)
	valid := webhook.Sign("whsec", payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		wantErr   error
	}{
		{name: "valid", secret: "whsec", payload: payload, signature: valid},
		{name: "missing secret", secret: "", payload: payload, signature: valid, wantErr: webhook.ErrMissingSecret},
		{name: "missing signature", secret: "whsec", payload: payload, signature: "", wantErr: webhook.ErrMissingSignature},
		{name: "wrong secret", secret: "other", payload: payload, signature: valid, wantErr: webhook.ErrInvalidSignature},
		{name: "tampered body", secret: "whsec", payload: append(bytes.Clone(payload), ' '), signature: valid, wantErr: webhook.ErrInvalidSignature},
		{name: "uppercase hex", secret: "whsec", payload: payload, signature: toUpper(valid), wantErr: webhook.ErrInvalidSignature},
		{name: "empty body signed", secret: "whsec", payload: nil, signature: webhook.Sign("whsec", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := webhook.Verify(tt.secret, tt.payload, tt.signature)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, webhook.ErrAuthentication)
		})
	}
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func FuzzVerify_RejectsTampering(f *testing.F) {
	f.Add([]byte(`{"event":"subscription.charged"}`), "whsec", byte(0), 0)
	f.Add([]byte(`{}`), "k", byte(1), 1)
	f.Add([]byte(`{"a":[1,2,3]}`), "secret-with-symbols!@#", byte(0x80), 5)

	f.Fuzz(func(t *testing.T, payload []byte, secret string, flip byte, pos int) {
		if secret == "" || len(payload) == 0 {
			t.Skip()
		}
		sig := webhook.Sign(secret, payload)
		require.NoError(t, webhook.Verify(secret, payload, sig))

		if flip != 0 {
			tampered := bytes.Clone(payload)
			if pos < 0 {
				pos = -pos
			}
			tampered[pos%len(tampered)] ^= flip
			assert.ErrorIs(t, webhook.Verify(secret, tampered, sig), webhook.ErrAuthentication)
		}

		assert.ErrorIs(t, webhook.Verify(secret+"x", payload, sig), webhook.ErrAuthentication)
		assert.ErrorIs(t, webhook.Verify(secret, append(bytes.Clone(payload), '\n'), sig), webhook.ErrAuthentication)
	})
}

func TestSignPayload_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"tags":["partner:p1"]}`)
	sig, err := webhook.SignPayload("secret", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, sig.ID)

	h := http.Header{}
	sig.Apply(h)
	got, err := webhook.ExtractSignatureHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	require.NoError(t, webhook.VerifySignature("secret", payload, got, 5*time.Minute))
	assert.ErrorIs(t, webhook.VerifySignature("wrong", payload, got, 5*time.Minute), webhook.ErrInvalidSignature)
	assert.ErrorIs(t, webhook.VerifySignature("secret", []byte(`{}`), got, 5*time.Minute), webhook.ErrInvalidSignature)
}

func TestSignPayload_Errors(t *testing.T) {
	t.Parallel()

	_, err := webhook.SignPayload("", []byte("x"))
	assert.ErrorIs(t, err, webhook.ErrMissingSecret)

	_, err = webhook.SignPayload("secret", nil)
	assert.ErrorIs(t, err, webhook.ErrInvalidPayload)
}

func TestVerifySignature_Age(t *testing.T) {
	t.Parallel()

	payload := []byte("x")
	old := time.Now().Add(-10 * time.Minute).Unix()
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(strconv.FormatInt(old, 10) + ".x"))
	headers := webhook.SignatureHeaders{Signature: hex.EncodeToString(mac.Sum(nil)), Timestamp: old}

	assert.ErrorIs(t, webhook.VerifySignature("secret", payload, headers, 5*time.Minute), webhook.ErrExpiredSignature)
	assert.NoError(t, webhook.VerifySignature("secret", payload, headers, 0))

	future := headers
	future.Timestamp = time.Now().Add(time.Hour).Unix()
	assert.ErrorIs(t, webhook.VerifySignature("secret", payload, future, 5*time.Minute), webhook.ErrExpiredSignature)
}

func TestExtractSignatureHeaders_Missing(t *testing.T) {
	t.Parallel()

	_, err := webhook.ExtractSignatureHeaders(http.Header{})
	assert.ErrorIs(t, err, webhook.ErrMissingSignature)

	h := http.Header{}
	h.Set(webhook.HeaderSignature, "abc")
	h.Set(webhook.HeaderTimestamp, "not-a-number")
	_, err = webhook.ExtractSignatureHeaders(h)
	assert.ErrorIs(t, err, webhook.ErrMissingSignature)
}
