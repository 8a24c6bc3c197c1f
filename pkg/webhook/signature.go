package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Sign returns the hex encoded HMAC-SHA256 of payload. The payload is signed as raw
// bytes; re-serialised JSON produces a different signature.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a hex HMAC-SHA256 signature over payload in constant time.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if signature == "" {
		return ErrMissingSignature
	}
	expected := Sign(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Header names set on signed outbound requests.
const (
	HeaderSignature = "X-Menukit-Signature"
	HeaderTimestamp = "X-Menukit-Timestamp"
	HeaderID        = "X-Menukit-Delivery"
)

// SignatureHeaders is a timestamped signature for outbound deliveries.
// The signed message is timestamp + "." + payload.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply writes the signature headers to h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderID, s.ID)
}

// SignPayload signs an outbound payload bound to the current time.
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, ErrMissingSecret
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	ts := time.Now().Unix()
	return SignatureHeaders{
		Signature: Sign(secret, timestamped(ts, payload)),
		Timestamp: ts,
		ID:        uuid.New().String(),
	}, nil
}

// VerifySignature validates a timestamped signature. A positive maxAge rejects
// signatures older than maxAge or more than a minute in the future.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	if maxAge > 0 {
		age := time.Since(time.Unix(headers.Timestamp, 0))
		if age > maxAge || age < -time.Minute {
			return ErrExpiredSignature
		}
	}
	return Verify(secret, timestamped(headers.Timestamp, payload), headers.Signature)
}

// ExtractSignatureHeaders reads signature headers from an inbound request.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: h.Get(HeaderSignature),
		ID:        h.Get(HeaderID),
	}
	if sig.Signature == "" {
		return SignatureHeaders{}, ErrMissingSignature
	}

	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil || ts == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp", ErrMissingSignature)
	}
	sig.Timestamp = ts
	return sig, nil
}

func timestamped(ts int64, payload []byte) []byte {
	msg := make([]byte, 0, len(payload)+21)
	msg = strconv.AppendInt(msg, ts, 10)
	msg = append(msg, '.')
	return append(msg, payload...)
}
