// Package webhook provides HMAC-SHA256 signature primitives and reliable outbound
// webhook delivery.
//
// # Signatures
//
// Sign and Verify implement the raw body scheme used by payment gateways: the signature
// is the hex encoded HMAC-SHA256 of the exact request bytes, compared in constant time.
//
//	if err := webhook.Verify(secret, body, r.Header.Get("X-Razorpay-Signature")); err != nil {
//		// errors.Is(err, webhook.ErrAuthentication) == true
//	}
//
// SignPayload and VerifySignature add a timestamp to the signed message for outbound
// deliveries so receivers can reject replays.
//
// # Delivery
//
// Sender POSTs JSON with retries, exponential backoff and an optional circuit breaker
// backed by sony/gobreaker:
//
//	sender := webhook.NewSender()
//	breaker := webhook.NewBreaker("storefront", webhook.DefaultBreakerConfig(), log)
//
//	err := sender.Send(ctx, "https://storefront.example.com/api/revalidate", body,
//		webhook.WithSignature(secret),
//		webhook.WithMaxRetries(2),
//		webhook.WithCircuitBreaker(breaker),
//	)
//
// Network errors, 5xx and 408/425/429 responses are retried. Other 4xx responses
// return ErrPermanentFailure at once. When the breaker is open Send returns
// ErrCircuitOpen without making a request.
package webhook
