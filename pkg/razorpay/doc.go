// Package razorpay adapts the Razorpay payment gateway to the subscription engine.
//
// It covers the three gateway touch points:
//
//   - ParseEvent decodes a subscription webhook into a subscription.Event variant.
//   - VerifyWebhook and VerifyPayment check the gateway's HMAC-SHA256 signatures.
//   - Client.CreateSubscription opens a pending gateway subscription for checkout.
//
// Webhook bodies must be verified before parsing:
//
//	sig := r.Header.Get(razorpay.SignatureHeader)
//	if err := razorpay.VerifyWebhook(cfg.WebhookSecret, body, sig); err != nil {
//		// reject
//	}
//	ev, err := razorpay.ParseEvent(body)
//
// The API client wraps github.com/razorpay/razorpay-go behind a circuit breaker.
package razorpay
