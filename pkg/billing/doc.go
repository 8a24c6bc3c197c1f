// Package billing hosts the gateway-facing entry points of the subscription engine.
//
// WebhookProcessor authenticates and applies Razorpay subscription webhooks.
// PaymentVerifier confirms a checkout payment signature and activates the plan.
// Checkout opens a pending gateway subscription for a partner.
//
// Every entry point returns a structured result with a success discriminant and
// never panics on bad input. The underlying error, when any, is available on the
// result's Err field and matches one of the taxonomy sentinels in errors.go:
//
//	res := processor.Handle(ctx, body, r.Header.Get(razorpay.SignatureHeader))
//	w.WriteHeader(res.StatusCode)
//	json.NewEncoder(w).Encode(res)
//
//	if errors.Is(res.Err, billing.ErrAuthentication) {
//		// signature problem
//	}
package billing
