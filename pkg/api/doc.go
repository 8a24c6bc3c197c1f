// Package api exposes the billing and metering engine over HTTP with chi.
//
// Gateway-facing routes:
//
//	POST /webhooks/razorpay        raw body, X-Razorpay-Signature
//	POST /subscriptions            start a checkout
//	POST /subscriptions/verify     checkout callback
//	POST /scans/{qrID}             meter one menu scan
//
// Partner administration:
//
//	POST /partners
//	POST /partners/{id}/upgrade
//	GET  /partners/{id}/subscription
//	GET  /partners/{id}/features/{key}
//	GET  /partners/{id}/payments
//	POST /partners/{id}/scans
//	PUT  /partners/{id}/qr/{qrID}
//	GET  /plans
//	GET  /qr/{qrID}.png
//	GET  /healthz, /readyz
//
// Scan routes are throttled per client IP when Deps.ScanLimiter is set.
// Every response is JSON except the QR image. Internal errors are logged and
// reported to clients as "internal error".
package api
