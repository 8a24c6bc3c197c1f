// Package requestid tags every API request with a correlation id.
//
// Clients may send X-Request-ID. Razorpay webhook deliveries carry
// X-Razorpay-Event-Id, which is reused so a delivery can be traced from the
// gateway dashboard to the service logs. Otherwise a UUID is generated.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
