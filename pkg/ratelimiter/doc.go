// Package ratelimiter throttles requests with a token bucket.
//
// A Bucket holds Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that would take the
// bucket below zero is denied and consumes nothing. State lives in a Store:
// MemoryStore for a single process, RedisStore when several replicas share
// the limit.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     1,
//		RefillInterval: 3 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(bucket,
//		ratelimiter.Composite(ratelimiter.ByIP, ratelimiter.ByURLParam("qrID")),
//	)).Post("/scans/{qrID}", meterQR)
//
// The middleware sets X-RateLimit-* headers on every response and Retry-After
// on denials. Store failures let the request through and are logged.
package ratelimiter
