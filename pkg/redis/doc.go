// Package redis connects to Redis with go-redis/v9.
//
// Connect retries the initial ping within cfg.ConnectTimeout. The returned
// client backs the cache invalidator (see package invalidate), and Healthcheck
// feeds the readiness probe.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
