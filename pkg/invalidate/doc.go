// Package invalidate tells the storefront caching layer that a partner changed.
//
// Every implementation satisfies subscription.Invalidator. The subscription
// service calls Invalidate after each successful write; failures are logged by
// the caller and never roll back the write.
//
// Backends:
//
//   - Redis drops the partner's cache keys and publishes the partner id.
//   - HTTP posts a signed revalidation request through webhook.Sender.
//   - AMQP publishes a partner.subscription.changed message to a topic exchange.
//   - Noop does nothing.
//
// Multi fans out to several backends and Async detaches the call from the
// request so a slow cache never delays a webhook response:
//
//	inv := invalidate.NewAsync(
//		invalidate.Multi(invalidate.NewRedis(client, redisCfg), invalidate.NewHTTP(sender, httpCfg)),
//		invalidate.WithAsyncLogger(log),
//	)
//	defer inv.Close(context.Background())
package invalidate
