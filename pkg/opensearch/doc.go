// Package opensearch connects to an OpenSearch cluster.
//
// Config is populated from OPENSEARCH_* variables through pkg/config. New builds an
// *opensearch.Client and retries the cluster info call until it succeeds, so a
// service starting next to a cold cluster does not fail immediately. Healthcheck
// returns the same probe for readiness endpoints.
//
//	cfg := config.MustLoad[opensearch.Config]()
//	client, err := opensearch.New(ctx, cfg)
//	if errors.Is(err, opensearch.ErrConnectionFailed) {
//		// cluster unreachable
//	}
//
// The scan analytics recorder in pkg/analytics writes through this client.
package opensearch
