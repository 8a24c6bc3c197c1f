// Package analytics stores accepted menu scans for reporting.
//
// OpenSearch implements usage.Recorder by indexing one document per scan into a
// daily index named "<prefix>-YYYY.MM.DD". Noop drops records.
//
//	client, _ := opensearch.New(ctx, osCfg)
//	rec := analytics.NewOpenSearch(analytics.NewClientIndexer(client), cfg)
//	meter := usage.NewMeter(catalog, store, usage.WithRecorder(rec))
package analytics
