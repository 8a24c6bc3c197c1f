package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/dmitrymomot/menukit/pkg/usage"
)

// Config is read from ANALYTICS_* variables.
type Config struct {
	Enabled     bool   `env:"ANALYTICS_ENABLED" envDefault:"false"`
	IndexPrefix string `env:"ANALYTICS_INDEX_PREFIX" envDefault:"menukit-scans"`
}

// Indexer writes one JSON document into an index.
type Indexer interface {
	Index(ctx context.Context, index string, body []byte) error
}

// Noop drops every scan.
type Noop struct{}

func (Noop) Record(context.Context, usage.Scan) error { return nil }

// OpenSearch indexes scans into daily indices.
type OpenSearch struct {
	indexer Indexer
	prefix  string
}

// NewOpenSearch creates a recorder. Panics if indexer is nil.
func NewOpenSearch(indexer Indexer, cfg Config) *OpenSearch {
	if indexer == nil {
		panic("analytics: indexer is required")
	}
	prefix := strings.TrimSuffix(cfg.IndexPrefix, "-")
	if prefix == "" {
		prefix = "menukit-scans"
	}
	return &OpenSearch{indexer: indexer, prefix: prefix}
}

// IndexName returns the daily index for t, in UTC.
func (o *OpenSearch) IndexName(t time.Time) string {
	return o.prefix + "-" + t.UTC().Format("2006.01.02")
}

func (o *OpenSearch) Record(ctx context.Context, scan usage.Scan) error {
	if scan.PartnerID == "" {
		return ErrMissingPartner
	}
	if scan.At.IsZero() {
		scan.At = time.Now()
	}
	scan.At = scan.At.UTC()

	body, err := json.Marshal(scan)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	if err := o.indexer.Index(ctx, o.IndexName(scan.At), body); err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	return nil
}

// ClientIndexer adapts *opensearch.Client to Indexer.
type ClientIndexer struct {
	client *opensearch.Client
}

// NewClientIndexer wraps client. Panics if client is nil.
func NewClientIndexer(client *opensearch.Client) *ClientIndexer {
	if client == nil {
		panic("analytics: opensearch client is required")
	}
	return &ClientIndexer{client: client}
}

func (c *ClientIndexer) Index(ctx context.Context, index string, body []byte) error {
	res, err := c.client.Index(index, bytes.NewReader(body),
		c.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return fmt.Errorf("index %s: %s: %s", index, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
