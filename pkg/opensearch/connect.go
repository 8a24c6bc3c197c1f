package opensearch

import (
	"context"
	"errors"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
)

// New creates a client and waits until the cluster answers, retrying up to
// cfg.ConnectRetries times.
func New(ctx context.Context, cfg Config) (*opensearch.Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.Join(ErrConnectionFailed, ErrNoAddresses)
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	check := Healthcheck(client)
	attempts := max(cfg.ConnectRetries, 1)
	for i := range attempts {
		if err = check(ctx); err == nil {
			return client, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(cfg.ConnectBackoff):
		}
	}

	return nil, errors.Join(ErrConnectionFailed, err)
}
