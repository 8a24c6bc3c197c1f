package opensearch

import "errors"

var (
	// ErrConnectionFailed indicates the client could not be created or the cluster
	// never answered during New.
	ErrConnectionFailed = errors.New("opensearch connection failed")

	// ErrHealthcheckFailed indicates the cluster is unreachable or unhealthy.
	ErrHealthcheckFailed = errors.New("opensearch healthcheck failed")

	// ErrNoAddresses is returned when Config.Addresses is empty.
	ErrNoAddresses = errors.New("no opensearch addresses configured")
)
