// Package app wires menukit's packages into a running process.
//
// New reads a Config, opens the selected store driver (memory, postgres or
// mongo), builds the cache invalidation fan-out (redis, http, amqp), the
// optional OpenSearch scan recorder and the Razorpay checkout, and returns the
// HTTP handler from pkg/api. Close releases everything New opened.
//
// The default plan catalog is embedded in the binary; PLANS_FILE replaces it.
package app
