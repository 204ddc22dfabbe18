// Package metrics provides the centralized Prometheus registry for the
// Scribe client. All metrics are defined in their respective packages
// (client, cache, session) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Gateway Metrics (pkg/client):
//   - scribe_requests_total{endpoint, status} (Counter): Requests by endpoint and
//     HTTP status; "cache" for cache hits, "network_error" for transport failures
//   - scribe_request_duration_seconds{endpoint} (Histogram): Request duration
//   - scribe_failures_total{kind} (Counter): Failure envelopes by kind
//     (network, auth, csrf, validation, generic)
//   - scribe_retries_total (Counter): Read retry attempts
//   - scribe_retry_exhausted_total (Counter): Reads that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - scribe_cache_hits_total (Counter): Response cache hits
//   - scribe_cache_misses_total (Counter): Response cache misses
//   - scribe_cache_evictions_total (Counter): Entries evicted by invalidation
//   - scribe_cache_errors_total{operation} (Counter): Cache operation errors
//
// Session Metrics (pkg/session):
//   - scribe_session_refresh_total{outcome} (Counter): Credential refresh attempts
//   - scribe_session_auth_total{operation, outcome} (Counter): Login/register calls
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(scribe_cache_hits_total[5m]) /
//   (rate(scribe_cache_hits_total[5m]) + rate(scribe_cache_misses_total[5m]))
//
//   # Failure Rate by Kind
//   rate(scribe_failures_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(scribe_request_duration_seconds_bucket[5m]))
//
//   # Refresh Failure Ratio
//   rate(scribe_session_refresh_total{outcome="failure"}[5m])
