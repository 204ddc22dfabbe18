package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces all cache keys in Redis.
const keyPrefix = "scribe:resp"

// Key identifies a cached response by endpoint and query.
type Key struct {
	// Endpoint is the backend endpoint path (e.g., "/posts/")
	Endpoint string

	// Query holds the request query parameters
	Query url.Values
}

// String generates a deterministic Redis key.
// Format: scribe:resp:endpoint:query1=val1:query2=val2
//
// Example:
//
//	scribe:resp:posts:cursor=abc
func (k Key) String() string {
	parts := []string{keyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}

// PrefixPattern returns the Redis MATCH pattern covering every key under
// an endpoint prefix, used for invalidation after writes.
func PrefixPattern(endpointPrefix string) string {
	endpoint := strings.Trim(endpointPrefix, "/")
	if endpoint == "" {
		return keyPrefix + ":*"
	}
	return keyPrefix + ":" + endpoint + "*"
}
