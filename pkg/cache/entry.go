package cache

import (
	"time"
)

// Entry represents a cached backend response.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Body is the raw response body
	Body []byte `json:"body"`

	// StoredAt is when the response was cached
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt is when the entry becomes stale
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry builds an entry valid for the given lifetime.
func NewEntry(statusCode int, body []byte, lifetime time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		StatusCode: statusCode,
		Body:       body,
		StoredAt:   now,
		ExpiresAt:  now.Add(lifetime),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
