package cache

import (
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(200, []byte(`{"status":"success"}`), time.Minute)

	if entry.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if entry.IsExpired() {
		t.Error("fresh entry should not be expired")
	}
	ttl := entry.TTL()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL() = %v, want (0, 1m]", ttl)
	}
}

func TestEntry_Expired(t *testing.T) {
	entry := NewEntry(200, []byte("{}"), -time.Second)

	if !entry.IsExpired() {
		t.Error("entry with past expiry should be expired")
	}
	if ttl := entry.TTL(); ttl != 0 {
		t.Errorf("TTL() = %v, want 0", ttl)
	}
}
