package cache

import (
	"context"
	"time"
)

// Entry is one cached upstream response body.
type Entry struct {
	Payload  []byte        `json:"payload"`
	Tags     []string      `json:"tags,omitempty"`
	StoredAt time.Time     `json:"storedAt"`
	TTL      time.Duration `json:"ttl"`
}

// ExpiresAt is the end of the revalidation window.
func (e Entry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}

// Fresh reports whether the entry may be served without revalidation.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt())
}

// Usable reports whether the entry may still be served when revalidation
// fails, i.e. it expired less than grace ago.
func (e Entry) Usable(now time.Time, grace time.Duration) bool {
	return now.Before(e.ExpiresAt().Add(grace))
}

// HasTag reports whether the entry is registered under tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Cache stores upstream responses keyed by request URL.
//
// Get returns expired entries too; freshness is decided by the caller so a
// stale entry can back a failed revalidation.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error

	// InvalidateTags drops every entry registered under any of the tags and
	// returns how many entries were removed.
	InvalidateTags(ctx context.Context, tags ...string) (int, error)

	// Flush drops every entry.
	Flush(ctx context.Context) error
}
