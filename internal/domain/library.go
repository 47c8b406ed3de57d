package domain

import (
	"fmt"
	"strings"
	"time"
)

// ContentType discriminates the two content domains sharing one collection.
type ContentType string

const (
	ContentKomik ContentType = "komik"
	ContentAnime ContentType = "anime"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentKomik || t == ContentAnime
}

// ParseContentType parses a user supplied content type.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown content type %q", s)
	}
	return t, nil
}

// BookmarkEntry is a saved komik or anime.
type BookmarkEntry struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is generated when the entry is created.
	ID string `json:"id"`

	// Type and ItemID form the composite key of the entry.
	Type   ContentType `json:"type"`
	ItemID string      `json:"itemId"`

	// ─────────────────────────────
	// Display
	// ─────────────────────────────

	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`

	// CreatedAt is set once, when the entry is added.
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry records the last consumed chapter or episode of an item.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Type      ContentType `json:"type"`
	ItemID    string      `json:"itemId"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail,omitempty"`

	// Progress is an opaque cursor: a chapter id for komik, an episode id for anime.
	Progress string `json:"progress"`

	// ProgressTitle is the human readable label of Progress.
	// Example: "Chapter 112"
	ProgressTitle string `json:"progressTitle,omitempty"`

	// UpdatedAt is refreshed on every upsert.
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryInput is what callers hand to the library when progress is made.
// ID and UpdatedAt are stamped by the library.
type HistoryInput struct {
	Type          ContentType `json:"type"`
	ItemID        string      `json:"itemId"`
	Title         string      `json:"title"`
	Thumbnail     string      `json:"thumbnail,omitempty"`
	Progress      string      `json:"progress"`
	ProgressTitle string      `json:"progressTitle,omitempty"`
}

// Matches reports whether the entry has the composite key (t, itemID).
func (b BookmarkEntry) Matches(t ContentType, itemID string) bool {
	return b.Type == t && b.ItemID == itemID
}

// Matches reports whether the entry has the composite key (t, itemID).
func (h HistoryEntry) Matches(t ContentType, itemID string) bool {
	return h.Type == t && h.ItemID == itemID
}
