package library

import (
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/komiku/internal/domain"
)

const (
	// MaxHistoryEntries caps the history collection. Oldest entries (by position) go first.
	MaxHistoryEntries = 50

	// StateVersion is written with every persisted blob.
	StateVersion = 1
)

// State is the persisted shape of the library: both collections, newest first.
type State struct {
	Version   int                    `json:"version"`
	Bookmarks []domain.BookmarkEntry `json:"bookmarks"`
	History   []domain.HistoryEntry  `json:"history"`
}

// EmptyState returns a state with non-nil, empty collections.
func EmptyState() State {
	return State{
		Version:   StateVersion,
		Bookmarks: []domain.BookmarkEntry{},
		History:   []domain.HistoryEntry{},
	}
}

// Clone returns a deep copy so persisters never share slices with the live state.
func (s State) Clone() State {
	out := State{
		Version:   s.Version,
		Bookmarks: make([]domain.BookmarkEntry, len(s.Bookmarks)),
		History:   make([]domain.HistoryEntry, len(s.History)),
	}
	copy(out.Bookmarks, s.Bookmarks)
	copy(out.History, s.History)
	return out
}

// Encode serializes a state into the single blob stored by every persister.
func Encode(s State) ([]byte, error) {
	s.Version = StateVersion
	if s.Bookmarks == nil {
		s.Bookmarks = []domain.BookmarkEntry{}
	}
	if s.History == nil {
		s.History = []domain.HistoryEntry{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode library state: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. An empty blob is an empty state.
// Entries that violate the collection invariants are dropped rather than
// rejected, so a hand-edited or partially corrupted blob still loads.
func Decode(data []byte) (State, error) {
	if len(data) == 0 {
		return EmptyState(), nil
	}

	var raw State
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("failed to decode library state: %w", err)
	}
	if raw.Version > StateVersion {
		return State{}, fmt.Errorf("library state version %d is newer than supported %d", raw.Version, StateVersion)
	}

	state := EmptyState()
	for _, b := range raw.Bookmarks {
		if !b.Type.Valid() || b.ItemID == "" {
			continue
		}
		state.Bookmarks = append(state.Bookmarks, b)
	}

	seen := make(map[string]bool, len(raw.History))
	for _, h := range raw.History {
		if !h.Type.Valid() || h.ItemID == "" {
			continue
		}
		k := key(h.Type, h.ItemID)
		if seen[k] {
			continue
		}
		seen[k] = true
		state.History = append(state.History, h)
		if len(state.History) == MaxHistoryEntries {
			break
		}
	}

	return state, nil
}

func key(t domain.ContentType, itemID string) string {
	return string(t) + ":" + itemID
}
