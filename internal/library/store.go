package library

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// DefaultFlushTimeout bounds a single persistence flush.
const DefaultFlushTimeout = 5 * time.Second

// Store holds the bookmark and history collections of the local library.
//
// The in-memory state is the source of truth for the running process. It is
// loaded lazily from the Persister on first access and mirrored back in full
// after every mutation. None of the operations fail: a storage that cannot be
// read yields an empty library, a storage that cannot be written leaves the
// in-memory state intact for the rest of the session.
//
// Mutations are serialized by a single mutex, so concurrent callers observe
// one total order and no reader ever sees a half-applied upsert.
type Store struct {
	mu           sync.Mutex
	persister    Persister
	logger       logger.Logger
	now          func() time.Time
	newID        func() string
	flushTimeout time.Duration

	loaded bool
	state  State
}

type Option func(*Store)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithFlushTimeout bounds each Save call.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.flushTimeout = d
		}
	}
}

// New creates a Store. A nil persister keeps the library in memory only.
func New(p Persister, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		persister:    p,
		logger:       log,
		now:          time.Now,
		newID:        uuid.NewString,
		flushTimeout: DefaultFlushTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─────────────────────────────────────────────────────────────────
// Bookmarks
// ─────────────────────────────────────────────────────────────────

// AddBookmark inserts a new entry at the front of the bookmarks.
// It does not check for an existing entry with the same key: callers are
// expected to consult IsBookmarked first, or to use ToggleBookmark.
func (s *Store) AddBookmark(ctx context.Context, t domain.ContentType, itemID, title, thumbnail string) {
	s.mutate(ctx, func(st *State) {
		st.Bookmarks = prependBookmark(st.Bookmarks, s.newBookmark(t, itemID, title, thumbnail))
	})
}

// RemoveBookmark removes every entry with the key (t, itemID).
func (s *Store) RemoveBookmark(ctx context.Context, t domain.ContentType, itemID string) {
	s.mutate(ctx, func(st *State) {
		st.Bookmarks = withoutBookmark(st.Bookmarks, t, itemID)
	})
}

// IsBookmarked reports whether an entry with the key (t, itemID) exists.
func (s *Store) IsBookmarked(ctx context.Context, t domain.ContentType, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	return hasBookmark(s.state.Bookmarks, t, itemID)
}

// ToggleBookmark removes the entry if it exists and adds it otherwise, as one
// state transition. It returns whether the item is bookmarked afterwards.
func (s *Store) ToggleBookmark(ctx context.Context, t domain.ContentType, itemID, title, thumbnail string) bool {
	var bookmarked bool
	s.mutate(ctx, func(st *State) {
		if hasBookmark(st.Bookmarks, t, itemID) {
			st.Bookmarks = withoutBookmark(st.Bookmarks, t, itemID)
			bookmarked = false
			return
		}
		st.Bookmarks = prependBookmark(st.Bookmarks, s.newBookmark(t, itemID, title, thumbnail))
		bookmarked = true
	})
	return bookmarked
}

// Bookmarks returns a copy of the bookmarks, newest first.
func (s *Store) Bookmarks(ctx context.Context) []domain.BookmarkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	out := make([]domain.BookmarkEntry, len(s.state.Bookmarks))
	copy(out, s.state.Bookmarks)
	return out
}

// ─────────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────────

// AddToHistory upserts progress for an item: any entry with the same key is
// removed, the new entry goes to the front with a fresh UpdatedAt, and the
// collection is cut to MaxHistoryEntries.
func (s *Store) AddToHistory(ctx context.Context, in domain.HistoryInput) {
	s.mutate(ctx, func(st *State) {
		entry := domain.HistoryEntry{
			ID:            s.newID(),
			Type:          in.Type,
			ItemID:        in.ItemID,
			Title:         in.Title,
			Thumbnail:     in.Thumbnail,
			Progress:      in.Progress,
			ProgressTitle: in.ProgressTitle,
			UpdatedAt:     s.now(),
		}

		filtered := withoutHistory(st.History, in.Type, in.ItemID)
		next := make([]domain.HistoryEntry, 0, len(filtered)+1)
		next = append(next, entry)
		next = append(next, filtered...)
		if len(next) > MaxHistoryEntries {
			next = next[:MaxHistoryEntries]
		}
		st.History = next
	})
}

// RemoveFromHistory removes the entry with the key (t, itemID), if any.
func (s *Store) RemoveFromHistory(ctx context.Context, t domain.ContentType, itemID string) {
	s.mutate(ctx, func(st *State) {
		st.History = withoutHistory(st.History, t, itemID)
	})
}

// ClearHistory empties the history.
func (s *Store) ClearHistory(ctx context.Context) {
	s.mutate(ctx, func(st *State) {
		st.History = []domain.HistoryEntry{}
	})
}

// GetLastProgress returns the progress cursor recorded for (t, itemID).
func (s *Store) GetLastProgress(ctx context.Context, t domain.ContentType, itemID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for _, h := range s.state.History {
		if h.Matches(t, itemID) {
			if h.Progress == "" {
				return "", false
			}
			return h.Progress, true
		}
	}
	return "", false
}

// History returns a copy of the history, most recently updated first.
func (s *Store) History(ctx context.Context) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	out := make([]domain.HistoryEntry, len(s.state.History))
	copy(out, s.state.History)
	return out
}

// ─────────────────────────────────────────────────────────────────
// internals
// ─────────────────────────────────────────────────────────────────

// mutate applies fn to the state and flushes the result. Holding the lock
// across the flush keeps persisted writes in call order.
func (s *Store) mutate(ctx context.Context, fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	fn(&s.state)
	s.flush(ctx, s.state.Clone())
}

// ensureLoaded must be called with s.mu held.
func (s *Store) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.state = EmptyState()

	if s.persister == nil {
		return
	}

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flushTimeout)
	defer cancel()

	state, err := s.persister.Load(loadCtx)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug("no stored library, starting with an empty one")
		return
	}
	if err != nil {
		s.logger.Warn("failed to load library, starting with an empty one",
			logger.Error(err))
		return
	}
	if state.Bookmarks == nil {
		state.Bookmarks = []domain.BookmarkEntry{}
	}
	if state.History == nil {
		state.History = []domain.HistoryEntry{}
	}
	s.state = state

	s.logger.Debug("library loaded",
		logger.Int("bookmarks", len(state.Bookmarks)),
		logger.Int("history", len(state.History)))
}

func (s *Store) flush(ctx context.Context, snapshot State) {
	if s.persister == nil {
		return
	}

	// The caller going away must not cut a flush in half.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flushTimeout)
	defer cancel()

	if err := s.persister.Save(flushCtx, snapshot); err != nil {
		s.logger.Warn("failed to persist library, keeping in-memory state",
			logger.Error(err))
	}
}

func (s *Store) newBookmark(t domain.ContentType, itemID, title, thumbnail string) domain.BookmarkEntry {
	return domain.BookmarkEntry{
		ID:        s.newID(),
		Type:      t,
		ItemID:    itemID,
		Title:     title,
		Thumbnail: thumbnail,
		CreatedAt: s.now(),
	}
}

func prependBookmark(list []domain.BookmarkEntry, b domain.BookmarkEntry) []domain.BookmarkEntry {
	next := make([]domain.BookmarkEntry, 0, len(list)+1)
	next = append(next, b)
	return append(next, list...)
}

func hasBookmark(list []domain.BookmarkEntry, t domain.ContentType, itemID string) bool {
	for _, b := range list {
		if b.Matches(t, itemID) {
			return true
		}
	}
	return false
}

func withoutBookmark(list []domain.BookmarkEntry, t domain.ContentType, itemID string) []domain.BookmarkEntry {
	out := make([]domain.BookmarkEntry, 0, len(list))
	for _, b := range list {
		if !b.Matches(t, itemID) {
			out = append(out, b)
		}
	}
	return out
}

func withoutHistory(list []domain.HistoryEntry, t domain.ContentType, itemID string) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(list))
	for _, h := range list {
		if !h.Matches(t, itemID) {
			out = append(out, h)
		}
	}
	return out
}
