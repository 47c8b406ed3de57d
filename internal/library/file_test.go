package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/komiku/internal/domain"
)

func TestFilePersisterMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "nested", "library.json"))

	_, err := p.Load(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFilePersisterRoundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.json")
	p := NewFilePersister(path)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	state := EmptyState()
	state.Bookmarks = append(state.Bookmarks, domain.BookmarkEntry{
		ID: "b1", Type: domain.ContentKomik, ItemID: "m1", Title: "M1", CreatedAt: created,
	})
	state.History = append(state.History, domain.HistoryEntry{
		ID: "h1", Type: domain.ContentAnime, ItemID: "a1", Title: "A1", Progress: "ep-2", UpdatedAt: created,
	})

	require.NoError(t, p.Save(ctx, state))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, got)

	// No temp files are left next to the target.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestFilePersisterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}

func TestStoreOverCorruptFileStartsEmptyAndRecovers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	s := newTestStore(NewFilePersister(path))
	assert.Empty(t, s.Bookmarks(ctx))

	s.AddBookmark(ctx, domain.ContentAnime, "x", "X", "")

	// The next save overwrote the corrupt blob with a valid one.
	reloaded := newTestStore(NewFilePersister(path))
	assert.True(t, reloaded.IsBookmarked(ctx, domain.ContentAnime, "x"))
}

func TestDecode(t *testing.T) {
	t.Run("empty blob", func(t *testing.T) {
		s, err := Decode(nil)
		require.NoError(t, err)
		assert.Equal(t, EmptyState(), s)
	})

	t.Run("newer version is rejected", func(t *testing.T) {
		_, err := Decode([]byte(`{"version": 99}`))
		assert.Error(t, err)
	})

	t.Run("invalid entries are dropped", func(t *testing.T) {
		s, err := Decode([]byte(`{
			"version": 1,
			"bookmarks": [
				{"id": "1", "type": "komik", "itemId": "a", "title": "A"},
				{"id": "2", "type": "movie", "itemId": "b", "title": "B"},
				{"id": "3", "type": "anime", "itemId": "", "title": "C"}
			]
		}`))
		require.NoError(t, err)
		require.Len(t, s.Bookmarks, 1)
		assert.Equal(t, "a", s.Bookmarks[0].ItemID)
		assert.NotNil(t, s.History)
	})

	t.Run("duplicate history keeps the first entry", func(t *testing.T) {
		s, err := Decode([]byte(`{
			"history": [
				{"type": "anime", "itemId": "x", "progress": "ep-9"},
				{"type": "anime", "itemId": "x", "progress": "ep-1"},
				{"type": "komik", "itemId": "x", "progress": "ch-1"}
			]
		}`))
		require.NoError(t, err)
		require.Len(t, s.History, 2)
		assert.Equal(t, "ep-9", s.History[0].Progress)
		assert.Equal(t, domain.ContentKomik, s.History[1].Type)
	})

	t.Run("history over capacity is cut", func(t *testing.T) {
		state := EmptyState()
		for i := 0; i < MaxHistoryEntries+10; i++ {
			state.History = append(state.History, domain.HistoryEntry{
				Type:   domain.ContentKomik,
				ItemID: string(rune('A' + i)),
			})
		}
		data, err := Encode(state)
		require.NoError(t, err)

		s, err := Decode(data)
		require.NoError(t, err)
		assert.Len(t, s.History, MaxHistoryEntries)
		assert.Equal(t, "A", s.History[0].ItemID)
	})
}
