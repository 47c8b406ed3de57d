package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/library"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

func openTestPersister(t *testing.T, path, name string) *LibraryPersister {
	t.Helper()
	p, err := Open(path, name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestOpenValidatesArguments(t *testing.T) {
	_, err := Open("", "lib")
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "lib.db"), " ")
	assert.Error(t, err)
}

func TestLoadEmptyDatabase(t *testing.T) {
	p := openTestPersister(t, filepath.Join(t.TempDir(), "lib.db"), "komikmanga-storage")

	_, err := p.Load(context.Background())
	assert.True(t, errors.Is(err, library.ErrNotFound))
	assert.NoError(t, p.Ping(context.Background()))
}

func TestSaveOverwritesAndReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "lib.db")
	p := openTestPersister(t, path, "komikmanga-storage")

	first := library.EmptyState()
	first.Bookmarks = append(first.Bookmarks, domain.BookmarkEntry{
		ID: "1", Type: domain.ContentKomik, ItemID: "a", Title: "A",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, p.Save(ctx, first))

	second := library.EmptyState()
	second.History = append(second.History, domain.HistoryEntry{
		ID: "2", Type: domain.ContentAnime, ItemID: "b", Progress: "ep-1",
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, p.Save(ctx, second))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lib.db")

	alice := openTestPersister(t, path, "alice")
	state := library.EmptyState()
	state.Bookmarks = append(state.Bookmarks, domain.BookmarkEntry{ID: "1", Type: domain.ContentKomik, ItemID: "a"})
	require.NoError(t, alice.Save(ctx, state))
	require.NoError(t, alice.Close())

	bob := openTestPersister(t, path, "bob")
	_, err := bob.Load(ctx)
	assert.True(t, errors.Is(err, library.ErrNotFound))
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lib.db")

	p := openTestPersister(t, path, "komikmanga-storage")
	s := library.New(p, logger.Nop())
	s.AddToHistory(ctx, domain.HistoryInput{Type: domain.ContentAnime, ItemID: "X", Progress: "ep-5"})
	s.AddBookmark(ctx, domain.ContentAnime, "X", "X", "")

	reloaded := library.New(p, logger.Nop())
	progress, ok := reloaded.GetLastProgress(ctx, domain.ContentAnime, "X")
	assert.True(t, ok)
	assert.Equal(t, "ep-5", progress)
	assert.True(t, reloaded.IsBookmarked(ctx, domain.ContentAnime, "X"))
}
