package upstream

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/komiku/internal/domain"
)

const (
	MinQueryLength     = 2
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// NormalizeQuery trims q and reports whether it is long enough to search.
func NormalizeQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	return q, utf8.RuneCountInString(q) >= MinQueryLength
}

// NormalizeLimit clamps a requested result count to (0, MaxSearchLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// Search queries one content type, or both when only is empty. With both,
// each type gets half of the limit and anime results come first.
func (c *Client) Search(ctx context.Context, query string, only domain.ContentType, limit int) []domain.SearchResult {
	q, ok := NormalizeQuery(query)
	if !ok {
		return []domain.SearchResult{}
	}

	limit = NormalizeLimit(limit)
	perType := limit
	if only == "" {
		perType = limit / 2
	}

	var (
		anime []domain.Anime
		komik []domain.Komik
		g     errgroup.Group
	)
	if only == "" || only == domain.ContentAnime {
		g.Go(func() error {
			anime = c.SearchAnime(ctx, q)
			return nil
		})
	}
	if only == "" || only == domain.ContentKomik {
		g.Go(func() error {
			komik = c.SearchKomik(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]domain.SearchResult, 0, limit)
	for i, a := range anime {
		if i == perType {
			break
		}
		results = append(results, domain.SearchResult{
			Type:      domain.ContentAnime,
			ID:        a.URLID,
			Title:     a.Title,
			Thumbnail: a.Thumbnail,
			Rating:    a.Rating,
			Status:    a.Status,
			Genres:    a.Genres,
		})
	}
	for i, k := range komik {
		if i == perType {
			break
		}
		results = append(results, domain.SearchResult{
			Type:      domain.ContentKomik,
			ID:        k.MangaID,
			Title:     k.Title,
			Thumbnail: k.Thumbnail,
			Rating:    k.Rating,
			Status:    k.Status,
			Genres:    k.Genres,
		})
	}
	return results
}
