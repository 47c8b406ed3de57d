package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/domain"
)

// AnimeLatest returns the latest released episodes' series.
func (c *Client) AnimeLatest(ctx context.Context) []domain.Anime {
	return c.animeList(ctx, "anime.latest", Request{
		Path: "/anime/latest",
		Tier: cache.Latest,
		Tags: []string{cache.TagAnimeLatest, cache.TagHomepage},
	})
}

// AnimeRecommended returns one page of recommendations. Pages start at 1.
func (c *Client) AnimeRecommended(ctx context.Context, page int) []domain.Anime {
	return c.animeList(ctx, "anime.recommended", Request{
		Path:  "/anime/recommended",
		Query: url.Values{"page": {strconv.Itoa(normalizePage(page))}},
		Tier:  cache.Popular,
		Tags:  []string{cache.TagAnimeRecommended, cache.TagHomepage},
	})
}

func (c *Client) AnimeMovies(ctx context.Context) []domain.Anime {
	return c.animeList(ctx, "anime.movie", Request{
		Path: "/anime/movie",
		Tier: cache.Popular,
		Tags: []string{cache.TagAnimeMovie},
	})
}

// AnimeDetail returns one series with its episodes, or nil.
func (c *Client) AnimeDetail(ctx context.Context, urlID string) *domain.Anime {
	if urlID == "" {
		return nil
	}

	return guard(c.logger, "anime.detail", (*domain.Anime)(nil), func() (*domain.Anime, error) {
		resp := c.Fetch(ctx, Request{
			Path:  "/anime/detail",
			Query: url.Values{"urlId": {urlID}},
			Tier:  cache.Detail,
			Tags:  []string{cache.TagAnimeDetail, cache.AnimeTag(urlID)},
		})
		if err := resp.Err(); err != nil {
			return nil, err
		}

		data := resp.JSON().Get("data.0")
		if !data.IsObject() {
			return nil, nil
		}
		a := toAnimeDetail(data, urlID)
		return &a, nil
	})
}

// SearchAnime searches series by title. Queries shorter than MinQueryLength
// return nothing without reaching the network.
func (c *Client) SearchAnime(ctx context.Context, query string) []domain.Anime {
	q, ok := NormalizeQuery(query)
	if !ok {
		return []domain.Anime{}
	}
	return c.animeList(ctx, "anime.search", Request{
		Path:  "/anime/search",
		Query: url.Values{"query": {q}},
		Tier:  cache.Search,
	})
}

func (c *Client) animeList(ctx context.Context, op string, req Request) []domain.Anime {
	return guard(c.logger, op, []domain.Anime{}, func() ([]domain.Anime, error) {
		resp := c.Fetch(ctx, req)
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return mapAll(records(resp.JSON()), toAnime), nil
	})
}
