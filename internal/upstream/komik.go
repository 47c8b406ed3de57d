package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/domain"
)

// Komik feed variants accepted by the content API.
var (
	KomikLatestVariants      = []string{"project", "mirror"}
	KomikRecommendedVariants = []string{"manhwa", "manhua", "manga"}
)

// KomikLatest returns the latest updates of a feed variant ("project" or
// "mirror"). Unknown variants fall back to the first one.
func (c *Client) KomikLatest(ctx context.Context, variant string) []domain.Komik {
	variant = oneOf(variant, KomikLatestVariants)
	return c.komikList(ctx, "komik.latest", Request{
		Path:  "/komik/latest",
		Query: url.Values{"type": {variant}},
		Tier:  cache.Latest,
		Tags:  []string{cache.TagKomikLatest, cache.KomikLatestTag(variant), cache.TagHomepage},
	})
}

// KomikPopular returns one page of the popularity ranking. Pages start at 1.
func (c *Client) KomikPopular(ctx context.Context, page int) []domain.Komik {
	return c.komikList(ctx, "komik.popular", Request{
		Path:  "/komik/popular",
		Query: url.Values{"page": {strconv.Itoa(normalizePage(page))}},
		Tier:  cache.Popular,
		Tags:  []string{cache.TagKomikPopular, cache.TagHomepage},
	})
}

// KomikRecommended returns recommendations for a format ("manhwa", "manhua"
// or "manga").
func (c *Client) KomikRecommended(ctx context.Context, variant string) []domain.Komik {
	variant = oneOf(variant, KomikRecommendedVariants)
	return c.komikList(ctx, "komik.recommended", Request{
		Path:  "/komik/recommended",
		Query: url.Values{"type": {variant}},
		Tier:  cache.Popular,
		Tags:  []string{cache.TagKomikRecommended, cache.KomikRecommendedTag(variant)},
	})
}

// KomikDetail returns one komik, or nil when it cannot be obtained.
func (c *Client) KomikDetail(ctx context.Context, mangaID string) *domain.Komik {
	if mangaID == "" {
		return nil
	}

	return guard(c.logger, "komik.detail", (*domain.Komik)(nil), func() (*domain.Komik, error) {
		resp := c.Fetch(ctx, Request{
			Path:  "/komik/detail",
			Query: url.Values{"manga_id": {mangaID}},
			Tier:  cache.Detail,
			Tags:  []string{cache.TagKomikDetail, cache.KomikTag(mangaID)},
		})
		if err := resp.Err(); err != nil {
			return nil, err
		}

		data := resp.JSON().Get("data")
		if !data.IsObject() {
			return nil, nil
		}
		k := toKomikDetail(data, mangaID)
		return &k, nil
	})
}

// KomikChapters returns the chapter list of a komik.
func (c *Client) KomikChapters(ctx context.Context, mangaID string) []domain.KomikChapter {
	if mangaID == "" {
		return []domain.KomikChapter{}
	}

	return guard(c.logger, "komik.chapters", []domain.KomikChapter{}, func() ([]domain.KomikChapter, error) {
		resp := c.Fetch(ctx, Request{
			Path:  "/komik/chapterlist",
			Query: url.Values{"manga_id": {mangaID}},
			Tier:  cache.Detail,
			Tags:  []string{cache.TagKomikChapters, cache.KomikChaptersTag(mangaID)},
		})
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return mapAll(records(resp.JSON()), toKomikChapter), nil
	})
}

// KomikImages returns the pages of a chapter in reading order.
func (c *Client) KomikImages(ctx context.Context, chapterID string) []domain.KomikImage {
	if chapterID == "" {
		return []domain.KomikImage{}
	}

	return guard(c.logger, "komik.images", []domain.KomikImage{}, func() ([]domain.KomikImage, error) {
		resp := c.Fetch(ctx, Request{
			Path:  "/komik/getimage",
			Query: url.Values{"chapter_id": {chapterID}},
			Tier:  cache.Images,
			Tags:  []string{cache.TagKomikImages, cache.ChapterTag(chapterID)},
		})
		if err := resp.Err(); err != nil {
			return nil, err
		}

		images := []domain.KomikImage{}
		for _, u := range resp.JSON().Get("data.chapter.data").Array() {
			if s := scalar(u); s != "" {
				images = append(images, domain.KomikImage{URL: s, Page: len(images) + 1})
			}
		}
		return images, nil
	})
}

// SearchKomik searches komik by title. Queries shorter than MinQueryLength
// return nothing without reaching the network.
func (c *Client) SearchKomik(ctx context.Context, query string) []domain.Komik {
	q, ok := NormalizeQuery(query)
	if !ok {
		return []domain.Komik{}
	}
	return c.komikList(ctx, "komik.search", Request{
		Path:  "/komik/search",
		Query: url.Values{"query": {q}},
		Tier:  cache.Search,
	})
}

func (c *Client) komikList(ctx context.Context, op string, req Request) []domain.Komik {
	return guard(c.logger, op, []domain.Komik{}, func() ([]domain.Komik, error) {
		resp := c.Fetch(ctx, req)
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return mapAll(records(resp.JSON()), toKomik), nil
	})
}

func mapAll[T any](rs []gjson.Result, fn func(gjson.Result) T) []T {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		out = append(out, fn(r))
	}
	return out
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func oneOf(v string, allowed []string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return allowed[0]
}
