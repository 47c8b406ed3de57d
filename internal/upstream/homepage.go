package upstream

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/komiku/internal/domain"
)

// HomepageKomikVariant is the latest-feed variant shown on the homepage.
const HomepageKomikVariant = "mirror"

// Homepage loads the four landing page feeds concurrently. A failing feed is
// an empty section; the others are unaffected.
func (c *Client) Homepage(ctx context.Context) domain.Homepage {
	var (
		home domain.Homepage
		g    errgroup.Group
	)

	g.Go(func() error {
		home.KomikLatest = c.KomikLatest(ctx, HomepageKomikVariant)
		return nil
	})
	g.Go(func() error {
		home.KomikPopular = c.KomikPopular(ctx, 1)
		return nil
	})
	g.Go(func() error {
		home.AnimeLatest = c.AnimeLatest(ctx)
		return nil
	})
	g.Go(func() error {
		home.AnimeRecommended = c.AnimeRecommended(ctx, 1)
		return nil
	})
	_ = g.Wait()

	return home
}
