package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/domain"
)

// DefaultResolution is requested when the caller has no preference.
const DefaultResolution = "480p"

// AnimeVideo resolves the stream of an episode. The preferred resolution is
// picked when offered, otherwise the first stream. Stream links expire, so
// the answer is never cached. Returns nil when the episode is unknown.
func (c *Client) AnimeVideo(ctx context.Context, episodeID, reso string) *domain.VideoSelection {
	if episodeID == "" {
		return nil
	}
	if reso == "" {
		reso = DefaultResolution
	}

	return guard(c.logger, "anime.video", (*domain.VideoSelection)(nil), func() (*domain.VideoSelection, error) {
		resp := c.Fetch(ctx, Request{
			Path:   "/anime/getvideo",
			Query:  url.Values{"chapterUrlId": {episodeID}, "reso": {reso}},
			Tier:   cache.NoStore,
			Header: http.Header{"Referer": {c.origin()}},
		})
		if err := resp.Err(); err != nil {
			return nil, err
		}

		episode := resp.JSON().Get("data.0")
		if !episode.IsObject() {
			return nil, nil
		}

		sel := &domain.VideoSelection{
			Reso:       reso,
			AllStreams: []domain.VideoStream{},
			EpisodeID:  Priority{"episode_id"}.String(episode),
		}
		for _, s := range episode.Get("stream").Array() {
			sel.AllStreams = append(sel.AllStreams, domain.VideoStream{
				Reso: scalar(s.Get("reso")),
				URL:  scalar(s.Get("link")),
			})
		}

		picked := -1
		for i, s := range sel.AllStreams {
			if s.Reso == reso {
				picked = i
				break
			}
		}
		if picked < 0 && len(sel.AllStreams) > 0 {
			picked = 0
		}
		if picked >= 0 {
			sel.URL = sel.AllStreams[picked].URL
			if sel.AllStreams[picked].Reso != "" {
				sel.Reso = sel.AllStreams[picked].Reso
			}
		}

		sel.AvailableResos = Priority{"reso"}.Strings(episode)
		if len(sel.AvailableResos) == 0 {
			for _, s := range sel.AllStreams {
				sel.AvailableResos = append(sel.AvailableResos, s.Reso)
			}
		}

		return sel, nil
	})
}

// origin is the scheme and host of the content API, sent as Referer.
func (c *Client) origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
