package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/library"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// fakeContent records the arguments of each call and returns canned data.
type fakeContent struct {
	mu    sync.Mutex
	calls []string

	komik   []domain.Komik
	detail  *domain.Komik
	anime   *domain.Anime
	video   *domain.VideoSelection
	results []domain.SearchResult

	searchOnly  domain.ContentType
	searchLimit int
	invalidated []string
	invalidErr  error
}

func (f *fakeContent) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeContent) KomikLatest(_ context.Context, variant string) []domain.Komik {
	f.record("komik.latest:" + variant)
	return f.komik
}

func (f *fakeContent) KomikPopular(_ context.Context, page int) []domain.Komik {
	f.record("komik.popular:" + strconv.Itoa(page))
	return f.komik
}

func (f *fakeContent) KomikRecommended(_ context.Context, variant string) []domain.Komik {
	f.record("komik.recommended:" + variant)
	return f.komik
}

func (f *fakeContent) KomikDetail(_ context.Context, id string) *domain.Komik {
	f.record("komik.detail:" + id)
	return f.detail
}

func (f *fakeContent) KomikChapters(_ context.Context, id string) []domain.KomikChapter {
	f.record("komik.chapters:" + id)
	return []domain.KomikChapter{{ChapterID: "c1", Title: "Chapter 1"}}
}

func (f *fakeContent) KomikImages(_ context.Context, id string) []domain.KomikImage {
	f.record("komik.images:" + id)
	return []domain.KomikImage{{URL: "https://img/1.jpg", Page: 1}}
}

func (f *fakeContent) AnimeLatest(context.Context) []domain.Anime {
	f.record("anime.latest")
	return []domain.Anime{}
}

func (f *fakeContent) AnimeRecommended(_ context.Context, page int) []domain.Anime {
	f.record("anime.recommended:" + strconv.Itoa(page))
	return []domain.Anime{}
}

func (f *fakeContent) AnimeMovies(context.Context) []domain.Anime {
	f.record("anime.movies")
	return []domain.Anime{}
}

func (f *fakeContent) AnimeDetail(_ context.Context, id string) *domain.Anime {
	f.record("anime.detail:" + id)
	return f.anime
}

func (f *fakeContent) AnimeVideo(_ context.Context, id, reso string) *domain.VideoSelection {
	f.record("anime.video:" + id + ":" + reso)
	return f.video
}

func (f *fakeContent) Search(_ context.Context, q string, only domain.ContentType, limit int) []domain.SearchResult {
	f.record("search:" + q)
	f.mu.Lock()
	f.searchOnly, f.searchLimit = only, limit
	f.mu.Unlock()
	return f.results
}

func (f *fakeContent) Homepage(context.Context) domain.Homepage {
	f.record("homepage")
	return domain.Homepage{
		KomikLatest:      f.komik,
		KomikPopular:     []domain.Komik{},
		AnimeLatest:      []domain.Anime{},
		AnimeRecommended: []domain.Anime{},
	}
}

func (f *fakeContent) Invalidate(_ context.Context, tags ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalidErr != nil {
		return 0, f.invalidErr
	}
	f.invalidated = append(f.invalidated, tags...)
	return len(tags) * 2, nil
}

func (f *fakeContent) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type testEnv struct {
	content *fakeContent
	library *library.Store
	router  http.Handler
}

func newTestEnv(t *testing.T, mutate ...func(*deps.Deps)) *testEnv {
	t.Helper()

	content := &fakeContent{komik: []domain.Komik{{MangaID: "m1", Title: "One", Genres: []string{}}}}
	lib := library.New(library.NewMemoryPersister(), logger.Nop())

	d := deps.Deps{
		Logger:         logger.Nop(),
		StartTime:      time.Now(),
		Version:        "test",
		TimeNow:        time.Now,
		Content:        content,
		Library:        lib,
		CacheBackend:   "memory",
		LibraryBackend: "memory",
	}
	for _, m := range mutate {
		m(&d)
	}

	return &testEnv{content: content, library: lib, router: NewRouter(logger.Nop(), d)}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestKomikRoutes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		target string
		call   string
	}{
		{"/api/komik/latest?type=project", "komik.latest:project"},
		{"/api/komik/popular?page=3", "komik.popular:3"},
		{"/api/komik/popular?page=abc", "komik.popular:1"},
		{"/api/komik/recommended?type=manga", "komik.recommended:manga"},
		{"/api/komik/m42/chapters", "komik.chapters:m42"},
		{"/api/komik/images/ch-7", "komik.images:ch-7"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.call, env.content.lastCall())
		})
	}
}

func TestDetailNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/komik/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "komik not found", decode[map[string]string](t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/anime/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.content.detail = &domain.Komik{MangaID: "m1", Title: "One"}
	rec = env.do(t, http.MethodGet, "/api/komik/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data domain.Komik `json:"data"`
	}](t, rec)
	assert.Equal(t, "One", body.Data.Title)
}

func TestAnimeVideo(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/anime/video", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/anime/video?chapterUrlId=ep-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.content.video = &domain.VideoSelection{URL: "https://v/720.mp4", Reso: "720p"}
	rec = env.do(t, http.MethodGet, "/api/anime/video?chapterUrlId=ep-1&reso=720p", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "anime.video:ep-1:720p", env.content.lastCall())
	assert.Equal(t, "https://v/720.mp4", decode[domain.VideoSelection](t, rec).URL)
}

func TestSearch(t *testing.T) {
	t.Run("short query", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/search?q=%20a%20", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "Query must be at least 2 characters", body["message"])
		assert.Equal(t, []any{}, body["results"])
		assert.Empty(t, env.content.calls)
	})

	t.Run("invalid type", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/search?q=naruto&type=movie", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("typed search with clamped limit", func(t *testing.T) {
		env := newTestEnv(t)
		env.content.results = []domain.SearchResult{{Type: domain.ContentAnime, ID: "a1", Title: "Naruto"}}

		rec := env.do(t, http.MethodGet, "/api/search?q=naruto&type=anime&limit=500", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "naruto", body["query"])
		assert.Equal(t, "anime", body["type"])
		assert.EqualValues(t, 1, body["count"])
		assert.Equal(t, domain.ContentAnime, env.content.searchOnly)
		assert.Equal(t, 50, env.content.searchLimit)
	})

	t.Run("both types by default", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/search?q=one+piece", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "all", body["type"])
		assert.Equal(t, domain.ContentType(""), env.content.searchOnly)
		assert.Equal(t, 20, env.content.searchLimit)
	})
}

func TestHome(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/home", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Data domain.Homepage `json:"data"`
	}](t, rec)
	require.Len(t, body.Data.KomikLatest, 1)
	assert.NotNil(t, body.Data.AnimeLatest)
}

func TestBookmarkEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/bookmarks", `{"type":"komik","itemId":"m1","title":"One"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/bookmarks", `{"type":"anime","itemId":"a1","title":"Anime One"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	list := decode[map[string][]domain.BookmarkEntry](t, env.do(t, http.MethodGet, "/api/bookmarks", ""))["bookmarks"]
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ItemID, "newest first")

	list = decode[map[string][]domain.BookmarkEntry](t, env.do(t, http.MethodGet, "/api/bookmarks?type=komik", ""))["bookmarks"]
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ItemID)

	check := decode[map[string]bool](t, env.do(t, http.MethodGet, "/api/bookmarks/check?type=komik&itemId=m1", ""))
	assert.True(t, check["bookmarked"])

	toggled := decode[map[string]bool](t, env.do(t, http.MethodPost, "/api/bookmarks/toggle", `{"type":"komik","itemId":"m1","title":"One"}`))
	assert.False(t, toggled["bookmarked"])
	assert.False(t, env.library.IsBookmarked(context.Background(), domain.ContentKomik, "m1"))

	rec = env.do(t, http.MethodDelete, "/api/bookmarks?type=anime&itemId=a1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.library.Bookmarks(context.Background()))
}

func TestBookmarkValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing title", http.MethodPost, "/api/bookmarks", `{"type":"komik","itemId":"m1"}`},
		{"invalid type", http.MethodPost, "/api/bookmarks", `{"type":"movie","itemId":"m1","title":"x"}`},
		{"invalid json", http.MethodPost, "/api/bookmarks", `{"type":`},
		{"empty body", http.MethodPost, "/api/bookmarks/toggle", ""},
		{"delete without params", http.MethodDelete, "/api/bookmarks", ""},
		{"check with bad type", http.MethodGet, "/api/bookmarks/check?type=x&itemId=1", ""},
		{"list with bad type", http.MethodGet, "/api/bookmarks?type=x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
	assert.Empty(t, env.library.Bookmarks(context.Background()))
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"type":"komik","itemId":"m1","title":"One","progress":"ch-1","progressTitle":"Chapter 1"}`,
		`{"type":"anime","itemId":"a1","title":"A","progress":"ep-1"}`,
		`{"type":"komik","itemId":"m1","title":"One","progress":"ch-2"}`,
	} {
		rec := env.do(t, http.MethodPost, "/api/history", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/history", `{"type":"komik","itemId":"m1","title":"One"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decode[map[string][]domain.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history", ""))["history"]
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].ItemID)
	assert.Equal(t, "ch-2", list[0].Progress)

	list = decode[map[string][]domain.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history?limit=1", ""))["history"]
	assert.Len(t, list, 1)

	list = decode[map[string][]domain.HistoryEntry](t, env.do(t, http.MethodGet, "/api/history?type=anime", ""))["history"]
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ItemID)

	progress := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/history/progress?type=komik&itemId=m1", ""))
	assert.Equal(t, "ch-2", progress["progress"])
	assert.Equal(t, true, progress["found"])

	progress = decode[map[string]any](t, env.do(t, http.MethodGet, "/api/history/progress?type=anime&itemId=zz", ""))
	assert.Equal(t, false, progress["found"])

	rec = env.do(t, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/history?clearAll=true&type=anime", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.library.History(ctx), 1)

	rec = env.do(t, http.MethodDelete, "/api/history?type=komik&itemId=m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.library.History(ctx))

	env.do(t, http.MethodPost, "/api/history", `{"type":"anime","itemId":"a2","title":"B","progress":"ep-3"}`)
	rec = env.do(t, http.MethodDelete, "/api/history?clearAll=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.library.History(ctx))
}

func TestRevalidate(t *testing.T) {
	t.Run("requires a tag", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/revalidate", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalidates and triggers the warmer", func(t *testing.T) {
		trigger := make(chan struct{}, 1)
		env := newTestEnv(t, func(d *deps.Deps) { d.WarmTrigger = trigger })

		rec := env.do(t, http.MethodPost, "/revalidate?tag=komik-latest,homepage&tag=homepage", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, []any{"komik-latest", "homepage"}, body["tags"])
		assert.EqualValues(t, 4, body["entries"])
		assert.Equal(t, true, body["warmTriggered"])
		assert.Equal(t, []string{"komik-latest", "homepage"}, env.content.invalidated)
		assert.Len(t, trigger, 1)

		// A pending trigger is not stacked.
		body = decode[map[string]any](t, env.do(t, http.MethodPost, "/revalidate?tag=homepage", ""))
		assert.Equal(t, false, body["warmTriggered"])
	})

	t.Run("cache failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.content.invalidErr = errors.New("redis down")
		rec := env.do(t, http.MethodPost, "/revalidate?tag=homepage", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("guarded by CIDR and host", func(t *testing.T) {
		env := newTestEnv(t, func(d *deps.Deps) {
			d.AllowedCIDRS = []string{"10.0.0.0/8"}
		})
		rec := env.do(t, http.MethodPost, "/revalidate?tag=homepage", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, env.content.invalidated)

		env = newTestEnv(t, func(d *deps.Deps) {
			d.AllowedHosts = []string{"admin.komiku.local"}
		})
		rec = env.do(t, http.MethodPost, "/revalidate?tag=homepage", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ready"])

	env = newTestEnv(t, func(d *deps.Deps) {
		d.CacheBackend = "redis"
		d.Probes = map[string]deps.Probe{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}
	})

	rec = env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready := decode[struct {
		Ready  bool              `json:"ready"`
		Checks map[string]string `json:"checks"`
	}](t, rec)
	assert.False(t, ready.Ready)
	assert.Equal(t, "connection refused", ready.Checks["redis"])

	rec = env.do(t, http.MethodGet, "/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	infra := decode[struct {
		ServingMode string `json:"serving_mode"`
		Components  map[string]struct {
			OK   bool   `json:"ok"`
			Mode string `json:"mode"`
		} `json:"components"`
	}](t, rec)
	assert.Equal(t, "degraded", infra.ServingMode)
	assert.False(t, infra.Components["redis"].OK)
	assert.Equal(t, "redis", infra.Components["cache"].Mode)
}

func TestAPIRateLimit(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.RateBurst = 2
		d.RatePerMin = 1
	})

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/api/anime/latest", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := env.do(t, http.MethodGet, "/api/anime/movies", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Probes are outside the /api group.
	rec = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
