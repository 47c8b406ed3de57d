package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// Content is the read side of the upstream API as seen by the handlers.
// *upstream.Client satisfies it.
type Content interface {
	KomikLatest(ctx context.Context, variant string) []domain.Komik
	KomikPopular(ctx context.Context, page int) []domain.Komik
	KomikRecommended(ctx context.Context, variant string) []domain.Komik
	KomikDetail(ctx context.Context, mangaID string) *domain.Komik
	KomikChapters(ctx context.Context, mangaID string) []domain.KomikChapter
	KomikImages(ctx context.Context, chapterID string) []domain.KomikImage

	AnimeLatest(ctx context.Context) []domain.Anime
	AnimeRecommended(ctx context.Context, page int) []domain.Anime
	AnimeMovies(ctx context.Context) []domain.Anime
	AnimeDetail(ctx context.Context, urlID string) *domain.Anime
	AnimeVideo(ctx context.Context, episodeID, reso string) *domain.VideoSelection

	Search(ctx context.Context, query string, only domain.ContentType, limit int) []domain.SearchResult
	Homepage(ctx context.Context) domain.Homepage

	Invalidate(ctx context.Context, tags ...string) (int, error)
}

// Library is the local bookmark and history collection.
// *library.Store satisfies it.
type Library interface {
	AddBookmark(ctx context.Context, t domain.ContentType, itemID, title, thumbnail string)
	RemoveBookmark(ctx context.Context, t domain.ContentType, itemID string)
	IsBookmarked(ctx context.Context, t domain.ContentType, itemID string) bool
	ToggleBookmark(ctx context.Context, t domain.ContentType, itemID, title, thumbnail string) bool
	Bookmarks(ctx context.Context) []domain.BookmarkEntry

	AddToHistory(ctx context.Context, in domain.HistoryInput)
	RemoveFromHistory(ctx context.Context, t domain.ContentType, itemID string)
	ClearHistory(ctx context.Context)
	GetLastProgress(ctx context.Context, t domain.ContentType, itemID string) (string, bool)
	History(ctx context.Context) []domain.HistoryEntry
}

// Probe reports whether a backing component is reachable.
type Probe func(ctx context.Context) error

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to reach the admin endpoints
	AllowedCIDRS   []string         // IPs allowed to reach the admin and probe endpoints
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst      int              // public API bucket size per client IP
	RatePerMin     int              // public API refill per client IP per minute
	Content        Content          // upstream content API behind the response cache
	Library        Library          // local bookmarks and history
	CacheBackend   string           // "memory" | "redis", reported by /infra
	LibraryBackend string           // "file" | "sqlite" | "redis" | "memory", reported by /infra
	Probes         map[string]Probe // readiness checks keyed by component name
	WarmTrigger    chan struct{}    // Channel to trigger a homepage prefetch after revalidation
}
