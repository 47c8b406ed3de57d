package cache

// Global tags, one per feed. Invalidating one drops every cached page of it.
const (
	TagKomikLatest      = "komik-latest"
	TagKomikPopular     = "komik-popular"
	TagKomikRecommended = "komik-recommended"
	TagKomikDetail      = "komik-detail"
	TagKomikChapters    = "komik-chapters"
	TagKomikImages      = "komik-images"

	TagAnimeLatest      = "anime-latest"
	TagAnimeRecommended = "anime-recommended"
	TagAnimeMovie       = "anime-movie"
	TagAnimeDetail      = "anime-detail"

	TagHomepage = "homepage"
)

func KomikLatestTag(variant string) string      { return TagKomikLatest + "-" + variant }
func KomikRecommendedTag(variant string) string { return TagKomikRecommended + "-" + variant }
func KomikTag(mangaID string) string            { return "komik-" + mangaID }
func KomikChaptersTag(mangaID string) string    { return TagKomikChapters + "-" + mangaID }
func ChapterTag(chapterID string) string        { return "chapter-" + chapterID }
func AnimeTag(urlID string) string              { return "anime-" + urlID }
