package upstream

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/komiku/internal/domain"
)

// Field priorities. The content API names the same concept differently
// across endpoints; these tables are the only place that knows about it.
var (
	komikFields = struct {
		ID, Title, Thumbnail, Cover, Type, Status, Rating, Description,
		Author, Artist, Genres, Chapters, LatestChapter, UpdatedAt Priority
	}{
		ID:            Priority{"manga_id", "id"},
		Title:         Priority{"title", "judul"},
		Thumbnail:     Priority{"thumbnail", "cover_portrait_url", "cover", "cover_image_url"},
		Cover:         Priority{"cover", "thumbnail", "cover_image_url"},
		Type:          Priority{"type", "taxonomy.Format.0.name"},
		Status:        Priority{"status"},
		Rating:        Priority{"rating", "user_rate"},
		Description:   Priority{"description", "synopsis"},
		Author:        Priority{"author", "taxonomy.Author.0.name"},
		Artist:        Priority{"artist", "taxonomy.Artist.0.name"},
		Genres:        Priority{"genres", "taxonomy.Genre.#.name"},
		Chapters:      Priority{"chapters"},
		LatestChapter: Priority{"latest_chapter", "latestChapter", "latest_chapter_number"},
		UpdatedAt:     Priority{"updated_at", "updatedAt", "latest_chapter_time"},
	}

	chapterFields = struct {
		ID, Number, Title, Date Priority
	}{
		ID:     Priority{"chapter_id", "id"},
		Number: Priority{"chapter", "chapter_number"},
		Title:  Priority{"title", "chapter_title"},
		Date:   Priority{"date", "release_date", "created_at"},
	}

	animeFields = struct {
		ID, Title, Thumbnail, Cover, Synopsis, Rating, Type, Status, Studio,
		Genres, Episodes, TotalEpisodes Priority
	}{
		ID:            Priority{"urlId", "url_id", "url", "series_id"},
		Title:         Priority{"title", "judul"},
		Thumbnail:     Priority{"thumbnail", "image", "cover"},
		Cover:         Priority{"cover", "thumbnail", "image"},
		Synopsis:      Priority{"synopsis", "sinopsis", "description"},
		Rating:        Priority{"rating", "score"},
		Type:          Priority{"type"},
		Status:        Priority{"status"},
		Studio:        Priority{"studio", "author"},
		Genres:        Priority{"genres", "genre"},
		Episodes:      Priority{"episodes", "chapter"},
		TotalEpisodes: Priority{"total_episodes", "totalEpisodes", "total_episode"},
	}

	episodeFields = struct {
		Title, Number, URL, Date Priority
	}{
		Title:  Priority{"title"},
		Number: Priority{"ch", "id"},
		URL:    Priority{"url", "episodeId"},
		Date:   Priority{"date"},
	}
)

// toKomik is the list transform. Chapters are only filled when the payload
// embeds them.
func toKomik(r gjson.Result) domain.Komik {
	f := komikFields
	k := domain.Komik{
		MangaID:       f.ID.String(r),
		Title:         f.Title.String(r),
		Thumbnail:     f.Thumbnail.String(r),
		Cover:         f.Cover.String(r),
		Type:          f.Type.String(r),
		Status:        komikStatus(f.Status.Value(r)),
		Rating:        f.Rating.String(r),
		Description:   f.Description.String(r),
		Author:        f.Author.String(r),
		Artist:        f.Artist.String(r),
		Genres:        f.Genres.Strings(r),
		LatestChapter: f.LatestChapter.String(r),
		UpdatedAt:     f.UpdatedAt.String(r),
	}
	for _, ch := range f.Chapters.Array(r) {
		k.Chapters = append(k.Chapters, toKomikChapter(ch))
	}
	return k
}

// toKomikDetail keeps every list field and makes sure the record carries its
// id and a cover even when the detail payload omits them.
func toKomikDetail(r gjson.Result, mangaID string) domain.Komik {
	k := toKomik(r)
	if k.MangaID == "" {
		k.MangaID = mangaID
	}
	if k.Cover == "" {
		k.Cover = k.Thumbnail
	}
	if k.Thumbnail == "" {
		k.Thumbnail = k.Cover
	}
	return k
}

// komikStatus maps the numeric status code (1 = ongoing) and passes text through.
func komikStatus(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		if v.Int() == 1 {
			return "Ongoing"
		}
		return "Completed"
	case gjson.String:
		return strings.TrimSpace(v.Str)
	default:
		return ""
	}
}

func toKomikChapter(r gjson.Result) domain.KomikChapter {
	f := chapterFields
	ch := domain.KomikChapter{
		ChapterID: f.ID.String(r),
		Chapter:   f.Number.String(r),
		Title:     f.Title.String(r),
		Date:      f.Date.String(r),
	}
	if ch.Title == "" {
		ch.Title = "Chapter " + ch.Chapter
	}
	return ch
}

func toAnime(r gjson.Result) domain.Anime {
	f := animeFields
	a := domain.Anime{
		URLID:     f.ID.String(r),
		Title:     f.Title.String(r),
		Thumbnail: f.Thumbnail.String(r),
		Synopsis:  f.Synopsis.String(r),
		Rating:    f.Rating.String(r),
		Type:      f.Type.String(r),
		Status:    f.Status.String(r),
		Studio:    f.Studio.String(r),
		Genres:    f.Genres.Strings(r),
		Episodes:  []domain.AnimeEpisode{},
	}
	for _, ep := range f.Episodes.Array(r) {
		a.Episodes = append(a.Episodes, toAnimeEpisode(ep))
	}
	return a
}

// toAnimeDetail is the list transform plus cover and episode count.
func toAnimeDetail(r gjson.Result, urlID string) domain.Anime {
	a := toAnime(r)
	if a.URLID == "" {
		a.URLID = urlID
	}
	a.Cover = animeFields.Cover.String(r)
	if a.Cover == "" {
		a.Cover = a.Thumbnail
	}
	a.TotalEpisodes = animeFields.TotalEpisodes.Int(r)
	if a.TotalEpisodes == 0 {
		a.TotalEpisodes = len(a.Episodes)
	}
	return a
}

func toAnimeEpisode(r gjson.Result) domain.AnimeEpisode {
	f := episodeFields
	ep := domain.AnimeEpisode{
		Title: f.Title.String(r),
		URL:   f.URL.String(r),
		Date:  f.Date.String(r),
	}
	if ep.Title == "" {
		if n := f.Number.String(r); n != "" {
			ep.Title = "Episode " + n
		}
	}
	return ep
}
