package domain

// Komik is the normalized komik record shared by list and detail views.
// Detail fetches fill Chapters; list fetches leave it empty.
type Komik struct {
	MangaID       string         `json:"manga_id"`
	Title         string         `json:"title"`
	Thumbnail     string         `json:"thumbnail,omitempty"`
	Cover         string         `json:"cover,omitempty"`
	Type          string         `json:"type,omitempty"` // manhwa, manhua, manga
	Status        string         `json:"status,omitempty"`
	Rating        string         `json:"rating,omitempty"`
	Description   string         `json:"description,omitempty"`
	Author        string         `json:"author,omitempty"`
	Artist        string         `json:"artist,omitempty"`
	Genres        []string       `json:"genres"`
	Chapters      []KomikChapter `json:"chapters,omitempty"`
	LatestChapter string         `json:"latestChapter,omitempty"`
	UpdatedAt     string         `json:"updatedAt,omitempty"`
}

type KomikChapter struct {
	ChapterID string `json:"chapter_id"`
	Title     string `json:"title"`
	Chapter   string `json:"chapter,omitempty"`
	Date      string `json:"date,omitempty"`
}

// KomikImage is one page of a chapter. Page is 1-based.
type KomikImage struct {
	URL  string `json:"url"`
	Page int    `json:"page"`
}

// Anime is the normalized anime record shared by list and detail views.
type Anime struct {
	URLID         string         `json:"urlId"`
	Title         string         `json:"title"`
	Thumbnail     string         `json:"thumbnail,omitempty"`
	Cover         string         `json:"cover,omitempty"`
	Synopsis      string         `json:"synopsis,omitempty"`
	Rating        string         `json:"rating,omitempty"`
	Type          string         `json:"type,omitempty"`
	Status        string         `json:"status,omitempty"`
	Studio        string         `json:"studio,omitempty"`
	Genres        []string       `json:"genres"`
	Episodes      []AnimeEpisode `json:"episodes"`
	TotalEpisodes int            `json:"totalEpisodes,omitempty"`
}

type AnimeEpisode struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Date  string `json:"date,omitempty"`
}

// VideoStream is one playable resolution of an episode.
type VideoStream struct {
	Reso string `json:"reso"`
	URL  string `json:"url"`
}

// VideoSelection is the stream picked for a requested resolution.
type VideoSelection struct {
	URL            string        `json:"url"`
	Reso           string        `json:"reso"`
	AllStreams     []VideoStream `json:"allStreams"`
	AvailableResos []string      `json:"availableResos"`
	EpisodeID      string        `json:"episodeId,omitempty"`
}

// SearchResult is the flattened row returned by the combined search.
type SearchResult struct {
	Type      ContentType `json:"type"`
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Rating    string      `json:"rating,omitempty"`
	Status    string      `json:"status,omitempty"`
	Genres    []string    `json:"genres"`
}

// Homepage is the aggregate of the feeds rendered on the landing page.
type Homepage struct {
	KomikLatest      []Komik `json:"komikLatest"`
	KomikPopular     []Komik `json:"komikPopular"`
	AnimeLatest      []Anime `json:"animeLatest"`
	AnimeRecommended []Anime `json:"animeRecommended"`
}
