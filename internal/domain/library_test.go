package domain

import "testing"

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{"komik", ContentKomik, false},
		{" Anime ", ContentAnime, false},
		{"movie", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseContentType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseContentType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchesUsesCompositeKey(t *testing.T) {
	b := BookmarkEntry{Type: ContentKomik, ItemID: "x"}
	if !b.Matches(ContentKomik, "x") {
		t.Error("bookmark should match its own key")
	}
	if b.Matches(ContentAnime, "x") {
		t.Error("same item id under another type must not match")
	}

	h := HistoryEntry{Type: ContentAnime, ItemID: "y"}
	if !h.Matches(ContentAnime, "y") || h.Matches(ContentAnime, "z") {
		t.Error("history Matches is wrong")
	}
}
