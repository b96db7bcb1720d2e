package media

import (
	"errors"
	"testing"
)

func TestResolveEmbed(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://youtu.be/abc123XYZ9", "https://www.youtube.com/embed/abc123XYZ9", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/live/dQw4w9WgXcQ?si=x", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"  dQw4w9WgXcQ  ", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/playlist?list=PL12345abc", "https://www.youtube.com/embed/videoseries?list=PL12345abc", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLxyz", "https://www.youtube.com/embed/videoseries?list=PLxyz", true},
		{"https://example.com/page", "", false},
		{"https://youtu.be/short", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ResolveEmbed(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveEmbed(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPlayerURL(t *testing.T) {
	if got := PlayerURL("https://www.youtube.com/embed/dQw4w9WgXcQ"); got != "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1&playsinline=1" {
		t.Errorf("PlayerURL(video) = %q", got)
	}
	if got := PlayerURL("https://www.youtube.com/embed/videoseries?list=PL1"); got != "https://www.youtube.com/embed/videoseries?list=PL1&rel=0&modestbranding=1&playsinline=1" {
		t.Errorf("PlayerURL(playlist) = %q", got)
	}
	if got := PlayerURL(""); got != "" {
		t.Errorf("PlayerURL(\"\") = %q, want empty", got)
	}
}

func TestVideoItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    VideoItem
		wantErr error
	}{
		{"valid tutorial", VideoItem{Title: "Swingout", URL: "dQw4w9WgXcQ", Category: CategoryTutorial}, nil},
		{"valid month", VideoItem{Title: "Featured", URL: "https://youtu.be/dQw4w9WgXcQ", Category: CategoryMonth}, nil},
		{"empty title", VideoItem{URL: "dQw4w9WgXcQ", Category: CategoryTutorial}, ErrEmptyTitle},
		{"bad category", VideoItem{Title: "x", URL: "dQw4w9WgXcQ", Category: "other"}, ErrInvalidCategory},
		{"unresolvable", VideoItem{Title: "x", URL: "https://vimeo.com/1", Category: CategoryTutorial}, ErrUnresolvableLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.item.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVideoItem_IsPlaylist(t *testing.T) {
	if !(VideoItem{ID: IDPlaylist}).IsPlaylist() {
		t.Error("expected tut-playlist id to be a playlist")
	}
	if !(VideoItem{ID: "tut-3", URL: "https://youtube.com/playlist?list=PL1"}).IsPlaylist() {
		t.Error("expected list= url to be a playlist")
	}
	if (VideoItem{ID: "tut-3", URL: "dQw4w9WgXcQ"}).IsPlaylist() {
		t.Error("single video reported as playlist")
	}
}

func TestSongItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		song    SongItem
		wantErr error
	}{
		{"valid without url", SongItem{Title: "Jumpin' at the Woodside", Category: CategoryNew}, nil},
		{"empty title", SongItem{Category: CategoryNew}, ErrEmptyTitle},
		{"header title", SongItem{Title: "Title", Category: CategoryBlues}, ErrHeaderTitle},
		{"dash title", SongItem{Title: "-", Category: CategoryBlues}, ErrHeaderTitle},
		{"bad category", SongItem{Title: "Song", Category: "month"}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.song.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
