package media

import (
	"errors"
	"strings"
)

// Video categories
const (
	CategoryTutorial = "tutorial"
	CategoryMonth    = "month"
)

// Song categories, in the order their blocks appear on the sheet.
const (
	CategoryNew      = "new"
	CategoryBlues    = "blues"
	CategoryPractice = "practice"
)

// SongCategories lists the music blocks top to bottom.
var SongCategories = []string{CategoryNew, CategoryBlues, CategoryPractice}

// Well-known video ids.
const (
	IDVideoOfMonth = "vom"
	IDPlaylist     = "tut-playlist"
)

// DefaultVideoOfMonthTitle is used when the sheet gives no caption.
const DefaultVideoOfMonthTitle = "Featured Pattern"

// Domain errors
var (
	ErrEmptyTitle       = errors.New("media title cannot be empty")
	ErrHeaderTitle      = errors.New("media title is a header label")
	ErrInvalidCategory  = errors.New("media category is not recognised")
	ErrUnresolvableLink = errors.New("video url does not resolve to an embeddable video or playlist")
)

var songHeaderLabels = map[string]bool{
	"title":  true,
	"artist": true,
	"song":   true,
	"songs":  true,
	"url":    true,
	"link":   true,
	"-":      true,
	".":      true,
}

// VideoItem is an embeddable video or playlist.
type VideoItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"` // tutorial, month
}

// Validate checks if the VideoItem has valid data.
// PRE: VideoItem struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: a valid VideoItem always has an embed target
func (v *VideoItem) Validate() error {
	if v.Title == "" {
		return ErrEmptyTitle
	}
	if v.Category != CategoryTutorial && v.Category != CategoryMonth {
		return ErrInvalidCategory
	}
	if _, ok := ResolveEmbed(v.URL); !ok {
		return ErrUnresolvableLink
	}
	return nil
}

// EmbedTarget returns the embed source for the video, or "" when it has none.
func (v VideoItem) EmbedTarget() string {
	src, _ := ResolveEmbed(v.URL)
	return src
}

// IsPlaylist reports whether the item points at a playlist rather than a single video.
func (v VideoItem) IsPlaylist() bool {
	return v.ID == IDPlaylist || PlaylistID(v.URL) != ""
}

// SongItem is one track in a music block.
// URL may be empty; the presentation layer renders a disabled link.
type SongItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
	Category string `json:"category"` // new, blues, practice
}

// Validate checks if the SongItem has valid data.
// PRE: SongItem struct is populated
// POST: Returns nil if valid, error otherwise
func (s *SongItem) Validate() error {
	if s.Title == "" {
		return ErrEmptyTitle
	}
	if IsSongHeaderLabel(s.Title) {
		return ErrHeaderTitle
	}
	if !IsSongCategory(s.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// HasLink reports whether the song has a playable link.
func (s SongItem) HasLink() bool {
	return s.URL != ""
}

// IsSongCategory reports whether c names one of the music blocks.
func IsSongCategory(c string) bool {
	for _, v := range SongCategories {
		if v == c {
			return true
		}
	}
	return false
}

// IsSongHeaderLabel reports whether s is a music column header or filler token.
func IsSongHeaderLabel(s string) bool {
	return songHeaderLabels[strings.ToLower(strings.TrimSpace(s))]
}
