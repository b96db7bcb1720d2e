package media

import (
	"regexp"
	"strings"
)

const embedBase = "https://www.youtube.com/embed/"

var (
	playlistRegex = regexp.MustCompile(`[?&]list=([^#&?]+)`)
	bareIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	videoIDRegex  = regexp.MustCompile(`^.*(?:(?:youtu\.be/|v/|vi/|u/\w/|embed/|shorts/|live/)|(?:(?:watch)?\?vi?=|&vi?=))([^#&?]*).*`)
)

// ResolveEmbed maps a video link, playlist link or bare video ID to its embed source.
// PRE: none
// POST: Returns the embed URL and true, or "" and false when raw names no video
func ResolveEmbed(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if list := PlaylistID(raw); list != "" {
		return embedBase + "videoseries?list=" + list, true
	}
	if id := VideoID(raw); id != "" {
		return embedBase + id, true
	}
	return "", false
}

// PlaylistID returns the list= parameter of raw, or "".
func PlaylistID(raw string) string {
	m := playlistRegex.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// VideoID returns the video ID named by raw, or "".
// Accepts bare 11-character IDs and the watch, short-link, embed, shorts and live URL forms.
func VideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if bareIDRegex.MatchString(raw) {
		return raw
	}
	m := videoIDRegex.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	if n := len(m[1]); n < 10 || n > 12 {
		return ""
	}
	return m[1]
}

// PlayerURL appends the player options used by the site to an embed source.
func PlayerURL(embed string) string {
	if embed == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(embed, "?") {
		sep = "&"
	}
	return embed + sep + "rel=0&modestbranding=1&playsinline=1"
}
