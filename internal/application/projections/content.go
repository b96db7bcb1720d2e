package projections

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"companion/internal/domain/announcement"
	"companion/internal/domain/appdata"
	"companion/internal/domain/danceclass"
	"companion/internal/domain/media"
)

// MaxSongsPerCategory caps each music block on the media page.
const MaxSongsPerCategory = 5

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in the sheet is escaped (WithUnsafe is NOT set); bare URLs become links.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts sheet text to HTML, escaping it when conversion fails.
func RenderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTMLEscapeString(md)
	}
	return buf.String()
}

// VideoView is a video with its resolved player source.
type VideoView struct {
	media.VideoItem
	Embed    string `json:"embed"`
	Playlist bool   `json:"playlist"`
}

func newVideoView(v media.VideoItem) VideoView {
	return VideoView{VideoItem: v, Embed: media.PlayerURL(v.EmbedTarget()), Playlist: v.IsPlaylist()}
}

// --- Classes ---

// ClassView is a class with its comma-separated patterns split out.
type ClassView struct {
	danceclass.DanceClass
	Patterns []string `json:"patterns"`
}

// ClassesView is the classes page.
type ClassesView struct {
	Classes      []ClassView `json:"classes"`
	VideoOfMonth *VideoView  `json:"videoOfMonth"`
}

// GetClassesView builds the classes page from one snapshot.
// POST: Classes is non-nil; VideoOfMonth is nil when the sheet has none
func GetClassesView(data appdata.AppData) ClassesView {
	view := ClassesView{Classes: make([]ClassView, 0, len(data.Classes))}
	for _, c := range data.Classes {
		patterns := c.Patterns()
		if patterns == nil {
			patterns = []string{}
		}
		view.Classes = append(view.Classes, ClassView{DanceClass: c, Patterns: patterns})
	}
	if v, ok := data.VideoOfMonth(); ok {
		vv := newVideoView(v)
		view.VideoOfMonth = &vv
	}
	return view
}

// --- Media ---

// SongView is a song plus whether the page can link to it.
type SongView struct {
	media.SongItem
	Playable bool `json:"playable"`
}

// SongsView groups songs by music block.
type SongsView struct {
	New      []SongView `json:"new"`
	Blues    []SongView `json:"blues"`
	Practice []SongView `json:"practice"`
}

// MediaView is the media page.
type MediaView struct {
	Tutorials         []VideoView `json:"tutorials"`
	DefaultTutorialID string      `json:"defaultTutorialId"`
	Songs             SongsView   `json:"songs"`
}

// GetMediaView builds the media page from one snapshot. The playlist is
// preselected when present, otherwise the first tutorial.
// POST: every list is non-nil; each song block holds at most MaxSongsPerCategory
func GetMediaView(data appdata.AppData) MediaView {
	tutorials := data.Tutorials()
	view := MediaView{
		Tutorials: make([]VideoView, 0, len(tutorials)),
		Songs: SongsView{
			New:      firstSongs(data.SongsIn(media.CategoryNew)),
			Blues:    firstSongs(data.SongsIn(media.CategoryBlues)),
			Practice: firstSongs(data.SongsIn(media.CategoryPractice)),
		},
	}
	for _, t := range tutorials {
		view.Tutorials = append(view.Tutorials, newVideoView(t))
		if t.ID == media.IDPlaylist {
			view.DefaultTutorialID = t.ID
		}
	}
	if view.DefaultTutorialID == "" && len(tutorials) > 0 {
		view.DefaultTutorialID = tutorials[0].ID
	}
	return view
}

func firstSongs(songs []media.SongItem) []SongView {
	if len(songs) > MaxSongsPerCategory {
		songs = songs[:MaxSongsPerCategory]
	}
	out := make([]SongView, 0, len(songs))
	for _, s := range songs {
		out = append(out, SongView{SongItem: s, Playable: s.HasLink()})
	}
	return out
}

// --- Announcements ---

// AnnouncementView is an announcement ready for display.
type AnnouncementView struct {
	announcement.Announcement
	ColorHex    string `json:"colorHex"`
	TextHTML    string `json:"textHtml"`
	DetailsHTML string `json:"detailsHtml,omitempty"`
}

// GetAnnouncementsView renders the news feed in sheet order.
// POST: Returns a non-nil slice; an absent colour renders white
func GetAnnouncementsView(data appdata.AppData) []AnnouncementView {
	out := make([]AnnouncementView, 0, len(data.Announcements))
	for _, a := range data.Announcements {
		out = append(out, AnnouncementView{
			Announcement: a,
			ColorHex:     a.EffectiveColor(),
			TextHTML:     RenderMarkdown(a.Text),
			DetailsHTML:  RenderMarkdown(a.Details),
		})
	}
	return out
}
