package sheet

import (
	"fmt"
	"strings"

	"companion/internal/domain/announcement"
	"companion/internal/domain/danceclass"
	"companion/internal/domain/media"
)

// Source says how a section's rows were found.
type Source int

const (
	SourceAnchor  Source = iota // located relative to a content anchor
	SourceLayout                // anchor missing, fixed layout window used
	SourceSkipped               // anchor missing and the fixed fallback is disabled
)

var playlistLabels = []string{"playlist", "pattern library"}

// ExtractClasses reads name, content and notes from columns A-C.
// The window starts after the class header row when there is one, otherwise at
// the layout's first class row. It never reaches the first music header.
// PRE: a was produced by Locate(g)
// POST: Returns valid classes in row order with display defaults applied
func ExtractClasses(g Grid, a Anchors, opts ParseOptions) ([]danceclass.DanceClass, Source) {
	l := opts.layout()
	src := SourceAnchor
	start := a.ClassHeader + 1
	if a.ClassHeader == noRow {
		if opts.DisableFixedFallback {
			return []danceclass.DanceClass{}, SourceSkipped
		}
		src = SourceLayout
		start = l.ClassFirstRow
	}
	end := start + l.ClassRows
	if first := a.firstMusicHeader(); first != noRow && first < end {
		end = first
	}

	out := []danceclass.DanceClass{}
	for _, i := range (window{start: start, end: end}).rows(g, a) {
		c := danceclass.DanceClass{
			ID:      fmt.Sprintf("class-%d", i),
			Name:    g.Cell(i, ColA),
			Content: g.Cell(i, ColB),
			Notes:   g.Cell(i, ColC),
		}
		if c.Validate() != nil {
			continue
		}
		c.ApplyDefaults()
		out = append(out, c)
	}
	return out, src
}

// ExtractSongs reads the three music blocks. Block k takes the k-th Title/Artist
// header and reads at most SongRows rows after it, stopping early at any anchor row.
// PRE: a was produced by Locate(g)
// POST: Returns valid songs grouped by block in row order
func ExtractSongs(g Grid, a Anchors, opts ParseOptions) ([]media.SongItem, Source) {
	l := opts.layout()
	src := SourceAnchor
	headers := a.MusicHeaders
	if len(headers) == 0 {
		if opts.DisableFixedFallback {
			return []media.SongItem{}, SourceSkipped
		}
		src = SourceLayout
		headers = l.MusicHeaders
	}

	out := []media.SongItem{}
	for k, category := range media.SongCategories {
		if k >= len(headers) {
			break
		}
		h := headers[k]
		for _, i := range (window{start: h + 1, end: h + 1 + l.SongRows}).rows(g, a) {
			s := media.SongItem{
				ID:       fmt.Sprintf("%s-%d", category, i),
				Title:    g.Cell(i, ColA),
				Artist:   g.Cell(i, ColB),
				URL:      ExtractURL(g.Cell(i, ColC)),
				Category: category,
			}
			if s.Validate() != nil {
				continue
			}
			out = append(out, s)
		}
	}
	return out, src
}

// ExtractVideoOfMonth finds the single featured video.
// With a "video of the month" label the link is taken from the label row or the
// row after it. Without one, column A is scanned in the window after the last
// music block.
// PRE: a was produced by Locate(g)
// POST: Returns at most one video; its url always resolves to an embed source
func ExtractVideoOfMonth(g Grid, a Anchors, opts ParseOptions) ([]media.VideoItem, Source) {
	if a.VideoOfMonth != noRow {
		if v, ok := videoFromLabel(g, a, a.VideoOfMonth); ok {
			return []media.VideoItem{v}, SourceAnchor
		}
		return []media.VideoItem{}, SourceAnchor
	}
	if opts.DisableFixedFallback {
		return []media.VideoItem{}, SourceSkipped
	}

	l := opts.layout()
	start := videoScanStart(a, l)
	for _, i := range (window{start: start, end: start + l.VideoScanRows}).rows(g, a) {
		link := ExtractURL(g.Cell(i, ColA))
		if _, ok := media.ResolveEmbed(link); !ok {
			continue
		}
		title := g.Cell(i, ColB)
		if title == "" || ExtractURL(title) != "" {
			title = media.DefaultVideoOfMonthTitle
		}
		return []media.VideoItem{newVideoOfMonth(title, link)}, SourceLayout
	}
	return []media.VideoItem{}, SourceLayout
}

// videoFromLabel looks for a resolvable link in columns A-D of the label row,
// then of the row below it.
func videoFromLabel(g Grid, a Anchors, label int) (media.VideoItem, bool) {
	for _, row := range []int{label, label + 1} {
		if row != label && a.IsAnchor(row) {
			break
		}
		for col := ColA; col <= ColD; col++ {
			link := ExtractURL(g.Cell(row, col))
			if _, ok := media.ResolveEmbed(link); !ok {
				continue
			}
			return newVideoOfMonth(captionFor(g, row, col, label), link), true
		}
	}
	return media.VideoItem{}, false
}

// captionFor returns the first plain-text cell of row other than the link cell
// and the label cell.
func captionFor(g Grid, row, linkCol, label int) string {
	for col := ColA; col <= ColD; col++ {
		if col == linkCol || (row == label && col == ColA) {
			continue
		}
		if text := g.Cell(row, col); text != "" && ExtractURL(text) == "" {
			return text
		}
	}
	return media.DefaultVideoOfMonthTitle
}

func newVideoOfMonth(title, link string) media.VideoItem {
	return media.VideoItem{
		ID:       media.IDVideoOfMonth,
		Title:    title,
		URL:      link,
		Category: media.CategoryMonth,
	}
}

// ExtractTutorials scans columns F and G over the whole grid.
// The first entry tagged as the playlist (a list= link or a "playlist" title)
// gets the id tut-playlist. Entries sharing an embed target are emitted once;
// when one of them is the playlist entry, the playlist entry is kept in the
// position of the first occurrence.
// PRE: none
// POST: Returns tutorials with unique embed targets in row order
func ExtractTutorials(g Grid) []media.VideoItem {
	out := []media.VideoItem{}
	seen := make(map[string]int)
	playlistTaken := false

	for i := 0; i < g.Rows(); i++ {
		title := g.Cell(i, ColF)
		link := ExtractURL(g.Cell(i, ColG))
		if title == "" || link == "" {
			continue
		}
		v := media.VideoItem{
			ID:       fmt.Sprintf("tut-%d", i),
			Title:    title,
			URL:      link,
			Category: media.CategoryTutorial,
		}
		if v.Validate() != nil {
			continue
		}
		if !playlistTaken && isPlaylistEntry(title, link) {
			v.ID = media.IDPlaylist
			playlistTaken = true
		}

		target := v.EmbedTarget()
		if j, dup := seen[target]; dup {
			if v.ID == media.IDPlaylist {
				out[j] = v
			}
			continue
		}
		seen[target] = len(out)
		out = append(out, v)
	}
	return out
}

func isPlaylistEntry(title, link string) bool {
	return media.PlaylistID(link) != "" || matchesLabel(strings.ToLower(title), playlistLabels, false)
}

// ExtractAnnouncements reads date, text, details and colour from columns A-D.
// With a news label the window starts after it, skipping up to AnnouncementHeads
// column-header rows. Without one the window starts AnnouncementSkip rows into the
// video scan window.
// PRE: a was produced by Locate(g)
// POST: Returns valid announcements in row order, at most AnnouncementRows of them
func ExtractAnnouncements(g Grid, a Anchors, opts ParseOptions) ([]announcement.Announcement, Source) {
	l := opts.layout()
	src := SourceAnchor
	var start int
	if a.Announcements != noRow {
		start = a.Announcements + 1
		for skipped := 0; skipped < l.AnnouncementHeads && isAnnouncementHeader(g, start); skipped++ {
			start++
		}
	} else {
		if opts.DisableFixedFallback {
			return []announcement.Announcement{}, SourceSkipped
		}
		src = SourceLayout
		start = videoScanStart(a, l) + l.AnnouncementSkip
	}

	out := []announcement.Announcement{}
	for _, i := range (window{start: start, end: start + l.AnnouncementRows}).rows(g, a) {
		if isAnnouncementHeader(g, i) {
			continue
		}
		if src == SourceLayout && (g.lower(i, ColA) == "title" || ExtractURL(g.Cell(i, ColA)) != "") {
			continue
		}
		an := announcement.Announcement{
			ID:      fmt.Sprintf("ann-%d", i),
			Date:    g.Cell(i, ColA),
			Text:    g.Cell(i, ColB),
			Details: g.Cell(i, ColC),
			Color:   announcement.NormalizeColor(g.Cell(i, ColD)),
		}
		if an.Validate() != nil {
			continue
		}
		out = append(out, an)
	}
	return out, src
}

func isAnnouncementHeader(g Grid, row int) bool {
	return g.lower(row, ColA) == "date" || g.lower(row, ColB) == "text"
}

// videoScanStart is the first row after the last music block.
func videoScanStart(a Anchors, l Layout) int {
	headers := a.MusicHeaders
	if len(headers) == 0 {
		headers = l.MusicHeaders
	}
	if len(headers) == 0 {
		return l.VideoScanOffset
	}
	return headers[len(headers)-1] + l.VideoScanOffset
}
