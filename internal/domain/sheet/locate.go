package sheet

import "strings"

// Section names used in fallback reports.
const (
	SectionClasses       = "classes"
	SectionSongs         = "songs"
	SectionVideoOfMonth  = "video_of_month"
	SectionTutorials     = "tutorials"
	SectionAnnouncements = "announcements"
)

const noRow = -1

var (
	classLabels        = []string{"class", "classes"}
	videoOfMonthLabels = []string{"video of the month"}
	announcementLabels = []string{"announcements", "announcement", "news", "updates"}
)

// Anchors records the marker rows found by one scan of the grid.
// Absent anchors are -1; MusicHeaders is empty when no Title/Artist pair exists.
type Anchors struct {
	MusicHeaders  []int
	ClassHeader   int
	VideoOfMonth  int
	Announcements int
}

// Layout is the fixed row calibration used for a section whose anchor is missing.
// All rows are 0-indexed.
type Layout struct {
	ClassFirstRow     int   // first class row
	ClassRows         int   // class window size
	MusicHeaders      []int // Title/Artist header row of each music block
	SongRows          int   // rows read after each music header
	VideoScanOffset   int   // rows between the last music header and the video scan
	VideoScanRows     int   // video scan window size
	AnnouncementSkip  int   // rows between the video scan start and the first announcement
	AnnouncementRows  int   // announcement window size
	AnnouncementHeads int   // column-header rows tolerated after the announcements label
}

// DefaultLayout matches the studio sheet: a class header in row 0, four class
// rows, three music blocks of one header plus five songs, then the video of the
// month and the news feed.
var DefaultLayout = Layout{
	ClassFirstRow:     1,
	ClassRows:         4,
	MusicHeaders:      []int{6, 13, 20},
	SongRows:          5,
	VideoScanOffset:   6,
	VideoScanRows:     10,
	AnnouncementSkip:  2,
	AnnouncementRows:  12,
	AnnouncementHeads: 2,
}

// Locate scans the grid once for section markers.
// PRE: none
// POST: Returns every Title/Artist header row in order and the first row of each section label
func Locate(g Grid) Anchors {
	a := Anchors{ClassHeader: noRow, VideoOfMonth: noRow, Announcements: noRow}
	for i := 0; i < g.Rows(); i++ {
		switch {
		case isMusicHeader(g, i):
			a.MusicHeaders = append(a.MusicHeaders, i)
		case a.ClassHeader == noRow && len(a.MusicHeaders) == 0 && matchesLabel(g.lower(i, ColA), classLabels, true):
			a.ClassHeader = i
		case a.VideoOfMonth == noRow && matchesLabel(g.lower(i, ColA), videoOfMonthLabels, false):
			a.VideoOfMonth = i
		case a.Announcements == noRow && isAnnouncementLabel(g, i):
			a.Announcements = i
		}
	}
	return a
}

// IsAnchor reports whether row is any marker row.
func (a Anchors) IsAnchor(row int) bool {
	if row == noRow {
		return false
	}
	if row == a.ClassHeader || row == a.VideoOfMonth || row == a.Announcements {
		return true
	}
	return a.isMusicHeader(row)
}

func (a Anchors) isMusicHeader(row int) bool {
	for _, h := range a.MusicHeaders {
		if h == row {
			return true
		}
	}
	return false
}

// firstMusicHeader returns the first Title/Artist row, or -1.
func (a Anchors) firstMusicHeader() int {
	if len(a.MusicHeaders) == 0 {
		return noRow
	}
	return a.MusicHeaders[0]
}

// window is a bounded half-open row range [start, end).
type window struct {
	start int
	end   int
}

// rows yields the window's rows in order, stopping at the grid end or at any
// anchor row.
func (w window) rows(g Grid, a Anchors) []int {
	end := w.end
	if end > g.Rows() {
		end = g.Rows()
	}
	var out []int
	for i := w.start; i < end; i++ {
		if i < 0 {
			continue
		}
		if a.IsAnchor(i) {
			break
		}
		out = append(out, i)
	}
	return out
}

func isMusicHeader(g Grid, row int) bool {
	return g.lower(row, ColA) == "title" && g.lower(row, ColB) == "artist"
}

// isAnnouncementLabel matches a news label row. Column B must be blank or a
// column header so a dated announcement mentioning "news" is not taken as the label.
func isAnnouncementLabel(g Grid, row int) bool {
	if !matchesLabel(g.lower(row, ColA), announcementLabels, false) {
		return false
	}
	b := g.lower(row, ColB)
	return b == "" || b == "text"
}

// matchesLabel compares a lower-cased cell against labels. With exact set, the
// cell (minus a trailing colon) must equal a label; otherwise it must contain one
// as a whole word.
func matchesLabel(cell string, labels []string, exact bool) bool {
	cell = strings.TrimSuffix(strings.TrimSpace(cell), ":")
	if cell == "" {
		return false
	}
	for _, l := range labels {
		if exact {
			if cell == l {
				return true
			}
			continue
		}
		if containsWord(cell, l) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isLetter(s[start-1])) && (end == len(s) || !isLetter(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
