package sheet

import "companion/internal/domain/appdata"

// ParseOptions tunes how sections are located.
type ParseOptions struct {
	// Layout is the fixed calibration for sections without an anchor.
	// The zero value selects DefaultLayout.
	Layout Layout
	// DisableFixedFallback makes a section without an anchor come back empty
	// instead of being read from Layout.
	DisableFixedFallback bool
}

func (o ParseOptions) layout() Layout {
	if o.Layout.SongRows == 0 && len(o.Layout.MusicHeaders) == 0 {
		return DefaultLayout
	}
	return o.Layout
}

// Report describes how Parse found each section.
type Report struct {
	Anchors   Anchors
	Fallbacks []string // sections read from the fixed layout
	Skipped   []string // sections without an anchor while the fallback was disabled
}

func (r *Report) note(section string, src Source) {
	switch src {
	case SourceLayout:
		r.Fallbacks = append(r.Fallbacks, section)
	case SourceSkipped:
		r.Skipped = append(r.Skipped, section)
	}
}

// Parse builds the AppData for one grid snapshot.
// Each section is extracted independently: a missing or malformed section
// yields an empty list without affecting the others. Anchors always take
// precedence; the fixed layout is used only for a section whose anchor is absent.
// PRE: none
// POST: Returns AppData with all four lists non-nil, and a report of fallbacks used
func Parse(g Grid, opts ParseOptions) (appdata.AppData, Report) {
	a := Locate(g)
	rep := Report{Anchors: a}
	data := appdata.Empty()

	classes, src := ExtractClasses(g, a, opts)
	rep.note(SectionClasses, src)
	data.Classes = classes

	songs, src := ExtractSongs(g, a, opts)
	rep.note(SectionSongs, src)
	data.Songs = songs

	vom, src := ExtractVideoOfMonth(g, a, opts)
	rep.note(SectionVideoOfMonth, src)
	data.Videos = append(data.Videos, vom...)
	data.Videos = append(data.Videos, ExtractTutorials(g)...)

	anns, src := ExtractAnnouncements(g, a, opts)
	rep.note(SectionAnnouncements, src)
	data.Announcements = anns

	return data, rep
}
