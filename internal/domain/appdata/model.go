package appdata

import (
	"companion/internal/domain/announcement"
	"companion/internal/domain/danceclass"
	"companion/internal/domain/media"
)

// AppData is everything the site shows, derived from one sheet snapshot.
// It is always replaced wholesale, never merged.
type AppData struct {
	Classes       []danceclass.DanceClass     `json:"classes"`
	Videos        []media.VideoItem           `json:"videos"`
	Songs         []media.SongItem            `json:"songs"`
	Announcements []announcement.Announcement `json:"announcements"`
}

// Empty returns the default AppData with every list present and empty.
// POST: all four slices are non-nil so they encode as []
func Empty() AppData {
	return AppData{
		Classes:       []danceclass.DanceClass{},
		Videos:        []media.VideoItem{},
		Songs:         []media.SongItem{},
		Announcements: []announcement.Announcement{},
	}
}

// IsEmpty reports whether no section produced any record.
func (d AppData) IsEmpty() bool {
	return len(d.Classes) == 0 && len(d.Videos) == 0 && len(d.Songs) == 0 && len(d.Announcements) == 0
}

// VideoOfMonth returns the featured video, if the sheet has one.
func (d AppData) VideoOfMonth() (media.VideoItem, bool) {
	for _, v := range d.Videos {
		if v.Category == media.CategoryMonth {
			return v, true
		}
	}
	return media.VideoItem{}, false
}

// Tutorials returns the tutorial videos in sheet order.
func (d AppData) Tutorials() []media.VideoItem {
	out := []media.VideoItem{}
	for _, v := range d.Videos {
		if v.Category == media.CategoryTutorial {
			out = append(out, v)
		}
	}
	return out
}

// SongsIn returns the songs of one music block in sheet order.
func (d AppData) SongsIn(category string) []media.SongItem {
	out := []media.SongItem{}
	for _, s := range d.Songs {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}
