package sheet

import (
	"testing"

	"companion/internal/domain/announcement"
	"companion/internal/domain/danceclass"
	"companion/internal/domain/media"
)

func TestExtractClasses_Anchored(t *testing.T) {
	g := studioGrid()
	classes, src := ExtractClasses(g, Locate(g), ParseOptions{})
	if src != SourceAnchor {
		t.Errorf("source = %v, want anchor", src)
	}
	if len(classes) != 2 {
		t.Fatalf("got %d classes, want 2: %+v", len(classes), classes)
	}
	if classes[0].ID != "class-1" || classes[0].Name != "Beginner Lindy" || classes[0].Notes != "Bring water" {
		t.Errorf("classes[0] = %+v", classes[0])
	}
	if classes[1].Content != danceclass.DefaultContent || classes[1].Notes != danceclass.DefaultNotes {
		t.Errorf("classes[1] defaults not applied: %+v", classes[1])
	}
}

func TestExtractClasses_RejectsPlaceholdersAndHeaders(t *testing.T) {
	g := Grid{
		{"Week"},
		{"-"},
		{"."},
		{"Title"},
		{"Real class", "Pattern"},
	}
	classes, _ := ExtractClasses(g, Locate(g), ParseOptions{})
	if len(classes) != 1 || classes[0].Name != "Real class" {
		t.Errorf("classes = %+v, want only Real class", classes)
	}
}

// TestExtractClasses_StopsBeforeMusicHeader covers a compressed sheet where the
// first music header moved up into the class window.
func TestExtractClasses_StopsBeforeMusicHeader(t *testing.T) {
	g := Grid{
		{"Class"},
		{"Lindy"},
		{"Title", "Artist"},
		{"Song that is not a class", "Band"},
	}
	classes, _ := ExtractClasses(g, Locate(g), ParseOptions{})
	if len(classes) != 1 || classes[0].Name != "Lindy" {
		t.Errorf("classes = %+v, want only Lindy", classes)
	}
}

func TestExtractSongs_Anchored(t *testing.T) {
	g := studioGrid()
	songs, src := ExtractSongs(g, Locate(g), ParseOptions{})
	if src != SourceAnchor {
		t.Errorf("source = %v, want anchor", src)
	}
	wantIDs := []string{"new-6", "new-7", "blues-9", "practice-11"}
	if len(songs) != len(wantIDs) {
		t.Fatalf("got %d songs, want %d: %+v", len(songs), len(wantIDs), songs)
	}
	for i, id := range wantIDs {
		if songs[i].ID != id {
			t.Errorf("songs[%d].ID = %q, want %q", i, songs[i].ID, id)
		}
	}
	if songs[0].URL != "https://youtu.be/bbbbbbbbbbb" {
		t.Errorf("songs[0].URL = %q, want trailing comma stripped", songs[0].URL)
	}
	if songs[1].URL != "" {
		t.Errorf("songs[1].URL = %q, want empty", songs[1].URL)
	}
	if songs[2].Category != media.CategoryBlues || songs[2].URL != "ccccccccccc" {
		t.Errorf("songs[2] = %+v", songs[2])
	}
}

// TestExtractSongs_HeaderAtRow7 reads rows 8-12 only, stopping early at a
// second header on row 10.
func TestExtractSongs_HeaderAtRow7(t *testing.T) {
	g := make(Grid, 16)
	g[7] = []string{"Title", "Artist"}
	for r := 8; r <= 13; r++ {
		g[r] = []string{"Song", "Band"}
	}

	songs, _ := ExtractSongs(g, Locate(g), ParseOptions{})
	var newRows []string
	for _, s := range songs {
		if s.Category == media.CategoryNew {
			newRows = append(newRows, s.ID)
		}
	}
	want := []string{"new-8", "new-9", "new-10", "new-11", "new-12"}
	if len(newRows) != len(want) {
		t.Fatalf("new block = %v, want %v", newRows, want)
	}
	for i := range want {
		if newRows[i] != want[i] {
			t.Errorf("new block[%d] = %q, want %q", i, newRows[i], want[i])
		}
	}

	g[10] = []string{"TITLE", "ARTIST"}
	songs, _ = ExtractSongs(g, Locate(g), ParseOptions{})
	var got []string
	for _, s := range songs {
		got = append(got, s.ID)
	}
	wantAll := []string{"new-8", "new-9", "blues-11", "blues-12", "blues-13"}
	if len(got) != len(wantAll) {
		t.Fatalf("songs = %v, want %v", got, wantAll)
	}
	for i := range wantAll {
		if got[i] != wantAll[i] {
			t.Errorf("songs[%d] = %q, want %q", i, got[i], wantAll[i])
		}
	}
}

func TestExtractVideoOfMonth_Label(t *testing.T) {
	g := studioGrid()
	vids, src := ExtractVideoOfMonth(g, Locate(g), ParseOptions{})
	if src != SourceAnchor {
		t.Errorf("source = %v, want anchor", src)
	}
	if len(vids) != 1 {
		t.Fatalf("got %d videos, want 1", len(vids))
	}
	v := vids[0]
	if v.ID != media.IDVideoOfMonth || v.Category != media.CategoryMonth {
		t.Errorf("video = %+v", v)
	}
	if v.URL != "https://www.youtube.com/watch?v=ddddddddddd" || v.Title != "Lindy circle" {
		t.Errorf("video = %+v", v)
	}
}

func TestExtractVideoOfMonth_NextRow(t *testing.T) {
	g := Grid{
		{"Video of the month"},
		{"", "https://youtu.be/ggggggggggg"},
		{"https://youtu.be/hhhhhhhhhhh"},
	}
	vids, _ := ExtractVideoOfMonth(g, Locate(g), ParseOptions{})
	if len(vids) != 1 || vids[0].URL != "https://youtu.be/ggggggggggg" {
		t.Fatalf("videos = %+v, want the first link only", vids)
	}
	if vids[0].Title != media.DefaultVideoOfMonthTitle {
		t.Errorf("title = %q, want default", vids[0].Title)
	}
}

func TestExtractVideoOfMonth_LabelWithoutEmbeddableLink(t *testing.T) {
	g := Grid{
		{"Video of the month", "https://vimeo.com/12345"},
	}
	vids, src := ExtractVideoOfMonth(g, Locate(g), ParseOptions{})
	if len(vids) != 0 {
		t.Errorf("videos = %+v, want none", vids)
	}
	if src != SourceAnchor {
		t.Errorf("source = %v, want anchor", src)
	}
}

func TestExtractTutorials_DedupesPlaylist(t *testing.T) {
	tuts := ExtractTutorials(studioGrid())
	if len(tuts) != 2 {
		t.Fatalf("got %d tutorials, want 2: %+v", len(tuts), tuts)
	}
	if tuts[0].ID != "tut-1" || tuts[0].Title != "Swingout basics" {
		t.Errorf("tuts[0] = %+v", tuts[0])
	}
	if tuts[1].ID != media.IDPlaylist {
		t.Errorf("tuts[1].ID = %q, want %q", tuts[1].ID, media.IDPlaylist)
	}
}

// TestExtractTutorials_PlaylistWinsOverGenericDuplicate has the generic scan
// meet a playlist link first and the tagged playlist row later.
func TestExtractTutorials_PlaylistWinsOverGenericDuplicate(t *testing.T) {
	g := Grid{
		{"", "", "", "", "", "Pattern 1", "dQw4w9WgXcQ"},
		{"", "", "", "", "", "Playlist", "dQw4w9WgXcQ"},
		{"", "", "", "", "", "Pattern 2", "https://youtu.be/iiiiiiiiiii"},
	}
	tuts := ExtractTutorials(g)
	if len(tuts) != 2 {
		t.Fatalf("got %d tutorials, want 2: %+v", len(tuts), tuts)
	}
	if tuts[0].ID != media.IDPlaylist || tuts[0].Title != "Playlist" {
		t.Errorf("tuts[0] = %+v, want the playlist entry in first position", tuts[0])
	}
	if tuts[1].ID != "tut-2" {
		t.Errorf("tuts[1] = %+v", tuts[1])
	}
}

func TestExtractTutorials_SkipsUnresolvable(t *testing.T) {
	g := Grid{
		{"", "", "", "", "", "Tutorial", "Link"},
		{"", "", "", "", "", "Vimeo", "https://vimeo.com/1"},
		{"", "", "", "", "", "", "dQw4w9WgXcQ"},
	}
	if tuts := ExtractTutorials(g); len(tuts) != 0 {
		t.Errorf("tutorials = %+v, want none", tuts)
	}
}

func TestExtractAnnouncements_Anchored(t *testing.T) {
	g := studioGrid()
	anns, src := ExtractAnnouncements(g, Locate(g), ParseOptions{})
	if src != SourceAnchor {
		t.Errorf("source = %v, want anchor", src)
	}
	if len(anns) != 2 {
		t.Fatalf("got %d announcements, want 2: %+v", len(anns), anns)
	}
	first := anns[0]
	if first.ID != "ann-16" || first.Date != "Fri 12th" || first.Details != "Bring **friends**" || first.Color != announcement.ColorGreen {
		t.Errorf("anns[0] = %+v", first)
	}
	if anns[1].ID != "ann-18" || anns[1].Color != announcement.ColorWhite {
		t.Errorf("anns[1] = %+v, want unknown colour mapped to white", anns[1])
	}
}

func TestExtractAnnouncements_EmptyTextDropped(t *testing.T) {
	g := Grid{
		{"News"},
		{"Mon 1st", ""},
		{"Tue 2nd", "-"},
		{"Wed 3rd", "Open floor"},
	}
	anns, _ := ExtractAnnouncements(g, Locate(g), ParseOptions{})
	if len(anns) != 1 || anns[0].Text != "Open floor" {
		t.Errorf("announcements = %+v, want only Open floor", anns)
	}
}

func TestExtractAnnouncements_Bounded(t *testing.T) {
	g := Grid{{"Updates"}}
	for i := 0; i < 30; i++ {
		g = append(g, []string{"day", "item"})
	}
	anns, _ := ExtractAnnouncements(g, Locate(g), ParseOptions{})
	if len(anns) != DefaultLayout.AnnouncementRows {
		t.Errorf("got %d announcements, want window size %d", len(anns), DefaultLayout.AnnouncementRows)
	}
}
