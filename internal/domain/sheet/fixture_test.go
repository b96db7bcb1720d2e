package sheet

// studioGrid is an anchored sheet with every section present.
//
//	row 0      class header            row 13  video of the month label
//	rows 1-4   classes (two fillers)   row 14  announcements label
//	row 5      music header (new)      row 15  column headers
//	row 8      music header (blues)    rows 16-20 news, tutorials continue in F/G
//	row 10     music header (practice)
func studioGrid() Grid {
	return Grid{
		{"Class", "Content", "Notes", "", "", "Tutorial", "Link"},
		{"Beginner Lindy", "Swingout, Tuck turn", "Bring water", "", "", "Swingout basics", "https://youtu.be/aaaaaaaaaaa"},
		{"Intermediate", "", "", "", "", "Full playlist", "https://www.youtube.com/playlist?list=PLstudio1"},
		{"-", "", ""},
		{".", "", ""},
		{"Title", "Artist", "Link"},
		{"Song A", "Artist A", "https://youtu.be/bbbbbbbbbbb,"},
		{"Song B", "Artist B", ""},
		{"Title", "Artist"},
		{"Blues 1", "Bessie", "ccccccccccc"},
		{"title", "artist"},
		{"Practice 1", "Count Basie", ""},
		{"-", "", ""},
		{"Video of the Month", "https://www.youtube.com/watch?v=ddddddddddd", "Lindy circle"},
		{"Announcements"},
		{"Date", "Text", "Details", "Color"},
		{"Fri 12th", "Social dance tonight", "Bring **friends**", "Green"},
		{"Sat 13th", "", "", ""},
		{"", "No class next week", "", "purple"},
		{"", "", "", "", "", "Swingout again", "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
		{"", "", "", "", "", "Playlist", "https://www.youtube.com/embed/videoseries?list=PLstudio1"},
	}
}

// layoutGrid follows DefaultLayout with no recognisable anchors at all.
func layoutGrid() Grid {
	g := make(Grid, 32)
	set := func(row int, cells ...string) { g[row] = cells }
	set(0, "Week", "Patterns", "Notes")
	set(1, "Lindy 1", "Swingout", "")
	set(2, "Lindy 2", "Circle", "Partner swap")
	for _, h := range []int{6, 13, 20} {
		set(h, "Track", "Performer", "Where")
	}
	set(7, "New 1", "Band", "https://youtu.be/eeeeeeeeeee")
	set(14, "Blues 1", "Singer", "")
	set(21, "Practice 1", "Orchestra", "")
	set(27, "https://youtu.be/fffffffffff", "Monthly move")
	set(28, "Mon", "Hall booked", "", "orange")
	set(29, "title", "this is not news")
	set(30, "Tue", "Late start", "", "")
	return g
}
