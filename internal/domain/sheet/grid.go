package sheet

import "strings"

// Sheet columns
const (
	ColA = iota // class name, date, section label, song title
	ColB        // class content, announcement text, song artist
	ColC        // class notes, announcement details, song url
	ColD        // announcement colour
	ColE
	ColF // tutorial title
	ColG // tutorial url
)

// Grid is one tab of the sheet as rows of cell text.
// Rows may be ragged: a row can be shorter than the columns a reader asks for.
type Grid [][]string

// Cell returns the trimmed text at (row, col).
// PRE: none
// POST: Returns "" for negative or out-of-range indexes and for short rows; never panics
func (g Grid) Cell(row, col int) string {
	if row < 0 || col < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// lower is Cell folded to lower case for label matching.
func (g Grid) lower(row, col int) string {
	return strings.ToLower(g.Cell(row, col))
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int {
	return len(g)
}

// Compact drops rows in which every cell is blank.
// The JSON export drops them itself; CSV rows are compacted on decode.
func (g Grid) Compact() Grid {
	out := make(Grid, 0, len(g))
	for _, r := range g {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
