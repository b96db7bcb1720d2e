package sheet

import "testing"

func TestGrid_Cell(t *testing.T) {
	g := Grid{
		{"  Beginner Lindy ", "Swingout", "Bring water"},
		{"Blues"},
		{},
	}
	tests := []struct {
		name     string
		row, col int
		want     string
	}{
		{"trimmed", 0, 0, "Beginner Lindy"},
		{"in range", 0, 2, "Bring water"},
		{"short row", 1, 2, ""},
		{"empty row", 2, 0, ""},
		{"row past end", 3, 0, ""},
		{"col past end", 0, 99, ""},
		{"negative row", -1, 0, ""},
		{"negative col", 0, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Cell(tt.row, tt.col); got != tt.want {
				t.Errorf("Cell(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

// TestGrid_Cell_NeverPanics sweeps indexes well outside a ragged grid.
func TestGrid_Cell_NeverPanics(t *testing.T) {
	grids := []Grid{nil, {}, {{}}, {{"a"}, {"b", "c", "d"}, {}}}
	for _, g := range grids {
		for r := -3; r < 6; r++ {
			for c := -3; c < 9; c++ {
				_ = g.Cell(r, c)
			}
		}
	}
}

func TestGrid_Compact(t *testing.T) {
	g := Grid{{"a"}, {"", "  "}, {}, {"", "b"}}
	got := g.Compact()
	if got.Rows() != 2 {
		t.Fatalf("Compact() rows = %d, want 2", got.Rows())
	}
	if got.Cell(1, 1) != "b" {
		t.Errorf("Compact() kept wrong rows: %v", got)
	}
}
