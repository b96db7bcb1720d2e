package danceclass

import (
	"errors"
	"strings"
)

// Defaults shown when the sheet leaves a column blank.
const (
	DefaultContent = "Patterns TBD"
	DefaultNotes   = "No notes for this week."
)

// Domain errors
var (
	ErrEmptyName       = errors.New("class name cannot be empty")
	ErrPlaceholderName = errors.New("class name is a placeholder")
	ErrHeaderName      = errors.New("class name is a header label")
)

// headerLabels are the column and section labels that show up in the class
// window when the export compresses blank rows.
var headerLabels = map[string]bool{
	"class":    true,
	"classes":  true,
	"name":     true,
	"title":    true,
	"artist":   true,
	"date":     true,
	"text":     true,
	"notes":    true,
	"content":  true,
	"patterns": true,
}

// DanceClass is one class on this week's schedule.
// Content is the raw comma-joined pattern list as typed into the sheet.
type DanceClass struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Notes   string `json:"notes"`
}

// Validate checks if the DanceClass has valid data.
// PRE: DanceClass struct is populated
// POST: Returns nil if valid, error otherwise
func (c *DanceClass) Validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if IsPlaceholder(c.Name) {
		return ErrPlaceholderName
	}
	if IsHeaderLabel(c.Name) {
		return ErrHeaderName
	}
	return nil
}

// ApplyDefaults fills blank content and notes with display defaults.
// POST: Content and Notes are non-empty
func (c *DanceClass) ApplyDefaults() {
	if c.Content == "" {
		c.Content = DefaultContent
	}
	if c.Notes == "" {
		c.Notes = DefaultNotes
	}
}

// Patterns splits Content into its individual pattern names.
// INVARIANT: DanceClass fields are not mutated
func (c DanceClass) Patterns() []string {
	if c.Content == "" || c.Content == DefaultContent {
		return nil
	}
	var out []string
	for _, p := range strings.Split(c.Content, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPlaceholder reports whether s is one of the filler tokens editors leave
// in unused rows.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "-" || s == "."
}

// IsHeaderLabel reports whether s reads as a column or section header.
func IsHeaderLabel(s string) bool {
	return headerLabels[strings.ToLower(strings.TrimSpace(s))]
}
