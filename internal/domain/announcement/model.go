package announcement

import (
	"errors"
	"strings"
)

// Color presets, as typed into the colour column of the sheet.
const (
	ColorGreen  = "green"  // #27ae60
	ColorYellow = "yellow" // #f1c40f
	ColorOrange = "orange" // #F9B232
	ColorRed    = "red"    // #8e1b1b
	ColorWhite  = "white"  // #ffffff, default
)

// ColorHex maps preset names to hex values.
var ColorHex = map[string]string{
	ColorGreen:  "#27ae60",
	ColorYellow: "#f1c40f",
	ColorOrange: "#F9B232",
	ColorRed:    "#8e1b1b",
	ColorWhite:  "#ffffff",
}

// colorAliases maps accepted spellings to a preset.
var colorAliases = map[string]string{
	"green":   ColorGreen,
	"yellow":  ColorYellow,
	"orange":  ColorOrange,
	"red":     ColorRed,
	"maroon":  ColorRed,
	"white":   ColorWhite,
	"default": ColorWhite,
}

// Domain errors
var (
	ErrEmptyText  = errors.New("announcement text cannot be empty")
	ErrHeaderText = errors.New("announcement text is a header label")
)

// Announcement is a dated notice shown on the news feed.
// Date is a display string and is never parsed.
type Announcement struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Text    string `json:"text"`
	Details string `json:"details,omitempty"`
	Color   string `json:"color,omitempty"` // green, yellow, orange, red, white
}

// Validate checks if the Announcement has valid data.
// PRE: Announcement struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Announcement) Validate() error {
	text := strings.TrimSpace(a.Text)
	if text == "" || text == "-" {
		return ErrEmptyText
	}
	if strings.EqualFold(text, "text") {
		return ErrHeaderText
	}
	return nil
}

// EffectiveColor returns the color hex value, defaulting to white.
func (a *Announcement) EffectiveColor() string {
	if hex, ok := ColorHex[a.Color]; ok {
		return hex
	}
	return ColorHex[ColorWhite]
}

// NormalizeColor maps a raw colour cell to a preset name.
// An empty cell yields "". Any other unrecognised value falls back to white.
func NormalizeColor(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if c, ok := colorAliases[raw]; ok {
		return c
	}
	return ColorWhite
}
