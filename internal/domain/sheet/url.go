package sheet

import (
	"regexp"
	"strings"
)

var (
	linkRegex     = regexp.MustCompile(`(?i)https?://[^\s"']+`)
	trailingRegex = regexp.MustCompile(`[,.)\]}!?;:]+$`)
	bareIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractURL pulls the first link out of free cell text.
// Trailing punctuation left over from copy-paste is stripped. Text that is
// exactly a bare 11-character video ID is returned as-is.
// PRE: none
// POST: Returns a link, a bare ID, or ""; ExtractURL(ExtractURL(s)) == ExtractURL(s)
func ExtractURL(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, m := range linkRegex.FindAllString(text, -1) {
		m = trailingRegex.ReplaceAllString(m, "")
		if i := strings.Index(m, "://"); i >= 0 && len(m) > i+3 {
			return m
		}
	}
	if bareIDRegex.MatchString(text) {
		return text
	}
	return ""
}
