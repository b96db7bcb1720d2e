// Package listutil reads list bounds from query strings.
package listutil

import (
	"math"
	"net/url"
	"strconv"
)

// Ledger page sizes accepted in per_page.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PageParams is the page a caller asked for, 1-indexed.
type PageParams struct {
	Page    int
	PerPage int
}

// PageInfo describes the page actually served.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ParsePageParams reads page and per_page. Anything unusable falls back to
// page 1 of DefaultPerPage rows.
func ParsePageParams(q url.Values) PageParams {
	return PageParams{
		Page:    intParam(q, "page", 1, 1, math.MaxInt),
		PerPage: intParam(q, "per_page", DefaultPerPage, 1, MaxPerPage),
	}
}

// ParseLimit reads limit, using def unless the value lies in [1, maxLimit].
func ParseLimit(q url.Values, def, maxLimit int) int {
	return intParam(q, "limit", def, 1, maxLimit)
}

// NewPageInfo sizes the result for total rows and moves an out-of-range page
// onto the last one. An empty result still has one page.
// POST: 1 <= Page <= TotalPages
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset is the number of rows before this page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func intParam(q url.Values, key string, def, lo, hi int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}
