// Package listutil parses paging, sorting and search parameters for list
// endpoints and slices in-memory results into pages.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 50

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// Sort directions
const (
	Asc  = "asc"
	Desc = "desc"
)

// ListParams carries list view parameters parsed from a request.
type ListParams struct {
	Page    int    // 1-indexed page number
	PerPage int    // rows per page
	Sort    string // allowed column, or "" for the natural order
	Dir     string // Asc or Desc
	Search  string // free-text, lowercased and trimmed
}

// Parse extracts page, per_page, sort, dir and q from URL query values.
// PRE: none
// POST: returns valid ListParams with defaults applied; unknown sort columns are dropped
func Parse(q url.Values, sortColumns []string) ListParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	sort := q.Get("sort")
	if !slices.Contains(sortColumns, sort) {
		sort = ""
	}
	dir := q.Get("dir")
	if dir != Desc {
		dir = Asc
	}
	return ListParams{
		Page:    page,
		PerPage: perPage,
		Sort:    sort,
		Dir:     dir,
		Search:  strings.ToLower(strings.TrimSpace(q.Get("q"))),
	}
}

// Matches reports whether any of fields contains the search text.
// An empty search matches everything.
func (p ListParams) Matches(fields ...string) bool {
	if p.Search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), p.Search) {
			return true
		}
	}
	return false
}

// PageInfo carries pagination metadata.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether a later page exists.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

// Paginate returns the rows of items that fall on the requested page.
// POST: the returned slice aliases items; PageInfo.Total == len(items)
func Paginate[T any](items []T, page, perPage int) ([]T, PageInfo) {
	info := NewPageInfo(page, perPage, len(items))
	start := min(info.Offset(), len(items))
	end := min(start+info.PerPage, len(items))
	return items[start:end], info
}
