// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size used when the request gives none.
const DefaultLimit = 10

// MaxLimit caps client-requested page sizes.
const MaxLimit = 100

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before this page.
func (p Page) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Parse reads ?page= and ?limit=, falling back to page 1 and DefaultLimit on
// missing or invalid values and clamping limit to MaxLimit.
func Parse(r *http.Request) Page {
	return Page{
		Page:  atoiMin(query.Get(r, "page"), 1, 1),
		Limit: clamp(atoiMin(query.Get(r, "limit"), DefaultLimit, 1), MaxLimit),
	}
}

// Info is the pagination block returned with list responses.
type Info struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

// NewInfo computes the page count for total rows.
func NewInfo(p Page, total int64) Info {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Info{Current: p.Page, Pages: pages, Total: total}
}

func atoiMin(s string, def, min int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return def
	}
	return n
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}
