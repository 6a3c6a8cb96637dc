// Package pagination computes page windows shared by every list view.
package pagination

// Page limits of the list views.
const (
	UserURLsLimit = 20
	AdminLimit    = 10
	VisitsLimit   = 10
)

// Paginator describes the current window of a list view.
type Paginator struct {
	Page       int `json:"page"`
	PagesCount int `json:"pagesCount"`
	Offset     int `json:"-"`
	Limit      int `json:"-"`
}

// Paginate returns the effective page, the page count and the row offset for a listing of
// total rows split into pages of limit rows.
//
// The page count is never below 1. A requested page that is <= 1 or past the last page
// falls back to page 1.
func Paginate(requested, limit, total int) Paginator {
	if limit <= 0 {
		limit = 1
	}
	if total < 0 {
		total = 0
	}

	pagesCount := (total + limit - 1) / limit
	if pagesCount < 1 {
		pagesCount = 1
	}

	page := requested
	if requested <= 1 || requested > pagesCount {
		page = 1
	}

	return Paginator{
		Page:       page,
		PagesCount: pagesCount,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
}
