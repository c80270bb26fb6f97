package model

import "encoding/json"

// PostsPage is one page of the posts list.
type PostsPage struct {
	Items []PostSummary `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// UnmarshalJSON accepts the backend's "size" as an alias of "limit".
func (p *PostsPage) UnmarshalJSON(data []byte) error {
	type plain PostsPage
	var aux struct {
		plain
		Size *int `json:"size"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PostsPage(aux.plain)
	if p.Limit == 0 && aux.Size != nil {
		p.Limit = *aux.Size
	}
	return nil
}

// PageCount returns ceil(total/limit), or 0 when limit is not positive.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// MaxPageNumbers is the most page numbers a Pagination lists.
const MaxPageNumbers = 9

// Pagination is the derived state of the pager under the list.
type Pagination struct {
	Current      int   `json:"current"`
	Pages        int   `json:"pages"`
	Numbers      []int `json:"numbers"`
	PrevDisabled bool  `json:"prev_disabled"`
	NextDisabled bool  `json:"next_disabled"`
}

// NewPagination derives the pager for the given total, page size and page.
// "Previous" is disabled on the first page and "next" on the last one (or when
// there are no pages at all). Numbers lists every page, or a window of
// MaxPageNumbers pages around the current one when there are more.
func NewPagination(total, limit, current int) Pagination {
	pages := PageCount(total, limit)
	first, last := 1, pages
	if pages > MaxPageNumbers {
		first = current - MaxPageNumbers/2
		first = max(1, min(first, pages-MaxPageNumbers+1))
		last = first + MaxPageNumbers - 1
	}
	numbers := make([]int, 0, max(0, last-first+1))
	for n := first; n <= last; n++ {
		numbers = append(numbers, n)
	}
	return Pagination{
		Current:      current,
		Pages:        pages,
		Numbers:      numbers,
		PrevDisabled: current <= 1,
		NextDisabled: current >= pages,
	}
}

// HasPage reports whether n is a page the pager can navigate to.
func (p Pagination) HasPage(n int) bool {
	return n >= 1 && n <= p.Pages
}
