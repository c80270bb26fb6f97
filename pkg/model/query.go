package model

import (
	"fmt"
	"net/url"
	"strconv"
)

// SortField is the column the posts list is ordered by.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortRating    SortField = "rating"
)

// Valid reports whether f is a sort field the backend accepts.
func (f SortField) Valid() bool {
	return f == SortCreatedAt || f == SortRating
}

// ParseSortField converts user input to a SortField.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if !f.Valid() {
		return "", fmt.Errorf("invalid sort field %q (use %s or %s)", s, SortCreatedAt, SortRating)
	}
	return f, nil
}

// SortOrder is the direction of the ordering.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// ParseSortOrder converts user input to a SortOrder.
func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(s)
	if !o.Valid() {
		return "", fmt.Errorf("invalid sort order %q (use %s or %s)", s, OrderAsc, OrderDesc)
	}
	return o, nil
}

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// PostsQuery is the tuple that fully determines a posts list fetch.
// It is a value type: every change produces a new query.
type PostsQuery struct {
	Page   int       `json:"page"`
	Limit  int       `json:"limit"`
	Search string    `json:"search,omitempty"`
	Sort   SortField `json:"sort"`
	Order  SortOrder `json:"order"`
}

// DefaultPostsQuery returns the query the posts list starts with.
func DefaultPostsQuery() PostsQuery {
	return PostsQuery{
		Page:  1,
		Limit: DefaultLimit,
		Sort:  SortCreatedAt,
		Order: OrderDesc,
	}
}

// Validate checks the query bounds and enumerations.
func (q PostsQuery) Validate() error {
	var details []FieldError
	if q.Page < 1 {
		details = append(details, FieldError{Field: "page", Message: "must be >= 1"})
	}
	if q.Limit < 1 {
		details = append(details, FieldError{Field: "limit", Message: "must be > 0"})
	}
	if !q.Sort.Valid() {
		details = append(details, FieldError{Field: "sort", Message: fmt.Sprintf("unsupported value %q", q.Sort)})
	}
	if !q.Order.Valid() {
		details = append(details, FieldError{Field: "order", Message: fmt.Sprintf("unsupported value %q", q.Order)})
	}
	if len(details) > 0 {
		return NewValidationError("invalid posts query", details...)
	}
	return nil
}

// WithSearch returns a copy searching for s, back on the first page.
func (q PostsQuery) WithSearch(s string) PostsQuery {
	q.Search = s
	q.Page = 1
	return q
}

// WithSort returns a copy ordered by f. The page is kept.
func (q PostsQuery) WithSort(f SortField) PostsQuery {
	q.Sort = f
	return q
}

// WithPage returns a copy positioned on page n.
func (q PostsQuery) WithPage(n int) PostsQuery {
	q.Page = n
	return q
}

// Values encodes the query for GET /api/v1/posts/. An empty search is omitted.
func (q PostsQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("sort", string(q.Sort))
	v.Set("order", string(q.Order))
	return v
}
