// Package listing holds the query-side plumbing shared by the paginated
// read endpoints: page/limit coercion, sort whitelisting and page math.
// Repositories translate these values into SQL.
package listing

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is an offset-based pagination window.
type Page struct {
	Number int
	Limit  int
}

// ParsePage coerces the page/limit query parameters base-10. Non-numeric,
// zero or negative values fall back to the defaults; limit is capped so a
// single request cannot drain the table.
func ParsePage(values url.Values) Page {
	page := atoiOr(values.Get("page"), DefaultPage)
	limit := atoiOr(values.Get("limit"), DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Page{Number: page, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Sort is a validated order-by choice. Column is always one of the
// whitelisted video columns, so it is safe to splice into SQL.
type Sort struct {
	Column     string
	Descending bool
}

// videoSortColumns maps API sort fields onto video columns. Anything not in
// the map falls back to the creation-time default.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"updatedAt": "v.updated_at",
	"title":     "v.title",
	"duration":  "v.duration_seconds",
}

// DefaultVideoSort is newest-first creation order.
func DefaultVideoSort() Sort {
	return Sort{Column: "v.created_at", Descending: true}
}

// ParseVideoSort reads sortBy/sortType. Both must be present and sortBy must
// be a known field for an explicit sort to apply; otherwise the default is
// used. sortType "desc" sorts descending, anything else ascending.
func ParseVideoSort(values url.Values) Sort {
	sortBy := values.Get("sortBy")
	sortType := values.Get("sortType")
	if sortBy == "" || sortType == "" {
		return DefaultVideoSort()
	}

	column, ok := videoSortColumns[sortBy]
	if !ok {
		return DefaultVideoSort()
	}

	return Sort{Column: column, Descending: sortType == "desc"}
}

// OrderBy renders the ORDER BY fragment for this sort.
func (s Sort) OrderBy() string {
	if s.Descending {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// VideoQuery is the full input to the video listing pipeline.
type VideoQuery struct {
	// Query is a free-text needle matched case-insensitively against title
	// and description. Empty means no text filter.
	Query string
	// OwnerID restricts the listing to one uploader. Empty means no owner
	// filter. A malformed userId parameter never reaches this field.
	OwnerID string
	Sort    Sort
	Page    Page
}

// ParseVideoQuery assembles a VideoQuery from request parameters. A userId
// that is not a well-formed UUID is silently dropped rather than rejected;
// the listing simply falls back to all owners.
func ParseVideoQuery(values url.Values) VideoQuery {
	q := VideoQuery{
		Query: values.Get("query"),
		Sort:  ParseVideoSort(values),
		Page:  ParsePage(values),
	}

	if userID := values.Get("userId"); userID != "" {
		if id, err := uuid.Parse(userID); err == nil {
			q.OwnerID = id.String()
		}
	}

	return q
}

// PageInfo describes where a result window sits within the full match set.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// PageInfoFor computes pagination flags from the total count taken against
// the same predicate as the item query.
func PageInfoFor(page Page, total int) PageInfo {
	totalPages := total / page.Limit
	if total%page.Limit != 0 {
		totalPages++
	}

	return PageInfo{
		CurrentPage: page.Number,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: page.Number < totalPages,
		HasPrevPage: page.Number > 1,
	}
}

func atoiOr(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
