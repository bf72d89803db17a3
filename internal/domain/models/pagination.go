package models

import "sort"

// Pagination defaults, applied only when the caller omits the field
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// SortDirection orders search results
type SortDirection string

// Supported sort directions
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Pagination describes the page window and ordering of a search. Page and
// Limit are pointers so that an omitted field is distinguishable from an
// explicit zero or negative value; explicit values are passed through
// uninterpreted.
type Pagination struct {
	Page          *int          `json:"page,omitempty"`
	Limit         *int          `json:"limit,omitempty"`
	SortField     string        `json:"sortField,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
}

// PageValue returns the requested page, defaulting only when omitted
func (p *Pagination) PageValue() int {
	if p == nil || p.Page == nil {
		return DefaultPage
	}
	return *p.Page
}

// LimitValue returns the requested page size, defaulting only when omitted
func (p *Pagination) LimitValue() int {
	if p == nil || p.Limit == nil {
		return DefaultLimit
	}
	return *p.Limit
}

// SearchResult is a single page of matches plus the total filtered count
// before pagination
type SearchResult struct {
	Results []Resource `json:"results"`
	Total   int64      `json:"total"`
}

// PageBounds converts a page window into clamped slice bounds over a result
// set of length total. Non-positive limits and out-of-range pages produce an
// empty window rather than an error.
func PageBounds(page, limit, total int) (int, int) {
	if limit <= 0 || page <= 0 {
		return 0, 0
	}
	start := (page - 1) * limit
	if start >= total {
		return 0, 0
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

// SortResources stably sorts resources in place by the named field. Resources
// missing the field order first regardless of direction.
func SortResources(resources []Resource, field string, direction SortDirection) {
	if field == "" {
		return
	}
	desc := direction == SortDesc
	sort.SliceStable(resources, func(i, j int) bool {
		a, aok := resources[i].Field(field)
		b, bok := resources[j].Field(field)
		if !aok || !bok {
			return !aok && bok
		}
		cmp, ok := CompareValues(a, b)
		if !ok {
			cmp = compareStrings(Stringify(a), Stringify(b))
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
