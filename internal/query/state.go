package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/sill/internal/windows"
)

// State is the feed's filter and page selection. The zero value is page 1
// with no filters.
type State struct {
	Filters FilterSet
	Page    int
}

// Parse builds a State from an address query such as "type=sliding&page=2".
// A leading "?" is accepted. Malformed pairs are skipped.
func Parse(raw string) State {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(raw)
	return FromValues(values)
}

// FromValues builds a State from query values. Missing keys and All are
// omitted, unknown keys are ignored, and a missing or invalid page is 1.
func FromValues(values url.Values) State {
	var filters FilterSet
	for _, facet := range Facets {
		filters = filters.Apply(facet.Key, values.Get(string(facet.Key)))
	}
	filters = filters.Apply(KeyDuplicate, values.Get(string(KeyDuplicate)))
	filters = filters.Apply(KeySearch, values.Get(string(KeySearch)))

	page, err := strconv.Atoi(strings.TrimSpace(values.Get(pageParam)))
	if err != nil || page < 1 {
		page = 1
	}
	return State{Filters: filters, Page: page}
}

// CurrentPage returns the 1-based page number.
func (s State) CurrentPage() int {
	if s.Page < 1 {
		return 1
	}
	return s.Page
}

// ApplyFilter sets or clears one filter and returns to page 1.
func (s State) ApplyFilter(key Key, value string) State {
	return State{Filters: s.Filters.Apply(key, value), Page: 1}
}

// ApplySearch sets or clears the search term and returns to page 1.
func (s State) ApplySearch(term string) State {
	return s.ApplyFilter(KeySearch, term)
}

// ClearAll drops every filter and returns to page 1.
func (s State) ClearAll() State {
	return State{Page: 1}
}

// GoToPage moves to page n, clamped to 1..totalPages.
func (s State) GoToPage(n, totalPages int) State {
	return State{Filters: s.Filters, Page: ClampPage(n, totalPages)}
}

// Values returns the address-query form of s. Page 1 is implied by absence.
func (s State) Values() url.Values {
	values := s.Filters.Values()
	if page := s.CurrentPage(); page > 1 {
		values.Set(pageParam, strconv.Itoa(page))
	}
	return values
}

// Encode returns the address query for s; empty when nothing is selected.
func (s State) Encode() string {
	return s.Values().Encode()
}

// Equal reports whether s and o select the same filters and page.
func (s State) Equal(o State) bool {
	return s.CurrentPage() == o.CurrentPage() && s.Filters.Equal(o.Filters)
}

// ListQuery returns the listing request for s with the given page size.
func (s State) ListQuery(limit int) windows.ListQuery {
	return windows.ListQuery{
		Page:    s.CurrentPage(),
		Limit:   limit,
		Filters: s.Filters.Values(),
	}
}
