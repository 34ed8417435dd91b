// Package query keeps the feed's filter, search and page selection in one
// value and translates it to and from its two external forms: the address
// query (the persisted, user-visible query string) and the listing request
// sent to the Windows API.
//
// The address query carries every active facet, isDuplicate as "true" or
// "false", search when non-empty, and page only when it is greater than 1:
//
//	type=sliding&material=wood&search=balcony&page=3
//
// Parse and Encode round-trip: Parse(s.Encode()) selects the same filters and
// page as s. The value "all" is accepted anywhere a facet value is and always
// means the facet is unconstrained.
//
// Every filter or search change returns to page 1. PageWindow computes the
// page buttons offered for navigation.
package query
