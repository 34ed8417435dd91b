package feed

import (
	"fmt"
	"time"

	"github.com/five82/sill/internal/query"
)

// Snapshot is a point-in-time copy of a Feed.
type Snapshot struct {
	State       query.State
	Result      Result
	Err         error
	Loading     bool
	Seq         uint64
	Stale       int
	Limit       int
	LastFetched time.Time
}

// Filtered reports whether any filter or search is active.
func (s Snapshot) Filtered() bool {
	return !s.State.Filters.IsEmpty()
}

// Page returns the page being shown.
func (s Snapshot) Page() int {
	return s.State.CurrentPage()
}

// HasPrev reports whether a previous page exists.
func (s Snapshot) HasPrev() bool {
	return s.Page() > 1
}

// HasNext reports whether a later page exists.
func (s Snapshot) HasNext() bool {
	return s.Page() < s.Result.Pages()
}

// PageButtons returns the page numbers offered for direct navigation.
func (s Snapshot) PageButtons() []int {
	return query.PageWindow(s.Page(), s.Result.Pages())
}

// Summary renders the results line, e.g. "Showing 12 of 40 windows (filtered)".
func (s Snapshot) Summary() string {
	msg := fmt.Sprintf("Showing %d of %d windows", len(s.Result.Windows), s.Result.Total)
	if s.Filtered() {
		msg += " (filtered)"
	}
	return msg
}

// Empty reports whether the resolved listing has no records.
func (s Snapshot) Empty() bool {
	return !s.Loading && len(s.Result.Windows) == 0
}
