package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/windows"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 12

// Lister fetches one page of windows. *windows.Client implements it.
type Lister interface {
	ListWindows(ctx context.Context, q windows.ListQuery) (windows.ListResponse, error)
}

// AddressWriter receives the address query after every state change.
type AddressWriter interface {
	WriteQuery(raw string)
}

// AddressFunc adapts a function to AddressWriter.
type AddressFunc func(raw string)

// WriteQuery calls f(raw).
func (f AddressFunc) WriteQuery(raw string) { f(raw) }

// Request identifies one listing fetch. Only the most recently issued
// request may change the feed.
type Request struct {
	Seq   uint64
	State query.State
	Limit int
}

// Query returns the outbound listing query for r.
func (r Request) Query() windows.ListQuery {
	return r.State.ListQuery(r.Limit)
}

// Result is the rendered outcome of the latest resolved fetch.
type Result struct {
	Windows    []windows.Window
	Total      int
	Page       int
	TotalPages int
}

// EmptyResult is shown before the first fetch resolves and after a failure.
func EmptyResult() Result {
	return Result{Page: 1, TotalPages: 1}
}

// Pages returns TotalPages, treating an empty listing as one page.
func (r Result) Pages() int {
	if r.TotalPages < 1 {
		return 1
	}
	return r.TotalPages
}

// Option customizes a Feed.
type Option func(*Feed)

// WithAddressWriter mirrors every state change to w.
func WithAddressWriter(w AddressWriter) Option {
	return func(f *Feed) { f.address = w }
}

// WithLogger sets the logger used for fetch outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithStaleHook calls fn whenever a superseded response is discarded.
func WithStaleHook(fn func()) Option {
	return func(f *Feed) { f.onStale = fn }
}

// Feed synchronizes the query state with the listing fetched for it.
type Feed struct {
	mu      sync.Mutex
	lister  Lister
	address AddressWriter
	logger  *slog.Logger
	onStale func()

	limit     int
	state     query.State
	seq       uint64
	pending   bool
	result    Result
	err       error
	stale     int
	fetchedAt time.Time
}

// New returns a Feed starting at initial. limit outside 1..100 falls back to
// DefaultLimit.
func New(lister Lister, initial query.State, limit int, opts ...Option) *Feed {
	if limit < 1 || limit > 100 {
		limit = DefaultLimit
	}
	if initial.Page < 1 {
		initial.Page = 1
	}
	f := &Feed{
		lister: lister,
		logger: slog.New(slog.DiscardHandler),
		limit:  limit,
		state:  initial,
		result: EmptyResult(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start issues the initial request without touching the address query.
func (f *Feed) Start() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked()
}

// ApplyFilter sets or clears one facet, resets to page 1 and issues a request.
func (f *Feed) ApplyFilter(key query.Key, value string) Request {
	return f.change(func(s query.State) query.State { return s.ApplyFilter(key, value) })
}

// ApplySearch sets or clears the search term, resets to page 1 and issues a
// request.
func (f *Feed) ApplySearch(term string) Request {
	return f.change(func(s query.State) query.State { return s.ApplySearch(term) })
}

// ClearAll drops every filter and issues a request for page 1.
func (f *Feed) ClearAll() Request {
	return f.change(func(s query.State) query.State { return s.ClearAll() })
}

// GoToPage moves to page n, clamped to the last known page count.
func (f *Feed) GoToPage(n int) Request {
	f.mu.Lock()
	total := f.result.Pages()
	f.mu.Unlock()
	return f.change(func(s query.State) query.State { return s.GoToPage(n, total) })
}

// Refresh re-issues the current state, e.g. after a failure or an upload.
func (f *Feed) Refresh() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked()
}

// Fetch performs the listing call for req. It does not modify the feed.
func (f *Feed) Fetch(ctx context.Context, req Request) (windows.ListResponse, error) {
	if f.lister == nil {
		return windows.ListResponse{}, fmt.Errorf("feed has no lister")
	}
	return f.lister.ListWindows(ctx, req.Query())
}

// Resolve applies the outcome of req. Outcomes of superseded requests are
// discarded and Resolve returns false. A failure resets the result to
// EmptyResult and records err.
func (f *Feed) Resolve(req Request, resp windows.ListResponse, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Seq != f.seq {
		f.stale++
		f.logger.Debug("discarding stale listing", "seq", req.Seq, "latest", f.seq)
		if f.onStale != nil {
			f.onStale()
		}
		return false
	}

	f.pending = false
	f.fetchedAt = time.Now()
	if err != nil {
		f.result = EmptyResult()
		f.err = err
		f.logger.Warn("listing fetch failed", "query", req.State.Encode(), "error", err)
		return true
	}

	f.result = Result{
		Windows:    cloneWindows(resp.Data),
		Total:      resp.Total,
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
	}
	f.err = nil
	f.logger.Debug("listing fetched", "query", req.State.Encode(), "count", len(resp.Data), "total", resp.Total)
	return true
}

// Run issues req's fetch and resolves it. It reports whether the outcome was
// applied.
func (f *Feed) Run(ctx context.Context, req Request) bool {
	resp, err := f.Fetch(ctx, req)
	return f.Resolve(req, resp, err)
}

// Snapshot returns a copy of the feed for rendering.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := f.result
	res.Windows = cloneWindows(f.result.Windows)
	return Snapshot{
		State:       f.state,
		Result:      res,
		Err:         f.err,
		Loading:     f.pending,
		Seq:         f.seq,
		Stale:       f.stale,
		Limit:       f.limit,
		LastFetched: f.fetchedAt,
	}
}

// State returns the current query state.
func (f *Feed) State() query.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) change(fn func(query.State) query.State) Request {
	f.mu.Lock()
	f.state = fn(f.state)
	req := f.issueLocked()
	addr := f.address
	f.mu.Unlock()

	if addr != nil {
		addr.WriteQuery(req.State.Encode())
	}
	return req
}

func (f *Feed) issueLocked() Request {
	f.seq++
	f.pending = true
	return Request{Seq: f.seq, State: f.state, Limit: f.limit}
}

func cloneWindows(items []windows.Window) []windows.Window {
	if len(items) == 0 {
		return nil
	}
	dup := make([]windows.Window, len(items))
	copy(dup, items)
	return dup
}
