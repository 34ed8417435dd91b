package feed

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"sync"
	"testing"

	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/windows"
)

type fakeLister struct {
	mu      sync.Mutex
	queries []windows.ListQuery
	resp    windows.ListResponse
	err     error
}

func (f *fakeLister) ListWindows(_ context.Context, q windows.ListQuery) (windows.ListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.resp, f.err
}

type addressLog struct {
	writes []string
}

func (a *addressLog) WriteQuery(raw string) { a.writes = append(a.writes, raw) }

func page(n, total int, ids ...string) windows.ListResponse {
	data := make([]windows.Window, 0, len(ids))
	for _, id := range ids {
		data = append(data, windows.Window{ID: id})
	}
	return windows.ListResponse{Data: data, Total: total, Page: n, Limit: 12, TotalPages: (total + 11) / 12}
}

func TestNew_DefaultsLimitAndStartsEmpty(t *testing.T) {
	f := New(nil, query.State{}, 0)
	snap := f.Snapshot()
	if snap.Limit != DefaultLimit {
		t.Fatalf("limit = %d, want %d", snap.Limit, DefaultLimit)
	}
	if snap.Page() != 1 || snap.Result.Total != 0 || snap.Result.Pages() != 1 {
		t.Fatalf("initial snapshot = %+v, want empty page 1", snap)
	}
	if New(nil, query.State{}, 500).Snapshot().Limit != DefaultLimit {
		t.Fatalf("limit above 100 not replaced")
	}
}

func TestScenario_FilterSearchFetch(t *testing.T) {
	lister := &fakeLister{resp: page(1, 3, "a", "b", "c")}
	addr := &addressLog{}
	f := New(lister, query.State{Page: 4}, 12, WithAddressWriter(addr))

	f.ApplyFilter(query.KeyType, "sliding")
	f.ApplyFilter(query.KeyMaterial, "wood")
	req := f.ApplySearch("balcony")
	if !f.Run(context.Background(), req) {
		t.Fatalf("Run returned false for latest request")
	}

	if len(lister.queries) != 1 {
		t.Fatalf("lister called %d times, want 1", len(lister.queries))
	}
	got := lister.queries[0]
	if got.Page != 1 || got.Limit != 12 {
		t.Fatalf("page/limit = %d/%d, want 1/12", got.Page, got.Limit)
	}
	want := url.Values{"type": {"sliding"}, "material": {"wood"}, "search": {"balcony"}}
	if !reflect.DeepEqual(got.Filters, want) {
		t.Fatalf("filters = %v, want %v", got.Filters, want)
	}

	wantAddr := []string{
		"type=sliding",
		"material=wood&type=sliding",
		"material=wood&search=balcony&type=sliding",
	}
	if !reflect.DeepEqual(addr.writes, wantAddr) {
		t.Fatalf("address writes = %q, want %q", addr.writes, wantAddr)
	}

	snap := f.Snapshot()
	if len(snap.Result.Windows) != 3 || snap.Loading || snap.Err != nil {
		t.Fatalf("snapshot = %+v", snap)
	}
	if got := snap.Summary(); got != "Showing 3 of 3 windows (filtered)" {
		t.Fatalf("Summary = %q", got)
	}
}

func TestResolve_DiscardsStaleResponses(t *testing.T) {
	staleHits := 0
	f := New(nil, query.State{}, 12, WithStaleHook(func() { staleHits++ }))

	first := f.ApplyFilter(query.KeyType, "fixed")
	second := f.ApplyFilter(query.KeyType, "pivot")

	// The newer response lands first, then the older one arrives late.
	if !f.Resolve(second, page(1, 2, "p1", "p2"), nil) {
		t.Fatalf("Resolve(second) = false, want true")
	}
	if f.Resolve(first, page(1, 30, "f1"), nil) {
		t.Fatalf("Resolve(first) = true, want stale discard")
	}
	if f.Resolve(first, windows.ListResponse{}, errors.New("late failure")) {
		t.Fatalf("stale failure applied")
	}

	snap := f.Snapshot()
	if snap.Result.Total != 2 || len(snap.Result.Windows) != 2 || snap.Result.Windows[0].ID != "p1" {
		t.Fatalf("result = %+v, want pivot listing", snap.Result)
	}
	if snap.Err != nil {
		t.Fatalf("Err = %v, want nil", snap.Err)
	}
	if snap.Stale != 2 || staleHits != 2 {
		t.Fatalf("stale = %d hook=%d, want 2", snap.Stale, staleHits)
	}
	if got, _ := snap.State.Filters.Get(query.KeyType); got != "pivot" {
		t.Fatalf("state type = %q, want pivot", got)
	}
}

func TestResolve_FailureResetsToEmpty(t *testing.T) {
	f := New(nil, query.State{}, 12)
	req := f.Start()
	f.Resolve(req, page(1, 40, "a", "b"), nil)

	req = f.GoToPage(3)
	boom := errors.New("api GET /api/windows returned status 500")
	if !f.Resolve(req, windows.ListResponse{}, boom) {
		t.Fatalf("Resolve returned false")
	}
	snap := f.Snapshot()
	if !errors.Is(snap.Err, boom) {
		t.Fatalf("Err = %v, want %v", snap.Err, boom)
	}
	if !reflect.DeepEqual(snap.Result, EmptyResult()) {
		t.Fatalf("result = %+v, want EmptyResult", snap.Result)
	}
	if !snap.Empty() {
		t.Fatalf("Empty() = false after failure")
	}

	// Retrying the same state clears the error on success.
	req = f.Refresh()
	f.Resolve(req, page(3, 40, "z"), nil)
	snap = f.Snapshot()
	if snap.Err != nil || snap.Page() != 3 || snap.Result.Total != 40 {
		t.Fatalf("after refresh = %+v", snap)
	}
}

func TestGoToPage_ClampsToKnownPages(t *testing.T) {
	addr := &addressLog{}
	f := New(nil, query.State{}, 12, WithAddressWriter(addr))
	f.Resolve(f.Start(), page(1, 40, "a"), nil) // 4 pages

	if got := f.GoToPage(9).State.Page; got != 4 {
		t.Fatalf("GoToPage(9) page = %d, want 4", got)
	}
	if got := f.GoToPage(0).State.Page; got != 1 {
		t.Fatalf("GoToPage(0) page = %d, want 1", got)
	}
	req := f.GoToPage(2)
	if req.State.Page != 2 || req.Query().Page != 2 {
		t.Fatalf("GoToPage(2) = %+v", req)
	}
	if last := addr.writes[len(addr.writes)-1]; last != "page=2" {
		t.Fatalf("address = %q, want page=2", last)
	}
}

func TestClearAll_WritesBareAddress(t *testing.T) {
	addr := &addressLog{}
	initial := query.Parse("type=sliding&isDuplicate=true&page=3")
	f := New(nil, initial, 12, WithAddressWriter(addr))

	req := f.ClearAll()
	if req.State.Page != 1 || !req.State.Filters.IsEmpty() {
		t.Fatalf("ClearAll state = %+v", req.State)
	}
	if len(addr.writes) != 1 || addr.writes[0] != "" {
		t.Fatalf("address writes = %q, want one empty write", addr.writes)
	}
}

func TestSnapshot_PaginationHelpers(t *testing.T) {
	f := New(nil, query.Parse("page=5"), 12)
	f.Resolve(f.Start(), page(5, 120, "a"), nil) // 10 pages

	snap := f.Snapshot()
	if !snap.HasPrev() || !snap.HasNext() {
		t.Fatalf("HasPrev/HasNext = %v/%v, want both", snap.HasPrev(), snap.HasNext())
	}
	if got := snap.PageButtons(); !reflect.DeepEqual(got, []int{3, 4, 5, 6, 7}) {
		t.Fatalf("PageButtons = %v", got)
	}
	if got := snap.Summary(); got != "Showing 1 of 120 windows" {
		t.Fatalf("Summary = %q", got)
	}

	f.Resolve(f.GoToPage(10), page(10, 120, "z"), nil)
	if f.Snapshot().HasNext() {
		t.Fatalf("HasNext on last page")
	}
}

func TestFetch_RequiresLister(t *testing.T) {
	f := New(nil, query.State{}, 12)
	if _, err := f.Fetch(context.Background(), f.Start()); err == nil {
		t.Fatalf("Fetch without lister returned nil error")
	}
}

func TestAddressFunc(t *testing.T) {
	var got string
	f := New(nil, query.State{}, 12, WithAddressWriter(AddressFunc(func(raw string) { got = raw })))
	f.ApplyFilter(query.KeyDaytime, "night")
	if got != "daytime=night" {
		t.Fatalf("address = %q", got)
	}
}
