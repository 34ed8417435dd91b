package ui

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sill/internal/feed"
	"github.com/five82/sill/internal/prefs"
	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/windows"
)

type fakeAPI struct {
	mu        sync.Mutex
	queries   []url.Values
	listResp  windows.ListResponse
	listErr   error
	uploads   []windows.Image
	uploadRes windows.Window
	uploadErr error
	dupes     []windows.Window
}

func (f *fakeAPI) ListWindows(_ context.Context, q windows.ListQuery) (windows.ListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q.Values())
	resp := f.listResp
	resp.Page = q.Page
	return resp, f.listErr
}

func (f *fakeAPI) GetWindow(_ context.Context, id string) (windows.Window, error) {
	return windows.Window{ID: id}, nil
}

func (f *fakeAPI) ListDuplicates(_ context.Context, _ string) ([]windows.Window, error) {
	return f.dupes, nil
}

func (f *fakeAPI) UploadWindow(_ context.Context, img windows.Image) (windows.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, img)
	return f.uploadRes, f.uploadErr
}

func (f *fakeAPI) Health(context.Context) (windows.HealthResponse, error) {
	return windows.HealthResponse{Status: "ok"}, nil
}

func (f *fakeAPI) lastQuery(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatalf("no listing request was made")
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func listing(total, pages int, ids ...string) windows.ListResponse {
	data := make([]windows.Window, 0, len(ids))
	for _, id := range ids {
		data = append(data, windows.Window{ID: id, Description: "window " + id})
	}
	return windows.ListResponse{Data: data, Total: total, Limit: 12, TotalPages: pages}
}

type testEnv struct {
	api       *fakeAPI
	addresses []string
}

// newTestModel returns a sized model whose initial listing has resolved.
func newTestModel(t *testing.T, env *testEnv, mutate ...func(*Options)) Model {
	t.Helper()
	f := feed.New(env.api, query.State{}, 12, feed.WithAddressWriter(feed.AddressFunc(func(raw string) {
		env.addresses = append(env.addresses, raw)
	})))
	opts := Options{Client: env.api, Feed: f, ThemeName: "Nightfox"}
	for _, fn := range mutate {
		fn(&opts)
	}
	m := New(opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = exec(t, m, fetchListingCmd(m.ctx, m.feed, m.feed.Start()))
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// exec runs cmd and feeds its message back into the model.
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	next, follow := m.Update(cmd())
	return next.(Model), follow
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func TestInitialListingRendersSummary(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(2, 1, "aaaaaaaa1111", "bbbbbbbb2222")}}
	m := newTestModel(t, env)

	q := env.api.lastQuery(t)
	if q.Get("page") != "1" || q.Get("limit") != "12" || len(q) != 2 {
		t.Fatalf("initial query = %v, want page=1&limit=12 only", q)
	}
	if len(env.addresses) != 0 {
		t.Fatalf("initial fetch wrote address %v", env.addresses)
	}

	view := m.View()
	for _, want := range []string{"Showing 2 of 2 windows", "aaaaaaaa", "Window aaaaaaaa"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
	if strings.Contains(view, "(filtered)") {
		t.Fatalf("unfiltered view marked as filtered")
	}
}

func TestFilterAndSearchScenario(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(1, 1, "cccccccc")}}
	m := newTestModel(t, env)

	var cmd tea.Cmd
	m, cmd = press(t, m, keyRunes("f"))
	if cmd != nil || m.modal == nil {
		t.Fatalf("f did not open the filter modal")
	}
	m = update(t, m, keyEsc)
	if m.modal != nil {
		t.Fatalf("esc did not close the filter modal")
	}

	for _, msg := range []filterChosenMsg{
		{key: query.KeyType, value: "sliding"},
		{key: query.KeyMaterial, value: "wood"},
	} {
		next, cmd := m.Update(msg)
		m, _ = exec(t, next.(Model), cmd)
	}

	m, _ = press(t, m, keyRunes("/"))
	if !m.searchActive {
		t.Fatalf("/ did not open the search prompt")
	}
	m, _ = press(t, m, keyRunes("balcony"))
	m, cmd = press(t, m, keyEnter)
	m, _ = exec(t, m, cmd)

	want := url.Values{
		"type":     {"sliding"},
		"material": {"wood"},
		"search":   {"balcony"},
		"page":     {"1"},
		"limit":    {"12"},
	}
	if got := env.api.lastQuery(t); got.Encode() != want.Encode() {
		t.Fatalf("query = %q, want %q", got.Encode(), want.Encode())
	}
	if last := env.addresses[len(env.addresses)-1]; last != "material=wood&search=balcony&type=sliding" {
		t.Fatalf("address = %q", last)
	}
	if !strings.Contains(m.View(), "(filtered)") {
		t.Fatalf("filtered summary missing from view")
	}
}

func TestFilterChoiceMatchingStateIsIgnored(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(1, 1, "a")}}
	m := newTestModel(t, env)

	_, cmd := m.Update(filterChosenMsg{key: query.KeyType, value: query.All})
	if cmd != nil {
		t.Fatalf("no-op filter change issued a request")
	}
}

func TestFilterModalEmitsChoice(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(1, 1, "a")}}
	m := newTestModel(t, env)

	m, _ = press(t, m, keyRunes("f"))
	m, _ = press(t, m, keyRight) // daytime: all -> day
	m, cmd := press(t, m, keyEnter)
	if m.modal == nil {
		t.Fatalf("modal closed after applying a choice")
	}
	msg, ok := cmd().(filterChosenMsg)
	if !ok || msg.key != query.KeyDaytime || msg.value != "day" {
		t.Fatalf("modal emitted %#v", msg)
	}

	// Applying the same choice again is a no-op.
	if _, cmd = press(t, m, keyEnter); cmd != nil {
		t.Fatalf("re-applying the same option emitted a command")
	}
}

func TestPaginationKeys(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(80, 7, "a", "b")}}
	m := newTestModel(t, env)

	if _, cmd := press(t, m, keyRunes("[")); cmd != nil {
		t.Fatalf("previous page on page 1 issued a request")
	}

	m, cmd := press(t, m, keyRunes("]"))
	m, _ = exec(t, m, cmd)
	if got := env.api.lastQuery(t).Get("page"); got != "2" {
		t.Fatalf("page after ] = %s, want 2", got)
	}

	m, cmd = press(t, m, keyRunes("5"))
	m, _ = exec(t, m, cmd)
	if got := env.api.lastQuery(t).Get("page"); got != "5" {
		t.Fatalf("page after button 5 = %s, want 5", got)
	}
	if last := env.addresses[len(env.addresses)-1]; last != "page=5" {
		t.Fatalf("address = %q, want page=5", last)
	}

	view := m.View()
	if !strings.Contains(view, "Page 5 of 7") {
		t.Fatalf("pagination bar missing from view")
	}

	m, cmd = press(t, m, keyRunes("c"))
	_, _ = exec(t, m, cmd)
	if got := env.api.lastQuery(t).Get("page"); got != "1" {
		t.Fatalf("page after clear = %s, want 1", got)
	}
	if last := env.addresses[len(env.addresses)-1]; last != "" {
		t.Fatalf("address after clear = %q, want empty", last)
	}
}

func TestStaleListingIsDiscarded(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(1, 1, "a")}}
	m := newTestModel(t, env)

	first := m.feed.ApplyFilter(query.KeyType, "fixed")
	second := m.feed.ApplyFilter(query.KeyType, "sliding")

	m = update(t, m, listingMsg{req: second, resp: listing(1, 1, "second")})
	m = update(t, m, listingMsg{req: first, resp: listing(1, 1, "first")})

	if got := m.feedSnap.Result.Windows; len(got) != 1 || got[0].ID != "second" {
		t.Fatalf("windows = %+v, want the newer response", got)
	}
	if m.feedSnap.Stale != 1 {
		t.Fatalf("stale = %d, want 1", m.feedSnap.Stale)
	}
}

func TestListingFailureOffersRetry(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listErr: &windows.APIError{Method: "GET", Path: "/api/windows", Status: 502}}}
	m := newTestModel(t, env)

	if m.feedSnap.Err == nil || m.feedSnap.Result.Total != 0 {
		t.Fatalf("snapshot = %+v, want error and empty result", m.feedSnap)
	}
	view := m.View()
	if !strings.Contains(view, "Could not load windows") || !strings.Contains(view, "Press r to retry") {
		t.Fatalf("error state missing from view")
	}

	env.api.listErr = nil
	env.api.listResp = listing(1, 1, "back")
	m, cmd := press(t, m, keyRunes("r"))
	m, _ = exec(t, m, cmd)
	if m.feedSnap.Err != nil || len(m.feedSnap.Result.Windows) != 1 {
		t.Fatalf("retry did not recover: %+v", m.feedSnap)
	}
	if env.api.listCalls() != 2 {
		t.Fatalf("list calls = %d, want 2", env.api.listCalls())
	}
}

func TestEmptyFilteredStateSuggestsClearing(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(0, 0)}}
	m := newTestModel(t, env)

	next, cmd := m.Update(filterChosenMsg{key: query.KeyPanes, value: "triple"})
	m, _ = exec(t, next.(Model), cmd)

	view := m.View()
	if !strings.Contains(view, "No windows found") || !strings.Contains(view, "Press c to clear filters") {
		t.Fatalf("filtered empty state missing from view")
	}
}

func TestUploadRejectsNonImageBeforeSending(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(0, 0)}}
	m := newTestModel(t, env)

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, _ = press(t, m, keyRunes("u"))
	if m.currentView != ViewUpload || !m.upload.input.Focused() {
		t.Fatalf("u did not open a focused upload form")
	}
	m, _ = press(t, m, keyRunes(path))
	m, cmd := press(t, m, keyEnter)
	m, _ = exec(t, m, cmd)

	if len(env.api.uploads) != 0 {
		t.Fatalf("non-image was sent to the API")
	}
	if !strings.Contains(m.notice.text, "Only image files can be uploaded") {
		t.Fatalf("notice = %q", m.notice.text)
	}
	if m.upload.input.Value() != path {
		t.Fatalf("input cleared after failure: %q", m.upload.input.Value())
	}
}

func TestUploadEmptyPathNeedsNoRequest(t *testing.T) {
	env := &testEnv{api: &fakeAPI{}}
	m := newTestModel(t, env)

	m, _ = press(t, m, keyRunes("u"))
	m, cmd := press(t, m, keyEnter)
	if cmd != nil || m.upload.submitting {
		t.Fatalf("empty selection started an upload")
	}
	if !strings.Contains(m.notice.text, "Select an image") {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestUploadSuccessShowsResultAndRefreshesFeed(t *testing.T) {
	env := &testEnv{api: &fakeAPI{
		listResp:  listing(0, 0),
		uploadRes: windows.Window{ID: "deadbeefcafe", IsDuplicate: true, Description: "Balcony door"},
	}}
	m := newTestModel(t, env)

	path := filepath.Join(t.TempDir(), "window.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, _ = press(t, m, keyRunes("u"))
	m, _ = press(t, m, keyRunes(path))
	m, cmd := press(t, m, keyEnter)
	if !m.upload.submitting {
		t.Fatalf("upload not marked in flight")
	}
	if _, again := press(t, m, keyEnter); again != nil {
		t.Fatalf("second submit allowed while uploading")
	}

	calls := env.api.listCalls()
	m, cmd = exec(t, m, cmd)
	if len(env.api.uploads) != 1 || env.api.uploads[0].ContentType != "image/png" {
		t.Fatalf("uploads = %+v", env.api.uploads)
	}
	if m.upload.result == nil || m.upload.result.ID != "deadbeefcafe" {
		t.Fatalf("result = %+v", m.upload.result)
	}
	view := m.View()
	if !strings.Contains(view, "Balcony door") || !strings.Contains(view, "Duplicate") {
		t.Fatalf("result card missing from upload view")
	}

	_, _ = exec(t, m, cmd)
	if env.api.listCalls() != calls+1 {
		t.Fatalf("feed not refreshed after upload")
	}
}

func TestUploadFailureKeepsPreviousResult(t *testing.T) {
	env := &testEnv{api: &fakeAPI{listResp: listing(0, 0)}}
	m := newTestModel(t, env)
	prev := windows.Window{ID: "11111111"}
	m.upload.result = &prev

	m = update(t, m, uploadMsg{path: "x.jpg", err: &windows.APIError{Status: 413}, sent: true})
	if m.upload.result == nil || m.upload.result.ID != "11111111" {
		t.Fatalf("previous result replaced on failure")
	}
	if !strings.Contains(m.notice.text, "too large") || !m.notice.danger {
		t.Fatalf("notice = %+v", m.notice)
	}
}

func TestDuplicatesLookup(t *testing.T) {
	env := &testEnv{api: &fakeAPI{
		listResp: listing(1, 1, "aaaaaaaa"),
		dupes:    []windows.Window{{ID: "ffffffff0000"}},
	}}
	m := newTestModel(t, env)

	m, cmd := press(t, m, keyRunes("d"))
	if !m.dupes.loading {
		t.Fatalf("duplicates not marked loading")
	}
	m, _ = exec(t, m, cmd)
	if len(m.dupes.items) != 1 {
		t.Fatalf("dupes = %+v", m.dupes)
	}
	if !strings.Contains(m.View(), "ffffffff") {
		t.Fatalf("duplicate missing from detail card")
	}
}

func TestThemeCyclePersists(t *testing.T) {
	env := &testEnv{api: &fakeAPI{}}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	store := prefs.NewStore(prefsPath, prefs.Prefs{Theme: "Nightfox"}, nil)
	m := newTestModel(t, env, func(o *Options) {
		o.Prefs = store
		o.ThemeName = ""
	})

	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme = %q, want prefs theme", m.theme.Name)
	}
	m, _ = press(t, m, keyRunes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	loaded, err := prefs.Load(prefsPath)
	if err != nil || loaded.Theme != "Kanagawa" {
		t.Fatalf("persisted prefs = %+v, %v", loaded, err)
	}
}

func TestLogViewSearch(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sill.log")
	body := strings.Join([]string{
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"listing fetched","count":3}`,
		`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"upload failed","error":"status 413"}`,
		`{"time":"2026-01-02T10:00:02Z","level":"INFO","msg":"window uploaded","id":"abc"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env := &testEnv{api: &fakeAPI{}}
	m := newTestModel(t, env, func(o *Options) { o.LogPath = logPath })

	m, cmd := press(t, m, keyRunes("l"))
	m, _ = exec(t, m, cmd)
	if len(m.logState.records) != 3 {
		t.Fatalf("records = %d, want 3", len(m.logState.records))
	}

	m, _ = press(t, m, keyRunes("/"))
	m, _ = press(t, m, keyRunes("upload"))
	m, _ = press(t, m, keyEnter)
	if got := m.logState.searchMatches; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("matches = %v, want [1 2]", got)
	}
	if m.logState.follow {
		t.Fatalf("follow still on after jumping to a match")
	}

	m, _ = press(t, m, keyRunes("n"))
	if m.logState.searchMatchIdx != 1 {
		t.Fatalf("match index = %d, want 1", m.logState.searchMatchIdx)
	}
	m, _ = press(t, m, keyEsc)
	if m.logState.searchRegex != nil {
		t.Fatalf("esc did not clear the search")
	}
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	env := &testEnv{api: &fakeAPI{}}
	m := newTestModel(t, env)

	m, _ = press(t, m, keyRunes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, cmd := press(t, m, keyRunes("e"))
	if m.showHelp || cmd != nil {
		t.Fatalf("key while help is open was not swallowed")
	}
}

func TestClassifyConnectionError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("dial tcp: connection refused"), "OFFLINE"},
		{errors.New("lookup api: no such host"), "HOST NOT FOUND"},
		{errors.New("context deadline exceeded"), "TIMEOUT"},
		{&windows.APIError{Status: 503}, "HTTP 503"},
		{errors.New("boom"), "ERROR"},
	}
	for _, tc := range cases {
		if got := classifyConnectionError(tc.err); got != tc.want {
			t.Fatalf("classifyConnectionError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
