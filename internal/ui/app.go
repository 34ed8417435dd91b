package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sill/internal/feed"
	"github.com/five82/sill/internal/metrics"
	"github.com/five82/sill/internal/prefs"
	"github.com/five82/sill/internal/query"
	"github.com/five82/sill/internal/state"
	"github.com/five82/sill/internal/windows"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewUpload
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    windows.API
	Feed      *feed.Feed
	Health    *state.Store
	Prefs     *prefs.Store
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
	APIURL    string
	ImageURL  string
	LogPath   string
	PollTick  time.Duration
	ThemeName string
}

// notice is a transient message shown in the header.
type notice struct {
	text   string
	danger bool
	until  time.Time
}

// dupeState holds the duplicates loaded for one record.
type dupeState struct {
	id      string
	items   []windows.Window
	err     error
	loading bool
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	client   windows.API
	feed     *feed.Feed
	health   *state.Store
	prefs    *prefs.Store
	metrics  *metrics.Recorder
	logger   *slog.Logger
	apiURL   string
	imageURL string
	logPath  string
	pollTick time.Duration
	keys     keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	healthSnap state.Snapshot
	feedSnap   feed.Snapshot

	// Feed state
	selected       int
	detailViewport viewport.Model
	dupes          dupeState
	searchActive   bool
	searchInput    textinput.Model
	modal          Modal

	// Upload state
	upload uploadState

	// Log state
	logViewport viewport.Model
	logState    logState

	showHelp bool
	notice   notice
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	themeName := opts.ThemeName
	if themeName == "" && opts.Prefs != nil {
		themeName = opts.Prefs.Prefs().Theme
	}

	f := opts.Feed
	if f == nil {
		f = feed.New(opts.Client, query.State{}, feed.DefaultLimit)
	}

	search := textinput.New()
	search.Placeholder = "Search windows..."
	search.CharLimit = 200
	search.Prompt = "/"

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		feed:        f,
		health:      opts.Health,
		prefs:       opts.Prefs,
		metrics:     opts.Metrics,
		logger:      logger,
		apiURL:      opts.APIURL,
		imageURL:    opts.ImageURL,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewFeed,
		feedSnap:    f.Snapshot(),
		searchInput: search,
		upload:      newUploadState(),
		logState:    newLogState(),

		detailViewport: viewport.New(1, 1),
		logViewport:    viewport.New(1, 1),
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		fetchListingCmd(m.ctx, m.feed, m.feed.Start()),
	}
	if m.health != nil {
		cmds = append(cmds, fetchHealthCmd(m.health))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewports()
		m.updateDetailViewport()
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case healthMsg:
		m.healthSnap = state.Snapshot(msg)
		return m, nil

	case listingMsg:
		m.handleListing(msg)
		return m, nil

	case filterChosenMsg:
		if m.feedSnap.State.Filters.Equal(m.feedSnap.State.Filters.Apply(msg.key, msg.value)) {
			return m, nil
		}
		return m, m.issue(m.feed.ApplyFilter(msg.key, msg.value))

	case duplicatesMsg:
		m.handleDuplicates(msg)
		return m, nil

	case uploadMsg:
		return m.handleUploadResult(msg)

	case logMsg:
		m.handleLogBatch(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	// Focused inputs own the keyboard.
	switch {
	case m.searchActive:
		return m.handleSearchInput(msg)
	case m.currentView == ViewUpload && m.upload.input.Focused():
		return m.handleUploadInput(msg)
	case m.currentView == ViewLogs && m.logState.searchActive:
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefs != nil {
			m.prefs.SetTheme(m.theme.Name)
		}
		m.updateDetailViewport()
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ViewFeed):
		m.currentView = ViewFeed
		return m, nil

	case key.Matches(msg, m.keys.ViewUpload):
		m.currentView = ViewUpload
		return m, m.upload.input.Focus()

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewFeed:
		return m.handleFeedKey(msg)
	case ViewUpload:
		return m.handleUploadKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.health != nil {
		cmds = append(cmds, fetchHealthCmd(m.health))
	}

	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if m.notice.text != "" && time.Now().After(m.notice.until) {
		m.notice = notice{}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// setNotice shows a transient message in the header.
func (m *Model) setNotice(text string, danger bool) {
	m.notice = notice{
		text:   strings.TrimSpace(text),
		danger: danger,
		until:  time.Now().Add(NoticeDuration),
	}
}

// renderMain renders the header, command bar and the active view.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.renderFeed()
	case ViewUpload:
		return m.renderUpload()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// resizeViewports fits the scrollable panes to the terminal.
func (m *Model) resizeViewports() {
	_, detailWidth, _, detailHeight := m.feedPaneSizes()
	m.detailViewport.Width = max(detailWidth-4, 1)
	m.detailViewport.Height = max(detailHeight-2, 1)

	// Box height = m.height - 3 (header, cmdbar, status bar below)
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.height-5, 1)
}

// Messages

type tickMsg time.Time

type healthMsg state.Snapshot

type listingMsg struct {
	req  feed.Request
	resp windows.ListResponse
	err  error
}

type duplicatesMsg struct {
	id    string
	items []windows.Window
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchHealthCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return healthMsg(store.Snapshot())
	}
}

func fetchListingCmd(ctx context.Context, f *feed.Feed, req feed.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := f.Fetch(ctx, req)
		return listingMsg{req: req, resp: resp, err: err}
	}
}

func fetchDuplicatesCmd(ctx context.Context, client windows.API, id string) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return duplicatesMsg{id: id, err: errNoClient}
		}
		items, err := client.ListDuplicates(ctx, id)
		return duplicatesMsg{id: id, items: items, err: err}
	}
}

// Run starts the Bubble Tea program. Cancelling the context ends it cleanly.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
