package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sill/internal/logtail"
)

// logState holds all log-related state.
type logState struct {
	records []logtail.Record
	lines   []string // plain rendering of records, used for search
	follow  bool
	err     error

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int // Line indices that match
	searchMatchIdx int   // Current match index

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

type logMsg struct {
	records []logtail.Record
	err     error
}

func newLogState() logState {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.CharLimit = 100
	ti.Prompt = "/"
	return logState{follow: true, searchInput: ti}
}

// refreshLogs reads the tail of sill's log file.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logMsg{records: logtail.ParseLines(lines), err: err}
	}
}

// handleLogBatch replaces the buffered records.
func (m *Model) handleLogBatch(msg logMsg) {
	m.logState.err = msg.err
	if msg.err != nil {
		return
	}
	m.logState.records = msg.records
	m.logState.lines = make([]string, len(msg.records))
	for i, r := range msg.records {
		m.logState.lines[i] = formatRecord(r)
	}
	m.findSearchMatches()
	m.logState.contentVersion++
	m.updateLogViewport()
}

// formatRecord renders a record as one plain line.
func formatRecord(r logtail.Record) string {
	if r.Raw != "" {
		return r.Raw
	}
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05"))
		b.WriteString(" ")
	}
	b.WriteString(padRight(strings.ToUpper(r.Level), 5))
	b.WriteString(" ")
	b.WriteString(r.Message)
	for _, a := range r.Attrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value)
	}
	return b.String()
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.lastRendered == 0 || m.logState.contentVersion != m.logState.lastRendered {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.lastRendered = max(m.logState.contentVersion, 1)
	}

	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent colors every buffered record.
func (m *Model) renderLogContent() string {
	if len(m.logState.records) == 0 {
		return m.theme.Styles().MutedText.Render("No log entries yet")
	}

	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	current := -1
	matched := make(map[int]bool, len(m.logState.searchMatches))
	for i, idx := range m.logState.searchMatches {
		matched[idx] = true
		if i == m.logState.searchMatchIdx {
			current = idx
		}
	}

	out := make([]string, len(m.logState.records))
	for i, r := range m.logState.records {
		switch {
		case i == current:
			out[i] = styles.Selected.Render(m.logState.lines[i])
		case matched[i]:
			out[i] = bg.Render(m.logState.lines[i], styles.WarningText)
		default:
			out[i] = m.colorizeRecord(r, styles, bg)
		}
	}
	return strings.Join(out, "\n")
}

// colorizeRecord renders a record with its level colored.
func (m *Model) colorizeRecord(r logtail.Record, styles Styles, bg BgStyle) string {
	if r.Raw != "" {
		return bg.Render(r.Raw, styles.MutedText)
	}
	var parts []string
	if !r.Time.IsZero() {
		parts = append(parts, bg.Render(r.Time.Format("15:04:05"), styles.FaintText))
	}
	parts = append(parts,
		bg.Render(padRight(strings.ToUpper(r.Level), 5), m.levelStyle(r.Level, styles)),
		bg.Render(r.Message, styles.Text),
	)
	for _, a := range r.Attrs {
		parts = append(parts, bg.Render(a.Key+"=", styles.FaintText)+bg.Render(a.Value, styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

func (m *Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return styles.DangerText
	case "WARN", "WARNING":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.InfoText
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	contentHeight := max(m.height-3, 3) // header, cmdbar, status bar below

	title := "Sill Log"
	if m.logState.searchQuery != "" {
		title = "Sill Log (search)"
	}
	box := m.renderTitledBox(title, m.logViewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

// renderLogStatus renders the line below the log box.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	var content string
	switch {
	case m.logState.searchActive:
		content = m.logState.searchInput.View()
	case m.logState.err != nil:
		content = bg.Render("Could not read log: "+truncate(m.logState.err.Error(), 80), styles.DangerText)
	case m.logState.searchRegex != nil:
		status := "no matches"
		if n := len(m.logState.searchMatches); n > 0 {
			status = fmt.Sprintf("%d/%d", m.logState.searchMatchIdx+1, n)
		}
		content = bg.Render("/"+m.logState.searchQuery, styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(status, styles.WarningText)
	default:
		follow := "paused"
		if m.logState.follow {
			follow = "following"
		}
		content = bg.Render(truncateMiddle(m.logPath, 60), styles.MutedText) + bg.Spaces(2) +
			bg.Render(fmt.Sprintf("%d lines", len(m.logState.records)), styles.FaintText) + bg.Spaces(2) +
			bg.Render(follow, styles.InfoText)
	}
	return styles.Footer.Width(m.width).Render(content)
}

// handleLogsKey processes keyboard input for logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue("")
		return m, m.logState.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		m.nextSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.previousSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Escape):
		if m.logState.searchRegex != nil {
			m.clearLogSearch()
			m.updateLogViewport()
			return m, nil
		}
		m.currentView = ViewFeed
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true

	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = false

	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logState.follow = false

	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		m.logState.follow = false

	case key.Matches(msg, m.keys.HalfPageUp):
		m.logViewport.HalfPageUp()
		m.logState.follow = false
	}

	return m, nil
}

// handleLogSearchInput handles keyboard input during log search.
func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		query := m.logState.searchInput.Value()
		if query == "" {
			m.logState.searchActive = false
			m.logState.searchInput.Blur()
			return m, nil
		}

		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Invalid regex - stay in search mode
			return m, nil
		}

		m.logState.searchRegex = re
		m.logState.searchQuery = query
		m.logState.searchActive = false
		m.logState.searchInput.Blur()

		m.findSearchMatches()
		if len(m.logState.searchMatches) > 0 {
			m.logState.searchMatchIdx = 0
			m.scrollToSearchMatch()
		}
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		m.logState.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}

// clearLogSearch clears the search state.
func (m *Model) clearLogSearch() {
	m.logState.searchRegex = nil
	m.logState.searchQuery = ""
	m.logState.searchMatches = nil
	m.logState.searchMatchIdx = 0
	m.logState.contentVersion++
}

// findSearchMatches finds all lines matching the current search regex.
func (m *Model) findSearchMatches() {
	m.logState.searchMatches = nil
	if m.logState.searchRegex == nil {
		return
	}
	for i, line := range m.logState.lines {
		if m.logState.searchRegex.MatchString(line) {
			m.logState.searchMatches = append(m.logState.searchMatches, i)
		}
	}
	if m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		m.logState.searchMatchIdx = 0
	}
	m.logState.contentVersion++
}

// nextSearchMatch moves to the next search match.
func (m *Model) nextSearchMatch() {
	if len(m.logState.searchMatches) == 0 {
		return
	}
	m.logState.searchMatchIdx = (m.logState.searchMatchIdx + 1) % len(m.logState.searchMatches)
	m.logState.contentVersion++
	m.scrollToSearchMatch()
	m.updateLogViewport()
}

// previousSearchMatch moves to the previous search match.
func (m *Model) previousSearchMatch() {
	if len(m.logState.searchMatches) == 0 {
		return
	}
	n := len(m.logState.searchMatches)
	m.logState.searchMatchIdx = (m.logState.searchMatchIdx - 1 + n) % n
	m.logState.contentVersion++
	m.scrollToSearchMatch()
	m.updateLogViewport()
}

// scrollToSearchMatch centers the current match in the viewport.
func (m *Model) scrollToSearchMatch() {
	if m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		return
	}
	target := m.logState.searchMatches[m.logState.searchMatchIdx]
	m.logState.follow = false
	m.logViewport.SetYOffset(max(target-m.logViewport.Height/2, 0))
}
