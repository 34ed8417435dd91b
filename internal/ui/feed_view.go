package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sill/internal/feed"
	"github.com/five82/sill/internal/windows"
)

// issue records a new listing request and returns the command that fetches it.
func (m *Model) issue(req feed.Request) tea.Cmd {
	m.feedSnap = m.feed.Snapshot()
	m.selected = 0
	m.dupes = dupeState{}
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
	return fetchListingCmd(m.ctx, m.feed, req)
}

// handleListing applies a listing outcome. Superseded outcomes only bump the
// stale counter shown in the snapshot.
func (m *Model) handleListing(msg listingMsg) {
	applied := m.feed.Resolve(msg.req, msg.resp, msg.err)
	m.feedSnap = m.feed.Snapshot()
	if !applied {
		return
	}
	if n := len(m.feedSnap.Result.Windows); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	m.updateDetailViewport()
}

// handleDuplicates stores the duplicates of the selected record.
func (m *Model) handleDuplicates(msg duplicatesMsg) {
	if msg.id != m.dupes.id {
		return
	}
	m.dupes = dupeState{id: msg.id, items: msg.items, err: msg.err}
	if msg.err != nil {
		m.logger.Warn("duplicates lookup failed", "id", msg.id, "error", msg.err)
	}
	m.updateDetailViewport()
}

// selectedWindow returns the highlighted record, if any.
func (m Model) selectedWindow() *windows.Window {
	items := m.feedSnap.Result.Windows
	if m.selected < 0 || m.selected >= len(items) {
		return nil
	}
	return &items[m.selected]
}

// handleFeedKey processes keyboard input for the feed view.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.feedSnap
	count := len(snap.Result.Windows)

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchActive = true
		m.searchInput.SetValue(snap.State.Filters.Search())
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Filters):
		m.modal = newFilterModal(snap.State.Filters)
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		return m, m.issue(m.feed.ClearAll())

	case key.Matches(msg, m.keys.PrevPage):
		if snap.HasPrev() {
			return m, m.issue(m.feed.GoToPage(snap.Page() - 1))
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if snap.HasNext() {
			return m, m.issue(m.feed.GoToPage(snap.Page() + 1))
		}
		return m, nil

	case key.Matches(msg, m.keys.PageButton):
		idx, err := strconv.Atoi(msg.String())
		if err != nil {
			return m, nil
		}
		buttons := snap.PageButtons()
		if idx < 1 || idx > len(buttons) || buttons[idx-1] == snap.Page() {
			return m, nil
		}
		return m, m.issue(m.feed.GoToPage(buttons[idx-1]))

	case key.Matches(msg, m.keys.Refresh):
		return m, m.issue(m.feed.Refresh())

	case key.Matches(msg, m.keys.Duplicates):
		w := m.selectedWindow()
		if w == nil {
			return m, nil
		}
		m.dupes = dupeState{id: w.ID, loading: true}
		m.updateDetailViewport()
		return m, fetchDuplicatesCmd(m.ctx, m.client, w.ID)

	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
		return m, nil
	}

	if count == 0 {
		return m, nil
	}

	prev := m.selected
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	}
	if m.selected != prev {
		m.detailViewport.GotoTop()
		m.updateDetailViewport()
	}
	return m, nil
}

// handleSearchInput handles keyboard input while the search prompt is open.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		term := m.searchInput.Value()
		m.searchActive = false
		m.searchInput.Blur()
		return m, m.issue(m.feed.ApplySearch(term))

	case key.Matches(msg, m.keys.Escape):
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// feedPaneSizes returns the card list and detail box dimensions.
func (m Model) feedPaneSizes() (listWidth, detailWidth, listHeight, detailHeight int) {
	contentHeight := max(m.height-3, 4) // header, cmdbar, pagination bar
	if m.width < LayoutSplitWidth {
		listHeight = contentHeight / 2
		return m.width, m.width, listHeight, contentHeight - listHeight
	}
	listWidth = m.width * 40 / 100
	if m.width >= LayoutExtraWideWidth {
		listWidth = m.width * 30 / 100
	}
	return listWidth, m.width - listWidth, contentHeight, contentHeight
}

// renderFeed renders the card list, the detail card and the pagination bar.
func (m Model) renderFeed() string {
	listWidth, detailWidth, listHeight, detailHeight := m.feedPaneSizes()
	snap := m.feedSnap

	var body string
	if msg := m.feedPlaceholder(); msg != "" {
		contentHeight := listHeight
		if m.width < LayoutSplitWidth {
			contentHeight += detailHeight
		}
		body = m.renderTitledBox(m.listTitle(), msg, m.width, contentHeight, true)
	} else {
		list := m.renderTitledBox(m.listTitle(), m.renderCardList(listWidth-2, listHeight-2), listWidth, listHeight, true)
		detailTitle := "Details"
		if w := m.selectedWindow(); w != nil {
			detailTitle = "Window " + w.ShortID()
		}
		detail := m.renderTitledBox(detailTitle, m.detailViewport.View(), detailWidth, detailHeight, false)
		if m.width < LayoutSplitWidth {
			body = lipgloss.JoinVertical(lipgloss.Left, list, detail)
		} else {
			body = lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
		}
	}

	return body + "\n" + m.renderPaginationBar(snap)
}

// listTitle returns the card list title with the results summary.
func (m Model) listTitle() string {
	snap := m.feedSnap
	if snap.Loading && len(snap.Result.Windows) == 0 {
		return "Windows"
	}
	return "Windows · " + snap.Summary()
}

// feedPlaceholder returns the message shown instead of the card list, or ""
// when there are cards to show.
func (m Model) feedPlaceholder() string {
	snap := m.feedSnap
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	switch {
	case len(snap.Result.Windows) > 0:
		return ""
	case snap.Loading:
		return styles.MutedText.Render("Loading windows...")
	case snap.Err != nil:
		return styles.DangerText.Render("Could not load windows: "+windows.UserMessage(snap.Err)) + "\n\n" +
			styles.MutedText.Render("Press r to retry")
	case snap.Filtered():
		return styles.Text.Bold(true).Render("No windows found") + "\n\n" +
			styles.MutedText.Render("Try adjusting your filters to see more results.") + "\n" +
			styles.MutedText.Render("Press c to clear filters")
	default:
		return styles.Text.Bold(true).Render("No windows found") + "\n\n" +
			styles.MutedText.Render("No windows available at the moment.")
	}
}

// renderCardList renders one row per record, scrolled to keep the selection
// visible.
func (m Model) renderCardList(width, height int) string {
	items := m.feedSnap.Result.Windows
	if len(items) == 0 || height <= 0 {
		return ""
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(start+height, len(items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.selected
		bgColor := m.theme.FocusBg
		if selected {
			bgColor = m.theme.SelectionBg
		}
		content := m.formatCardRow(items[i], width, bgColor, selected)
		lines = append(lines, NewBgStyle(bgColor).FillLine(content, width))
	}
	return strings.Join(lines, "\n")
}

// formatCardRow formats a record row: "ID Summary · DUP".
func (m Model) formatCardRow(w windows.Window, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	idStyle, textStyle := styles.MutedText, styles.Text
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		idStyle, textStyle = sel, sel
	}

	id := w.ShortID()
	badge := ""
	if w.IsDuplicate {
		badge = "DUP"
	}
	titleWidth := max(width-lipgloss.Width(id)-len(badge)-3, 8)

	row := bg.Render(id, idStyle) + bg.Space() + bg.Render(truncate(cardSummary(w), titleWidth), textStyle)
	if badge != "" {
		row += bg.Space() + styles.BadgeStyle("duplicate").Padding(0).Render(badge)
	}
	return row
}

// cardSummary describes a record in one line: its description, or its most
// telling facets when the analyzer gave none.
func cardSummary(w windows.Window) string {
	if d := strings.TrimSpace(w.Description); d != "" {
		return strings.Join(strings.Fields(d), " ")
	}
	var parts []string
	for _, k := range []string{"type", "material", "location"} {
		if v := w.StructuredData.Get(k); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "No description available"
	}
	return strings.Join(parts, " · ")
}

// updateDetailViewport refreshes the detail card for the current selection.
func (m *Model) updateDetailViewport() {
	w := m.selectedWindow()
	if w == nil {
		m.detailViewport.SetContent("")
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(*w, m.detailViewport.Width, m.theme.SurfaceAlt, true))
}

// renderDetailContent renders the full card of one record. The duplicates
// section is only meaningful where the d key is bound.
func (m Model) renderDetailContent(w windows.Window, width int, bgColor string, showDupes bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	labelWidth := 12

	var lines []string
	field := func(label, value string, style lipgloss.Style) {
		lines = append(lines, bg.Render(padRight(label, labelWidth), styles.MutedText)+
			bg.Render(truncate(value, max(width-labelWidth, 8)), style))
	}

	title := strings.TrimSpace(w.Description)
	if title == "" {
		title = "No description available"
	}
	for _, line := range wrapText(title, max(width, 20)) {
		lines = append(lines, bg.Render(line, styles.Text.Bold(true)))
	}
	lines = append(lines, "")

	badgeKind, badgeText := "unique", "Unique"
	if w.IsDuplicate {
		badgeKind, badgeText = "duplicate", "Duplicate"
	}
	lines = append(lines, bg.Render(padRight("Status", labelWidth), styles.MutedText)+
		styles.BadgeStyle(badgeKind).Render(badgeText))

	field("ID", w.ShortID()+"...", styles.Text)
	if created := w.Created(); !created.IsZero() {
		field("Uploaded", created.Format("2006-01-02 15:04:05"), styles.Text)
	}
	field("Hash", truncateMiddle(orDash(w.Hash), max(width-labelWidth, 8)), styles.FaintText)
	field("Image", truncateMiddle(orDash(windows.ImageURL(m.imageURL, w.ImageURL, previewWidth, previewQuality)), max(width-labelWidth, 8)), styles.InfoText)

	lines = append(lines, "", bg.Render("Structured Data", styles.AccentText.Bold(true)))
	if w.StructuredData.IsEmpty() {
		lines = append(lines, bg.Render("No structured data available", styles.MutedText))
	} else {
		for _, f := range w.StructuredData.Fields() {
			value := f.Value
			if value == "" {
				value = "N/A"
			}
			field(humanize(f.Key), value, styles.Text)
		}
	}

	if !showDupes {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "", bg.Render("Duplicates", styles.AccentText.Bold(true)))
	switch {
	case m.dupes.id != w.ID:
		lines = append(lines, bg.Render("Press d to look up duplicates", styles.FaintText))
	case m.dupes.loading:
		lines = append(lines, bg.Render("Loading...", styles.MutedText))
	case m.dupes.err != nil:
		lines = append(lines, bg.Render(windows.UserMessage(m.dupes.err), styles.DangerText))
	case len(m.dupes.items) == 0:
		lines = append(lines, bg.Render("No duplicates", styles.MutedText))
	default:
		for _, d := range m.dupes.items {
			stamp := ""
			if created := d.Created(); !created.IsZero() {
				stamp = created.Format("2006-01-02 15:04")
			}
			lines = append(lines, bg.Render(d.ShortID(), styles.Text)+bg.Spaces(2)+bg.Render(stamp, styles.MutedText))
		}
	}

	return strings.Join(lines, "\n")
}

// renderPaginationBar renders the bottom line of the feed view: the search
// prompt while searching, otherwise page navigation.
func (m Model) renderPaginationBar(snap feed.Snapshot) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.searchActive {
		return styles.Footer.Width(m.width).Render(m.searchInput.View())
	}

	var parts []string
	if search := snap.State.Filters.Search(); search != "" {
		parts = append(parts, bg.Render("Search:", styles.MutedText)+bg.Space()+bg.Render(truncate(search, 24), styles.AccentText))
	}

	if !snap.Loading && snap.Result.Pages() > 1 {
		prevStyle, nextStyle := styles.AccentText, styles.AccentText
		if !snap.HasPrev() {
			prevStyle = styles.FaintText
		}
		if !snap.HasNext() {
			nextStyle = styles.FaintText
		}

		buttons := []string{bg.Render("[ Prev", prevStyle)}
		for i, page := range snap.PageButtons() {
			label := fmt.Sprintf(" %d ", page)
			if page == snap.Page() {
				buttons = append(buttons, styles.Selected.Render(label))
				continue
			}
			buttons = append(buttons, bg.Render(strconv.Itoa(i+1)+":", styles.FaintText)+bg.Render(strconv.Itoa(page), styles.Text))
		}
		buttons = append(buttons, bg.Render("Next ]", nextStyle))

		parts = append(parts,
			bg.Join(buttons, " "),
			bg.Render(fmt.Sprintf("Page %d of %d • %d total results", snap.Page(), snap.Result.Pages(), snap.Result.Total), styles.MutedText),
		)
	}

	if len(parts) == 0 {
		parts = append(parts, bg.Render(snap.Summary(), styles.MutedText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "   "))
}

// wrapText breaks text into lines no wider than width.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
