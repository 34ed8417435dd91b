package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sill/internal/query"
)

// filterChosenMsg asks the feed to apply one facet value.
type filterChosenMsg struct {
	key   query.Key
	value string
}

// filterRow is one facet of the filter modal with its pending option.
type filterRow struct {
	facet   query.Facet
	applied string // option value currently in effect
	choice  int    // index into facet.Options
}

// filterModal lets the user pick one option per facet. Each confirmed choice
// is applied immediately and the modal stays open.
type filterModal struct {
	rows   []filterRow
	cursor int
}

func newFilterModal(filters query.FilterSet) *filterModal {
	facets := query.Selectable()
	rows := make([]filterRow, 0, len(facets))
	for _, facet := range facets {
		current, ok := filters.Get(facet.Key)
		if !ok {
			current = query.All
		}
		if !facet.Allows(current) {
			// Values restored from an address query are not validated, so
			// offer them as-is.
			facet.Options = append(append([]query.Option(nil), facet.Options...), query.Option{Label: current, Value: current})
		}
		rows = append(rows, filterRow{facet: facet, applied: current, choice: optionIndex(facet, current)})
	}
	return &filterModal{rows: rows}
}

func optionIndex(facet query.Facet, value string) int {
	for i, opt := range facet.Options {
		if opt.Value == value {
			return i
		}
	}
	return 0
}

// Update implements Modal.
func (f *filterModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(f.rows) == 0 {
		return f, nil, false
	}

	row := &f.rows[f.cursor]
	switch {
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.Filters):
		return f, nil, true

	case key.Matches(keyMsg, keys.Up):
		f.cursor = (f.cursor - 1 + len(f.rows)) % len(f.rows)

	case key.Matches(keyMsg, keys.Down):
		f.cursor = (f.cursor + 1) % len(f.rows)

	case key.Matches(keyMsg, keys.Left):
		row.choice = (row.choice - 1 + len(row.facet.Options)) % len(row.facet.Options)

	case key.Matches(keyMsg, keys.Right):
		row.choice = (row.choice + 1) % len(row.facet.Options)

	case key.Matches(keyMsg, keys.ResetAll):
		row.choice = optionIndex(row.facet, query.All)
		return f, f.apply(row), false

	case key.Matches(keyMsg, keys.Confirm):
		return f, f.apply(row), false
	}
	return f, nil, false
}

// apply emits the row's pending choice when it differs from what is applied.
func (f *filterModal) apply(row *filterRow) tea.Cmd {
	value := row.facet.Options[row.choice].Value
	if value == row.applied {
		return nil
	}
	row.applied = value
	k := row.facet.Key
	return func() tea.Msg {
		return filterChosenMsg{key: k, value: value}
	}
}

// View implements Modal.
func (f *filterModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filters"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	for i, row := range f.rows {
		label := padRight(row.facet.Title, 14)
		option := row.facet.Options[row.choice]
		value := "‹ " + option.Label + " ›"

		valueStyle := styles.MutedText
		if option.Value != query.All {
			valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.BadgeColors["filter"]))
		}
		if option.Value != row.applied {
			valueStyle = styles.WarningText
		}

		line := styles.Text.Render(label) + valueStyle.Render(value)
		if i == f.cursor {
			line = styles.AccentText.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("←/→ choose  enter apply  a all  esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(48)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
