package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/sill/internal/windows"
)

// renderHeader renders the status bar: logo, API health, address query,
// page, totals and the last error or notice.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	snap := m.feedSnap

	parts := []string{
		bg.Render("sill", styles.Logo),
		m.formatHealth(styles, bg),
	}

	address := snap.State.Encode()
	if address == "" {
		address = "(all windows)"
	}
	maxQuery := 48
	if compact {
		maxQuery = 24
	}
	if compact {
		parts = append(parts, bg.Render("?"+truncate(address, maxQuery), styles.AccentText))
	} else {
		parts = append(parts,
			bg.Render("Query:", styles.MutedText)+bg.Space()+bg.Render(truncate(address, maxQuery), styles.AccentText))
	}

	parts = append(parts,
		bg.Render("Page:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", snap.Page(), snap.Result.Pages()), styles.Text),
		bg.Render("Total:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", snap.Result.Total), styles.Text),
	)

	if snap.Loading {
		parts = append(parts, bg.Render("Loading...", styles.InfoText))
	} else if ts := formatTimestamp(snap.LastFetched); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.Err != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(windows.UserMessage(snap.Err), maxErr), styles.DangerText))
	}

	if m.notice.text != "" {
		style := styles.SuccessText
		if m.notice.danger {
			style = styles.WarningText
		}
		parts = append(parts,
			bg.Render("!", style.Bold(true))+bg.Space()+bg.Render(truncate(m.notice.text, 60), style))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatHealth renders the API health indicator.
func (m Model) formatHealth(styles Styles, bg BgStyle) string {
	h := m.healthSnap
	switch {
	case !h.HasStatus && h.LastError == nil:
		return bg.Render("Connecting to "+truncateMiddle(m.apiURL, 32)+"...", styles.WarningText.Bold(true))
	case h.IsOffline():
		return bg.Render("● API "+classifyConnectionError(h.LastError), styles.DangerText)
	case h.Healthy():
		return bg.Render("● API", styles.SuccessText)
	case h.LastError != nil:
		return bg.Render("● API retrying", styles.WarningText)
	default:
		return bg.Render("● API "+orDash(h.Health.Status), styles.WarningText)
	}
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	if status := windows.StatusOf(err); status != 0 {
		return fmt.Sprintf("HTTP %d", status)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// formatTimestamp formats a fetch time with a relative indicator.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	since := time.Since(t)
	out := t.Format("15:04:05")
	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"r", "Reload"},
			{"b", "Feed"},
			{"u", "Upload"},
			{"?", "More"},
		}
	case ViewUpload:
		commands = []cmd{
			{"enter", "Upload"},
			{"esc", "Leave input"},
			{"b", "Feed"},
			{"l", "Logs"},
			{"?", "More"},
		}
	default:
		filterLabel := "Filters"
		if n := m.feedSnap.State.Filters.Len(); n > 0 {
			filterLabel = fmt.Sprintf("Filters (%d)", n)
		}
		commands = []cmd{
			{"/", "Search"},
			{"f", filterLabel},
			{"c", "Clear"},
			{"[/]", "Page"},
			{"1-5", "Jump"},
			{"r", "Refresh"},
			{"d", "Dupes"},
			{"u", "Upload"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLogs && m.logState.searchQuery != "" {
		segments = append(segments, bg.Render("/"+truncate(m.logState.searchQuery, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
