package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sill/internal/windows"
)

var errNoClient = errors.New("no API client configured")

// uploadState holds the upload form and the last returned record.
type uploadState struct {
	input      textinput.Model
	submitting bool
	path       string // path of the in-flight upload
	result     *windows.Window
}

func newUploadState() uploadState {
	ti := textinput.New()
	ti.Placeholder = "~/Pictures/window.jpg"
	ti.CharLimit = 1024
	ti.Prompt = "Image: "
	return uploadState{input: ti}
}

// uploadMsg carries the outcome of one upload. sent is false when the
// selection was rejected before any request was made.
type uploadMsg struct {
	path   string
	window windows.Window
	err    error
	sent   bool
}

// uploadCmd reads and validates the file at path, then uploads it.
func uploadCmd(ctx context.Context, client windows.API, path string) tea.Cmd {
	return func() tea.Msg {
		img, err := windows.OpenImage(path)
		if err != nil {
			return uploadMsg{path: path, err: err}
		}
		if err := img.Validate(); err != nil {
			return uploadMsg{path: path, err: err}
		}
		if client == nil {
			return uploadMsg{path: path, err: errNoClient}
		}
		w, err := client.UploadWindow(ctx, img)
		return uploadMsg{path: path, window: w, err: err, sent: true}
	}
}

// handleUploadInput handles keys while the path input is focused.
func (m Model) handleUploadInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		return m.submitUpload()

	case key.Matches(msg, m.keys.Escape):
		m.upload.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.upload.input, cmd = m.upload.input.Update(msg)
	return m, cmd
}

// handleUploadKey handles keys in the upload view while the input is blurred.
func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.upload.input.Focus()
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewFeed
	}
	return m, nil
}

// submitUpload starts an upload unless one is in flight or no file is named.
func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	if m.upload.submitting {
		return m, nil
	}
	path := strings.TrimSpace(m.upload.input.Value())
	if path == "" {
		m.setNotice(windows.UserMessage(windows.ErrNoFile), true)
		return m, nil
	}
	m.upload.submitting = true
	m.upload.path = path
	return m, uploadCmd(m.ctx, m.client, path)
}

// handleUploadResult shows the returned record, or a notice on failure. The
// input keeps its value either way so the same file can be resubmitted.
func (m Model) handleUploadResult(msg uploadMsg) (tea.Model, tea.Cmd) {
	m.upload.submitting = false
	if msg.sent {
		m.metrics.Upload(msg.err)
	}

	if msg.err != nil {
		m.logger.Warn("upload failed", "path", msg.path, "sent", msg.sent, "error", msg.err)
		m.setNotice("Upload failed: "+windows.UserMessage(msg.err), true)
		return m, nil
	}

	w := msg.window
	m.upload.result = &w
	m.logger.Info("window uploaded", "id", w.ID, "duplicate", w.IsDuplicate, "path", msg.path)
	if w.IsDuplicate {
		m.setNotice("Uploaded; the API marked it as a duplicate", false)
	} else {
		m.setNotice("Image uploaded", false)
	}

	// The new record belongs in the feed.
	return m, m.issue(m.feed.Refresh())
}

// renderUpload renders the upload form and the last result card.
func (m Model) renderUpload() string {
	contentHeight := max(m.height-2, 4)
	width := m.width
	innerWidth := max(width-4, 10)

	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	var lines []string
	lines = append(lines,
		styles.Text.Bold(true).Render("Upload a window photograph"),
		styles.MutedText.Render("The API analyzes the image and checks it for duplicates."),
		"",
		m.upload.input.View(),
		"",
	)

	switch {
	case m.upload.submitting:
		lines = append(lines, styles.WarningText.Render("Uploading "+truncateMiddle(m.upload.path, innerWidth-10)+"..."))
	case m.upload.input.Focused():
		lines = append(lines, styles.FaintText.Render("enter upload  esc leave input"))
	default:
		lines = append(lines, styles.FaintText.Render("enter edit path  esc back to feed"))
	}

	lines = append(lines, "", bg.Render("Result", styles.AccentText.Bold(true)))
	if m.upload.result == nil {
		lines = append(lines, styles.MutedText.Render("Nothing uploaded yet"))
	} else {
		lines = append(lines, strings.Split(m.renderDetailContent(*m.upload.result, innerWidth, m.theme.FocusBg, false), "\n")...)
	}

	content := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.FocusBg)).
		Render(strings.Join(lines, "\n"))
	return m.renderTitledBox("Upload", content, width, contentHeight, true)
}
