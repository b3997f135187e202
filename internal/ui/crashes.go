package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/blackbox/internal/crash"
)

// maxCrashListRows caps the stacktrace list; the preview gets the rest.
const maxCrashListRows = 8

// crashState holds the stacktrace browser state.
type crashState struct {
	selected    int
	preview     viewport.Model
	previewPath string
	previewText string
	previewErr  error
}

// stacktraceMsg carries the contents of one stacktrace file.
type stacktraceMsg struct {
	path string
	text string
	err  error
}

func readStacktraceCmd(path string) tea.Cmd {
	return func() tea.Msg {
		text, err := crash.Read(path)
		return stacktraceMsg{path: path, text: text, err: err}
	}
}

// crashListHeight is the number of rows the list occupies.
func (m Model) crashListHeight() int {
	return min(max(len(m.snapshot.Stacktraces), 1), maxCrashListRows)
}

// selectedStacktrace returns the path under the cursor, if any.
func (m Model) selectedStacktrace() string {
	traces := m.snapshot.Stacktraces
	if m.crashes.selected < 0 || m.crashes.selected >= len(traces) {
		return ""
	}
	return traces[m.crashes.selected]
}

// loadSelectedStacktrace reads the selected file unless it is already shown.
func (m *Model) loadSelectedStacktrace() tea.Cmd {
	path := m.selectedStacktrace()
	if path == "" {
		m.crashes.previewPath = ""
		m.crashes.previewText = ""
		m.crashes.previewErr = nil
		m.updatePreviewViewport()
		return nil
	}
	if path == m.crashes.previewPath && m.crashes.previewErr == nil {
		return nil
	}
	return m.guard(readStacktraceCmd(path))
}

// syncCrashSelection keeps the cursor in range after the list changes.
func (m *Model) syncCrashSelection() tea.Cmd {
	n := len(m.snapshot.Stacktraces)
	if m.crashes.selected >= n {
		m.crashes.selected = max(n-1, 0)
	}
	// Resize in case the list height changed.
	if m.ready {
		m.resizeViewports()
	}
	if m.currentView != ViewCrashes {
		return nil
	}
	return m.loadSelectedStacktrace()
}

// handleStacktrace installs a loaded stacktrace if it is still selected.
func (m *Model) handleStacktrace(msg stacktraceMsg) {
	if msg.path != m.selectedStacktrace() {
		return
	}
	m.crashes.previewPath = msg.path
	m.crashes.previewText = msg.text
	m.crashes.previewErr = msg.err
	m.updatePreviewViewport()
	m.crashes.preview.GotoTop()
}

// updatePreviewViewport refreshes the preview content.
func (m *Model) updatePreviewViewport() {
	if m.crashes.preview.Width == 0 {
		return
	}
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	m.crashes.preview.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	width := m.crashes.preview.Width
	var lines []string
	switch {
	case m.crashes.previewErr != nil:
		lines = []string{bg.Render("Could not read stacktrace: "+m.crashes.previewErr.Error(), styles.DangerText)}
	case m.crashes.previewPath == "":
		lines = []string{bg.Render("Nothing selected", styles.MutedText)}
	default:
		for i, line := range strings.Split(strings.TrimRight(m.crashes.previewText, "\n"), "\n") {
			style := styles.Text
			switch {
			case i == 0:
				style = styles.DangerText
			case strings.HasPrefix(line, "goroutine "):
				style = styles.AccentText
			case strings.HasPrefix(line, "\t"):
				style = styles.MutedText
			}
			lines = append(lines, bg.Render(strings.ReplaceAll(line, "\t", "    "), style))
		}
	}
	for i := range lines {
		lines[i] = bg.FillLine(lines[i], width)
	}
	m.crashes.preview.SetContent(strings.Join(lines, "\n"))
}

// stacktraceLabel renders a list row: capture time plus file name.
func stacktraceLabel(path string) string {
	name := filepath.Base(path)
	if at, ok := crash.Stamp(path); ok {
		return fmt.Sprintf("%s  %s", at.Format("2006-01-02 15:04:05"), name)
	}
	return name
}

// renderCrashes renders the stacktrace list and preview.
func (m Model) renderCrashes() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := max(m.width-2, 1)
	traces := m.snapshot.Stacktraces

	var rows []string
	if len(traces) == 0 {
		msg := "No stacktraces"
		if m.traceDir == "" {
			msg = "Stacktrace directory not configured"
		}
		rows = append(rows, bg.FillLine(bg.Render(msg, styles.MutedText), width))
	} else {
		// Keep the cursor inside the visible window.
		listHeight := m.crashListHeight()
		start := 0
		if m.crashes.selected >= listHeight {
			start = m.crashes.selected - listHeight + 1
		}
		end := min(start+listHeight, len(traces))
		for i := start; i < end; i++ {
			label := truncate(stacktraceLabel(traces[i]), width-2)
			if i == m.crashes.selected {
				rows = append(rows, styles.Selected.Width(width).Render("> "+label))
				continue
			}
			rows = append(rows, bg.FillLine(bg.Spaces(2)+bg.Render(label, styles.Text), width))
		}
	}

	title := fmt.Sprintf("Stacktraces (%d)", len(traces))
	bodyHeight := max(m.height-3, 3)
	content := strings.Join(rows, "\n") + "\n" +
		bg.FillLine(bg.Render(strings.Repeat("─", width), styles.FaintText), width) + "\n" +
		m.crashes.preview.View()

	status := bg.Render(truncateMiddle(m.traceDir, 60), styles.MutedText)
	if n := len(traces); n > 0 {
		status = bg.Render(fmt.Sprintf("%d of %d", m.crashes.selected+1, n), styles.FaintText) +
			bg.Space() + bg.Render("•", styles.FaintText) + bg.Space() + status
	}
	return m.renderBox(title, content, m.width, bodyHeight, true) + "\n" + status
}

// handleCrashesKey processes keyboard input for the stacktrace view.
func (m Model) handleCrashesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snapshot.Stacktraces)
	prev := m.crashes.selected

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.crashes.selected < n-1 {
			m.crashes.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.crashes.selected > 0 {
			m.crashes.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.crashes.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.crashes.selected = max(n-1, 0)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.crashes.preview.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.crashes.preview.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.crashes.preview.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.crashes.preview.PageUp()
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewLogs
		return m, nil
	}

	if m.crashes.selected != prev {
		cmd := m.loadSelectedStacktrace()
		return m, cmd
	}
	return m, nil
}
