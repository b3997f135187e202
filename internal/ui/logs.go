package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/blackbox/internal/logfile"
)

const entryTimeLayout = "2006-01-02 15:04"

// logLine is one rendered row: an entry header or one of its detail lines.
type logLine struct {
	entry  logfile.Entry
	detail bool
	text   string // plain text, used for search
}

// logState holds all log-view state.
type logState struct {
	viewport viewport.Model
	minLevel logfile.Level
	lines    []logLine
	shown    int // entries left after the level filter

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

// initLogState initializes the log state.
func (m *Model) initLogState() {
	ti := textinput.New()
	ti.Placeholder = "Search entries..."
	ti.CharLimit = 100

	m.logs = logState{
		viewport:       viewport.New(0, 0),
		minLevel:       logfile.Info,
		searchInput:    ti,
		contentVersion: 1,
	}
}

// buildLogLines flattens entries at or above min into display rows,
// keeping file order (newest first).
func buildLogLines(entries []logfile.Entry, min logfile.Level) ([]logLine, int) {
	var lines []logLine
	shown := 0
	for _, e := range entries {
		if !e.Level.Enabled(min) {
			continue
		}
		shown++
		lines = append(lines, logLine{entry: e, text: formatEntryHeader(e)})
		if !e.HasDetails() {
			continue
		}
		for _, d := range strings.Split(e.Details, "\n") {
			lines = append(lines, logLine{entry: e, detail: true, text: d})
		}
	}
	return lines, shown
}

// formatEntryHeader renders the plain one-line form of an entry.
func formatEntryHeader(e logfile.Entry) string {
	ts := "--"
	if !e.Time.IsZero() {
		ts = e.Time.Format(entryTimeLayout)
	}
	return fmt.Sprintf("%s %s %s: %s", ts, e.Level.Label(), e.Tag, e.Message)
}

// nextMinLevel cycles the level filter info → warning → error → info.
func nextMinLevel(l logfile.Level) logfile.Level {
	switch l {
	case logfile.Info:
		return logfile.Warning
	case logfile.Warning:
		return logfile.Error
	default:
		return logfile.Info
	}
}

// levelFilterLabel names the current filter for the command bar.
func levelFilterLabel(l logfile.Level) string {
	switch l {
	case logfile.Warning:
		return "W+"
	case logfile.Error:
		return "E"
	default:
		return "All"
	}
}

// rebuildLogLines recomputes rows and search matches from the snapshot.
func (m *Model) rebuildLogLines() {
	m.logs.lines, m.logs.shown = buildLogLines(m.snapshot.Entries, m.logs.minLevel)
	m.findSearchMatches()
}

// updateLogViewport re-renders the viewport when its content changed.
func (m *Model) updateLogViewport() {
	if m.logs.viewport.Width == 0 {
		return
	}
	m.logs.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if m.logs.contentVersion != m.logs.lastRendered {
		m.logs.viewport.SetContent(m.renderLogContent())
		m.logs.lastRendered = m.logs.contentVersion
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	title := "Log entries"
	if m.logs.minLevel != logfile.Info {
		title = fmt.Sprintf("Log entries (%s)", levelFilterLabel(m.logs.minLevel))
	}
	box := m.renderBox(title, m.logs.viewport.View(), m.width, m.height-3, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

// renderLogStatus renders the status line below the log box.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logs.searchActive {
		return bg.Render("search: ", styles.AccentText) + m.logs.searchInput.View()
	}
	if m.logs.searchRegex != nil && len(m.logs.searchMatches) > 0 {
		return bg.Render(fmt.Sprintf("/%s", m.logs.searchQuery), styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", m.logs.searchMatchIdx+1, len(m.logs.searchMatches)), styles.WarningText) +
			bg.Render(" - n/N to move, Esc to clear", styles.FaintText)
	}
	if m.logs.searchRegex != nil {
		return bg.Render("Pattern not found: "+m.logs.searchQuery, styles.DangerText)
	}

	parts := []string{
		bg.Render(fmt.Sprintf("%d of %d entries", m.logs.shown, len(m.snapshot.Entries)), styles.FaintText),
		bg.Render("newest first", styles.FaintText),
	}
	if m.logFile != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.logFile, 60), styles.MutedText))
	} else {
		parts = append(parts, bg.Render("file logging disabled", styles.WarningText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

// renderLogContent renders the colorized rows.
func (m *Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logs.viewport.Width

	if len(m.logs.lines) == 0 {
		msg := "No log entries"
		switch {
		case m.logFile == "":
			msg = "File logging is disabled"
		case len(m.snapshot.Entries) > 0:
			msg = "No entries at or above " + m.logs.minLevel.String()
		}
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	matchSet := make(map[int]bool, len(m.logs.searchMatches))
	for _, idx := range m.logs.searchMatches {
		matchSet[idx] = true
	}
	activeMatchLine := -1
	if m.logs.searchMatchIdx < len(m.logs.searchMatches) {
		activeMatchLine = m.logs.searchMatches[m.logs.searchMatchIdx]
	}

	var b strings.Builder
	for i, line := range m.logs.lines {
		var content string
		switch {
		case i == activeMatchLine:
			content = lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.Warning)).
				Foreground(lipgloss.Color(m.theme.Background)).
				Render(line.text)
		case matchSet[i]:
			content = bg.Render(line.text, styles.AccentText)
		case line.detail:
			content = bg.Spaces(4) + bg.Render(line.text, styles.MutedText)
		default:
			content = m.colorizeEntry(line.entry, styles, bg)
		}
		b.WriteString(bg.FillLine(content, width))
		if i < len(m.logs.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// colorizeEntry renders an entry header with a level badge.
func (m *Model) colorizeEntry(e logfile.Entry, styles Styles, bg BgStyle) string {
	ts := "--"
	if !e.Time.IsZero() {
		ts = e.Time.Format(entryTimeLayout)
	}
	return bg.Render(ts, styles.FaintText) + bg.Space() +
		styles.LevelBadge(e.Level).Render(e.Level.Label()) + bg.Space() +
		bg.Render(e.Tag, styles.LevelText(e.Level).Bold(true)) +
		bg.Render(":", styles.FaintText) + bg.Space() +
		bg.Render(e.Message, styles.Text)
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CycleLevel):
		m.logs.minLevel = nextMinLevel(m.logs.minLevel)
		m.rebuildLogLines()
		m.logs.contentVersion++
		m.updateLogViewport()
		m.logs.viewport.GotoTop()

	case key.Matches(msg, m.keys.Search):
		m.logs.searchActive = true
		m.logs.searchInput.SetValue("")
		cmd := m.logs.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.NextMatch):
		m.moveSearchMatch(1)

	case key.Matches(msg, m.keys.PrevMatch):
		m.moveSearchMatch(-1)

	case key.Matches(msg, m.keys.Escape):
		if m.logs.searchRegex != nil {
			m.clearLogSearch()
			m.updateLogViewport()
		}

	case key.Matches(msg, m.keys.Top):
		m.logs.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
	case key.Matches(msg, m.keys.Down):
		m.logs.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logs.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logs.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logs.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logs.viewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logs.viewport.PageUp()
	}
	return m, nil
}

// handleSearchInput handles keyboard input while typing a search.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.logs.searchInput.Value()
		if query == "" {
			m.logs.searchActive = false
			m.logs.searchInput.Blur()
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Invalid regex - stay in search mode
			return m, nil
		}
		m.logs.searchRegex = re
		m.logs.searchQuery = query
		m.logs.searchActive = false
		m.logs.searchInput.Blur()
		m.findSearchMatches()
		m.logs.searchMatchIdx = 0
		m.updateLogViewport()
		m.scrollToSearchMatch()
		return m, nil

	case key.Matches(msg, m.keys.Escape), msg.String() == "ctrl+c":
		m.logs.searchActive = false
		m.logs.searchInput.Blur()
		m.logs.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.logs.searchInput, cmd = m.logs.searchInput.Update(msg)
	return m, cmd
}

// clearLogSearch clears the search state.
func (m *Model) clearLogSearch() {
	m.logs.searchRegex = nil
	m.logs.searchQuery = ""
	m.logs.searchMatches = nil
	m.logs.searchMatchIdx = 0
	m.logs.contentVersion++
}

// findSearchMatches finds all rows matching the current search regex.
func (m *Model) findSearchMatches() {
	m.logs.searchMatches = nil
	if m.logs.searchRegex == nil {
		return
	}
	for i, line := range m.logs.lines {
		if m.logs.searchRegex.MatchString(line.text) {
			m.logs.searchMatches = append(m.logs.searchMatches, i)
		}
	}
	if m.logs.searchMatchIdx >= len(m.logs.searchMatches) {
		m.logs.searchMatchIdx = 0
	}
	m.logs.contentVersion++
}

// moveSearchMatch steps through matches, wrapping at either end.
func (m *Model) moveSearchMatch(delta int) {
	n := len(m.logs.searchMatches)
	if n == 0 {
		return
	}
	m.logs.searchMatchIdx = ((m.logs.searchMatchIdx+delta)%n + n) % n
	m.logs.contentVersion++
	m.updateLogViewport()
	m.scrollToSearchMatch()
}

// scrollToSearchMatch centers the current match when possible.
func (m *Model) scrollToSearchMatch() {
	if m.logs.searchMatchIdx >= len(m.logs.searchMatches) {
		return
	}
	target := m.logs.searchMatches[m.logs.searchMatchIdx]
	m.logs.viewport.SetYOffset(max(target-m.logs.viewport.Height/2, 0))
}
