package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/blackbox/internal/logfile"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.Render("blackbox", styles.Logo)}

	if !m.snapshot.HasData {
		if m.snapshot.LastError != nil {
			parts = append(parts,
				bg.Render("UNREADABLE", styles.DangerText),
				bg.Render(truncate(m.snapshot.LastError.Error(), 60), styles.MutedText))
		} else {
			parts = append(parts, bg.Render("Reading diagnostics...", styles.WarningText.Bold(true)))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	counts := countLevels(m.snapshot.Entries)
	for _, level := range []logfile.Level{logfile.Info, logfile.Warning, logfile.Error} {
		style := styles.MutedText
		if counts[level] > 0 && level != logfile.Info {
			style = styles.LevelText(level).Background(lipgloss.Color(m.theme.Surface)).Bold(true)
		}
		label := level.Label() + ":"
		if !compact {
			label = titleLevel(level) + ":"
		}
		parts = append(parts,
			bg.Render(label, styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", counts[level]), style))
	}

	crashStyle := styles.MutedText
	if len(m.snapshot.Stacktraces) > 0 {
		crashStyle = styles.DangerText
	}
	parts = append(parts,
		bg.Render("Crashes:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Stacktraces)), crashStyle))

	if ts := formatTimestamp(m.lastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.LastError != nil {
		label := "ERROR"
		if m.snapshot.IsOffline() {
			label = "STALE"
		}
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render(label, styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText))
	}

	if m.errorMsg != "" {
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(m.errorMsg, styles.WarningText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func countLevels(entries []logfile.Entry) map[logfile.Level]int {
	counts := make(map[logfile.Level]int, 3)
	for _, e := range entries {
		counts[e.Level]++
	}
	return counts
}

func titleLevel(level logfile.Level) string {
	s := level.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatTimestamp formats the last update time with relative indicator.
func formatTimestamp(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	since := now.Sub(at)
	s := at.Format("15:04:05")
	switch {
	case since < time.Minute:
		s += " (now)"
	case since < time.Hour:
		s += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		s += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewCrashes:
		commands = []cmd{
			{"j/k", "Select"},
			{"^d/^u", "Scroll"},
			{"l", "Logs"},
			{"r", "Refresh"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"f", "Level " + levelFilterLabel(m.logs.minLevel)},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"c", "Crashes"},
			{"r", "Refresh"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLogs && m.logs.searchQuery != "" {
		segments = append(segments, bg.Render("/"+truncate(m.logs.searchQuery, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

// renderBox draws content inside a rounded border with the title set into
// the top edge. width and height include the border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	if focused {
		borderColor = m.theme.BorderFocus
		titleStyle = titleStyle.Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)
	}
	border := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))

	inner := max(width-2, 1)
	title = truncate(title, max(inner-4, 1))
	fill := max(inner-lipgloss.Width(title)-3, 0)
	top := edge.Render(border.TopLeft+border.Top) +
		titleStyle.Render(" "+title+" ") +
		edge.Render(strings.Repeat(border.Top, fill)+border.TopRight)

	body := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(lipgloss.Color(borderColor)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Width(inner).
		Height(max(height-2, 1)).
		MaxHeight(max(height-1, 2)).
		Render(content)

	return top + "\n" + body
}
