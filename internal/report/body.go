package report

import (
	"strings"
)

const (
	maxTitleLength = 50
	titleEllipsis  = "..."

	// DefaultCrashTitle is used when a crash report has no notes.
	DefaultCrashTitle = "crash report"
	// DefaultBugTitle is used when a bug report has no notes.
	DefaultBugTitle = "bug report"
)

// Title derives an issue title from user notes. Notes shorter than the limit
// are used as-is, longer notes are cut and end in "...", and empty notes
// yield fallback.
func Title(notes, fallback string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return fallback
	}
	// Keep the title on one line.
	if i := strings.IndexAny(notes, "\r\n"); i >= 0 {
		notes = strings.TrimSpace(notes[:i]) + titleEllipsis
	}
	runes := []rune(notes)
	if len(runes) < maxTitleLength {
		return notes
	}
	return string(runes[:maxTitleLength-len(titleEllipsis)]) + titleEllipsis
}

// Sections are the blocks of an issue body. Empty sections are omitted.
type Sections struct {
	Notes       string
	Environment Environment
	Stacktrace  string
	Log         string
}

// Body renders the issue body in the fixed order notes, environment,
// stacktrace and log history.
func Body(s Sections) string {
	var b strings.Builder
	if notes := strings.TrimSpace(s.Notes); notes != "" {
		heading(&b, "Notes")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	if rows := s.Environment.Rows(); len(rows) > 0 {
		heading(&b, "Environment")
		b.WriteString("Environment Key | Value\n")
		b.WriteString(":----: | :----:\n")
		for _, row := range rows {
			b.WriteString(cell(row.Key))
			b.WriteString(" | ")
			b.WriteString(cell(row.Value))
			b.WriteString("\n")
		}
	}
	if trace := strings.TrimRight(s.Stacktrace, "\r\n"); strings.TrimSpace(trace) != "" {
		heading(&b, "Stack trace")
		fence(&b, trace)
	}
	if log := strings.TrimRight(s.Log, "\r\n"); strings.TrimSpace(log) != "" {
		heading(&b, "Log history")
		fence(&b, log)
	}
	return b.String()
}

func heading(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(title)
	b.WriteString("\n======\n")
}

func fence(b *strings.Builder, text string) {
	marker := "```"
	for strings.Contains(text, marker) {
		marker += "`"
	}
	b.WriteString(marker)
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
	b.WriteString(marker)
	b.WriteString("\n")
}

// cell keeps a value inside its markdown table cell.
func cell(v string) string {
	v = strings.ReplaceAll(v, "|", `\|`)
	return strings.Join(strings.Fields(v), " ")
}
