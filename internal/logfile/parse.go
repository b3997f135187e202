package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// timestampLayout is the short date-time rendering used in record headers,
// e.g. "10/15/26 3:04 PM". Parsing also accepts zero-padded fields.
const timestampLayout = "1/2/06 3:04 PM"

// recordSeparator terminates every header line the store writes.
const recordSeparator = "\r\n"

var headerPattern = regexp.MustCompile(`^(\d+/\d+/\d+\s+\d+:\d+\s+[AP]M)\s+([A-Za-z])/([^:]*):(.*)$`)

// ErrMalformed is returned when non-empty input contains no record header.
var ErrMalformed = errors.New("malformed log")

// Parse reads records from r in file order (newest first for files written by
// Store). A line that looks like a header but carries an unparseable date or
// an unknown level label is kept as a detail line of the preceding record.
// Lines before the first header become leading details of the first record.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []Entry
		current *Entry
		details []string
		orphans []string
	)
	seal := func() {
		if current == nil {
			return
		}
		current.Details = strings.TrimSpace(strings.Join(details, "\n"))
		entries = append(entries, *current)
		details = details[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if entry, ok := parseHeader(line); ok {
			seal()
			current = &entry
			if len(orphans) > 0 {
				details = append(details, orphans...)
				orphans = nil
			}
			continue
		}
		if current == nil {
			orphans = append(orphans, line)
			continue
		}
		details = append(details, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	seal()

	if current == nil && strings.TrimSpace(strings.Join(orphans, "")) != "" {
		return nil, fmt.Errorf("%w: %d lines without a record header", ErrMalformed, len(orphans))
	}
	return entries, nil
}

func parseHeader(line string) (Entry, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	stamp := strings.Join(strings.Fields(m[1]), " ")
	ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return Entry{}, false
	}
	level, ok := LevelFromLabel(m[2])
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Time:    ts,
		Level:   level,
		Tag:     m[3],
		Message: strings.TrimPrefix(m[4], " "),
	}, true
}

// FormatHeader renders the header line for a record without its separator.
func FormatHeader(t time.Time, level Level, tag, message string) string {
	return t.Format(timestampLayout) + " " + level.Label() + "/" + sanitizeTag(tag) + ": " + message
}

var tagReplacer = strings.NewReplacer(":", ".", "\r", " ", "\n", " ")

// sanitizeTag keeps tags within the header grammar.
func sanitizeTag(tag string) string {
	return tagReplacer.Replace(tag)
}
