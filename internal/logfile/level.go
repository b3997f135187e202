package logfile

import (
	"fmt"
	"strings"
)

// Level is the severity of a log record. Levels are ordered by rank.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

var levels = []Level{Info, Warning, Error}

// Rank returns the ordinal used for min-level filtering.
func (l Level) Rank() int {
	return int(l)
}

// Label returns the single-character label written into record headers.
func (l Level) Label() string {
	switch l {
	case Info:
		return "I"
	case Warning:
		return "W"
	case Error:
		return "E"
	default:
		return "?"
	}
}

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Enabled reports whether l is at or above min.
func (l Level) Enabled(min Level) bool {
	return l.Rank() >= min.Rank()
}

func (l Level) valid() bool {
	return l >= Info && l <= Error
}

// LevelFromLabel looks a level up by its label, ignoring case.
func LevelFromLabel(label string) (Level, bool) {
	for _, l := range levels {
		if strings.EqualFold(l.Label(), label) {
			return l, true
		}
	}
	return 0, false
}

// LevelFromRank looks a level up by its rank.
func LevelFromRank(rank int) (Level, bool) {
	for _, l := range levels {
		if l.Rank() == rank {
			return l, true
		}
	}
	return 0, false
}

// ParseLevel accepts a level name ("info", "warn", "warning", "error") or a
// label ("I", "W", "E").
func ParseLevel(text string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	switch trimmed {
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warning, nil
	case "error":
		return Error, nil
	}
	if l, ok := LevelFromLabel(trimmed); ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown log level %q", text)
}
