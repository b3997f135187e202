package logfile

import "time"

// Entry is one record recovered from the log file: a header line plus the
// detail lines that follow it.
type Entry struct {
	Time    time.Time
	Level   Level
	Tag     string
	Message string
	Details string
}

// HasDetails reports whether the record carried lines after its header.
func (e Entry) HasDetails() bool {
	return e.Details != ""
}
