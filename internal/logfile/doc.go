// Package logfile stores leveled log records in a size-bounded file and
// recovers structured entries from it.
//
// # File Format
//
// Each record is a header line followed by optional detail lines:
//
//	10/15/26 3:04 PM E/net.sync: upload failed
//	connection reset by peer
//
// The header grammar is "<date time> <label>/<tag>:<message>", where the
// label is one of I, W, E and the tag never contains a colon. Records are
// prepended, so the file is always newest first and a bounded read from
// offset 0 returns the latest activity.
//
// # Size Bound
//
// After every write the file is at most Options.MaxBytes. When a write pushes
// it over, the tail (the oldest records) is cut so that no more than 80% of
// MaxBytes remains; the cut lands on a line boundary when one exists.
//
// # Concurrency
//
// A Store serializes Configure, Log and Flush under one write lock. Entries
// and Recent take the read lock. Writes go to a temporary file that replaces
// the log by rename, so readers outside the store never see a partial file.
//
// # Errors
//
// Log never fails from the caller's point of view: I/O errors are reported on
// the console logger and the call returns. Entries distinguishes a missing
// configuration (ErrNotConfigured), a missing file (empty result) and an
// unreadable file (wrapped error).
package logfile
