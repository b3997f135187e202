// Package loghead reads the newest lines of a prepend-ordered log file.
//
// # Overview
//
// Blackbox writes each record at offset 0, so the first lines of the file are
// always the most recent activity. Read stops scanning as soon as it has the
// requested number of lines; the cost is proportional to what is returned,
// not to the file size.
//
// Example usage:
//
//	lines, err := loghead.Read("/var/lib/app/app.log", 200)
//	if err != nil {
//		log.Printf("failed to read log: %v", err)
//	}
//
// # Error Handling
//
// Read returns nil, nil for non-existent files (graceful degradation).
// Other errors (permission denied, I/O errors) are returned wrapped.
//
// # Design Rationale
//
//   - No parsing: structured records come from logfile.Parse.
//   - No locking: the store replaces the file by rename, so a reader sees
//     either the previous or the next version in full.
//   - Pure functions with no global state.
package loghead
