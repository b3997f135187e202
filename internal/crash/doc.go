// Package crash captures panics into one "<epoch millis>.stacktrace" file
// per failure.
//
// Register installs a process-wide capture for a directory. Goroutines opt in
// by deferring Recover, or by being started with Go. A captured panic is
// written to disk first, then handed to every Handler added with Chain in
// order, and finally the process exits with status 2 unless auto-kill was
// disabled. Handlers that panic themselves are skipped. List returns the
// stored stacktraces newest first.
package crash
