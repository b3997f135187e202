// Package watch turns filesystem notifications for the log file and the
// stacktrace directory into refresh signals for the viewer.
//
// Directories are watched rather than files because the log store replaces
// its file by rename on every write, which would drop a file-level watch.
package watch
