// Package cmd implements the blackbox command line.
//
// The root command loads the config, builds the zap console logger and the
// log store, and registers crash capture on the configured stacktrace
// directory for the lifetime of the process. Subcommands:
//
//	log      record an entry
//	entries  print entries newest first
//	flush    delete the log file and stacktraces
//	crashes  list or show stacktraces
//	report   send a bug or crash report
//	view     interactive viewer
package cmd
