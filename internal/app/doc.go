// Package app wires the diagnostics viewer together.
//
// Run creates the shared state.Store, starts a watch.Watcher over the log
// file and the stacktrace directory, and launches the refresher before
// handing control to the ui package. The refresher is the only writer of
// the store:
//
//	watcher event ─┐
//	timer tick ────┼─> refresh() ─> logfile.Store.Entries()
//	"r" key ───────┘              crash.List()
//	                              state.Store.Update()
//
// A refresh that fails keeps the previous data and is retried with
// exponential backoff, starting at the poll interval (default 2s) and capped
// at 30s. An unset log file is shown as an empty log rather than an error.
package app
