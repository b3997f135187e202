// Package state shares the latest diagnostics between the refresher and the
// viewer.
//
// The refresher is the single writer: it parses the log file, lists the
// stacktrace directory and calls Update. The UI reads with Snapshot on its
// own schedule. Store guards the data with a sync.RWMutex and both sides copy
// slices, so neither can mutate what the other holds.
//
// # Update Semantics
//
//	store.Update(entries, stacktraces, nil)
//	→ entries and stacktraces replaced, LastError cleared, failures reset
//
//	store.Update(nil, nil, err)
//	→ previous data kept, LastError = err, ConsecutiveFailures++
//
// The UI therefore always has the last good data while still being told that
// reading failed. IsOffline reports two or more failures in a row.
//
// The zero Store is ready to use.
package state
