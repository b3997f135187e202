package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/crash"
	"github.com/five82/blackbox/internal/logfile"
	"github.com/five82/blackbox/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Source is where the refresher reads diagnostics from. *logfile.Store
// satisfies it.
type Source interface {
	Entries() ([]logfile.Entry, error)
	StacktraceDir() string
}

// StartRefresher launches a background goroutine that reloads the store
// after every interval, after each signal on changes, and whenever the
// returned kick function is called. Failures back off exponentially up to
// maxBackoff. It returns immediately.
func StartRefresher(ctx context.Context, store *state.Store, src Source, interval time.Duration, changes <-chan struct{}, logger *zap.Logger) (kick func()) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	kicks := make(chan struct{}, 1)

	crash.Go(func() {
		failures := 0
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			case <-kicks:
			case _, ok := <-changes:
				if !ok {
					// Watcher stopped; keep polling.
					changes = nil
					continue
				}
			}

			if err := refresh(src, store); err != nil {
				failures++
				logger.Warn("refresh failed",
					zap.Error(err),
					zap.Int("consecutive_failures", failures))
			} else {
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	})

	return func() {
		select {
		case kicks <- struct{}{}:
		default:
		}
	}
}

// refresh reads the log and the stacktrace listing into the store. An
// unconfigured log file counts as an empty log.
func refresh(src Source, store *state.Store) error {
	entries, err := src.Entries()
	if err != nil && !errors.Is(err, logfile.ErrNotConfigured) {
		err = fmt.Errorf("read log: %w", err)
		store.Update(nil, nil, err)
		return err
	}
	traces, err := crash.List(src.StacktraceDir())
	if err != nil {
		err = fmt.Errorf("list stacktraces: %w", err)
		store.Update(nil, nil, err)
		return err
	}
	store.Update(entries, traces, nil)
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
