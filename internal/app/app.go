package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/config"
	"github.com/five82/blackbox/internal/crash"
	"github.com/five82/blackbox/internal/logfile"
	"github.com/five82/blackbox/internal/prefs"
	"github.com/five82/blackbox/internal/state"
	"github.com/five82/blackbox/internal/ui"
	"github.com/five82/blackbox/internal/watch"
)

// Options configure the viewer.
type Options struct {
	Config    config.Config
	Store     *logfile.Store
	PrefsPath string        // empty uses default ~/.config/blackbox/prefs.toml
	PollEvery time.Duration // zero uses default
	Logger    *zap.Logger
}

// Run boots the diagnostics viewer until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	var changes <-chan struct{}
	w, err := watch.New(opts.Config.LogFile, opts.Config.StacktraceDir, logger)
	if err != nil {
		logger.Warn("file watching disabled, polling only", zap.Error(err))
	} else {
		changes = w.Changes
		crash.Go(func() { w.Start(ctx) })
	}

	// Populate the store before the first frame.
	if err := refresh(opts.Store, store); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}
	kick := StartRefresher(ctx, store, opts.Store, opts.PollEvery, changes, logger)

	return ui.Run(ui.Options{
		Context:       ctx,
		Store:         store,
		Refresh:       kick,
		ThemeName:     userPrefs.Theme,
		PrefsPath:     opts.PrefsPath,
		LogFile:       opts.Config.LogFile,
		StacktraceDir: opts.Config.StacktraceDir,
	})
}
