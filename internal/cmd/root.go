package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/config"
	"github.com/five82/blackbox/internal/crash"
	"github.com/five82/blackbox/internal/logfile"
	"github.com/five82/blackbox/internal/logging"
)

// env is what every subcommand gets once the root has loaded config.
type env struct {
	configPath string
	prefsPath  string
	debug      bool

	cfg     config.Config
	logger  *zap.Logger
	store   *logfile.Store
	capture *crash.Capture
}

// close releases what setup acquired. Safe to call more than once.
func (e *env) close() {
	if e.capture != nil {
		e.capture.Close()
		e.capture = nil
	}
	logging.Sync(e.logger)
}

// setup loads config and installs logging and crash capture. The viewer
// gets a quiet logger so console output does not tear the screen.
func (e *env) setup(quiet bool) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg

	if quiet {
		e.logger = logging.Quiet()
	} else {
		logger, err := logging.New(e.debug)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		e.logger = logger
	}

	opts := cfg.StoreOptions()
	opts.Console = e.logger.Named("log")
	e.store = logfile.New(opts)

	if cfg.StacktraceDir == "" {
		e.logger.Debug("crash capture disabled, no stacktrace directory")
		return nil
	}
	capture, err := crash.Register(cfg.StacktraceDir,
		crash.WithAutoKill(cfg.AutoKill),
		crash.WithLogger(e.logger.Named("crash")))
	if err != nil {
		return fmt.Errorf("register crash capture: %w", err)
	}
	e.capture = capture
	return nil
}

// newRootCommand builds the command tree around e.
func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "blackbox",
		Short: "Local diagnostic log and crash recorder",
		Long: `blackbox keeps a size-bounded, newest-first log file and one stacktrace
file per captured crash, and can browse both or send them as a report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd.Name() == "view")
		},
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default is ~/.config/blackbox/config.toml)")
	root.PersistentFlags().StringVar(&e.prefsPath, "prefs", "", "preferences file (default is ~/.config/blackbox/prefs.toml)")
	root.PersistentFlags().BoolVar(&e.debug, "debug", false, "verbose console logging")

	root.AddCommand(
		newLogCommand(e),
		newEntriesCommand(e),
		newFlushCommand(e),
		newCrashesCommand(e),
		newReportCommand(e),
		newViewCommand(e),
	)
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	e := &env{}
	return execute(ctx, e, newRootCommand(e), args, stdout, stderr)
}

// execute runs root with crash capture covering the calling goroutine. A
// panic absorbed by capture (auto-kill off) exits with status 1.
func execute(ctx context.Context, e *env, root *cobra.Command, args []string, stdout, stderr io.Writer) (code int) {
	defer e.close()
	code = 1
	defer crash.Recover()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "blackbox: %v\n", err)
		return 1
	}
	return 0
}
