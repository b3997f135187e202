package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/blackbox/internal/app"
)

func newViewCommand(e *env) *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse entries and stacktraces interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("view needs an interactive terminal; use entries or crashes instead")
			}
			return app.Run(cmd.Context(), app.Options{
				Config:    e.cfg,
				Store:     e.store,
				PrefsPath: e.prefsPath,
				PollEvery: poll,
				Logger:    e.logger,
			})
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 0, "refresh interval when no file events arrive (default 2s)")
	return cmd
}
