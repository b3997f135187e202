package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/five82/blackbox/internal/crash"
)

func newCrashesCommand(e *env) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "crashes",
		Short: "List stored stacktraces, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			traces, err := crash.List(e.cfg.StacktraceDir)
			if err != nil {
				return err
			}
			if len(traces) == 0 {
				fmt.Fprintln(out, "no stacktraces")
				return nil
			}

			if show {
				text, err := crash.Read(traces[0])
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}

			for _, path := range traces {
				when := "unknown time"
				if at, ok := crash.Stamp(path); ok {
					when = at.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%s  %s\n", when, filepath.Base(path))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the newest stacktrace")
	return cmd
}
