package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/blackbox/internal/logfile"
)

const entryTimeLayout = "2006-01-02 15:04"

func newEntriesCommand(e *env) *cobra.Command {
	var (
		limit    int
		minLevel string
		raw      bool
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Print recorded entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if raw {
				lines, err := e.store.Recent(limit)
				if errors.Is(err, logfile.ErrNotConfigured) {
					return errors.New("file logging is disabled")
				}
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			min, err := logfile.ParseLevel(minLevel)
			if err != nil {
				return err
			}
			entries, err := e.store.Entries()
			if errors.Is(err, logfile.ErrNotConfigured) {
				return errors.New("file logging is disabled")
			}
			if err != nil {
				return err
			}

			printed := 0
			for _, entry := range entries {
				if !entry.Level.Enabled(min) {
					continue
				}
				if limit > 0 && printed == limit {
					break
				}
				writeEntry(out, entry)
				printed++
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum entries to print (0 prints all)")
	cmd.Flags().StringVar(&minLevel, "min-level", "info", "lowest level to print")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the top lines of the file unparsed (--limit counts lines)")
	return cmd
}

func writeEntry(w io.Writer, entry logfile.Entry) {
	ts := "--"
	if !entry.Time.IsZero() {
		ts = entry.Time.Format(entryTimeLayout)
	}
	fmt.Fprintf(w, "%s %s %s: %s\n", ts, entry.Level.Label(), entry.Tag, entry.Message)
	if entry.HasDetails() {
		for _, line := range strings.Split(entry.Details, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
