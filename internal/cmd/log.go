package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/blackbox/internal/logfile"
)

func newLogCommand(e *env) *cobra.Command {
	var (
		level   string
		details string
	)
	cmd := &cobra.Command{
		Use:   "log TAG MESSAGE...",
		Short: "Record a log entry",
		Example: `  blackbox log Sync "upload finished"
  blackbox log --level error --details "status 503" Sync upload failed`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logfile.ParseLevel(level)
			if err != nil {
				return err
			}
			message := strings.Join(args[1:], " ")
			if details = strings.TrimRight(details, "\n"); details != "" {
				message += "\n" + details
			}
			e.store.Log(lvl, args[0], message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "info", "entry level: info, warning or error")
	cmd.Flags().StringVarP(&details, "details", "d", "", "detail lines stored below the entry")
	return cmd
}
