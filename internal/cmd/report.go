package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/crash"
	"github.com/five82/blackbox/internal/logfile"
	"github.com/five82/blackbox/internal/prefs"
	"github.com/five82/blackbox/internal/report"
)

const defaultReportLines = 200

func newReportCommand(e *env) *cobra.Command {
	var (
		notes      string
		stacktrace string
		lines      int
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "report bug|crash",
		Short: "Send recent diagnostics to the report endpoint",
		Long: `Builds an issue from your notes, the device environment and the most
recent log lines. A crash report also carries one stacktrace, the newest by
default. Use --dry-run to print the issue instead of sending it.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bug", "crash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if kind != "bug" && kind != "crash" {
				return fmt.Errorf("unknown report kind %q (want bug or crash)", kind)
			}

			history, err := e.store.Recent(lines)
			if err != nil && !errors.Is(err, logfile.ErrNotConfigured) {
				return fmt.Errorf("read log history: %w", err)
			}

			deviceID := ""
			if p, err := prefs.EnsureDeviceID(e.prefsPath); err != nil {
				e.logger.Warn("device id unavailable", zap.Error(err))
			} else {
				deviceID = p.DeviceID
			}
			environment := report.CollectEnvironment(e.cfg.Report.Version, deviceID)

			var issue report.Issue
			if kind == "crash" {
				text, err := e.stacktraceFor(stacktrace)
				if err != nil {
					return err
				}
				issue = report.CrashIssue(notes, text, strings.Join(history, "\n"), environment)
			} else {
				issue = report.BugIssue(notes, strings.Join(history, "\n"), environment)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "%s\n\n%s", issue.Title, issue.Body)
				return nil
			}

			if !e.cfg.Report.Enabled() {
				return errors.New("no report url configured; set [report] url in the config or use --dry-run")
			}
			client, err := report.NewClient(e.cfg.Report.URL, report.Auth{
				Token:    e.cfg.Report.Token,
				Username: e.cfg.Report.Username,
				Password: e.cfg.Report.Password,
			})
			if err != nil {
				return err
			}
			created, err := client.Submit(cmd.Context(), issue)
			if err != nil {
				return err
			}
			e.logger.Info("report submitted", zap.String("kind", kind), zap.Int("number", created.Number))
			if created.URL != "" {
				fmt.Fprintf(out, "report #%d created: %s\n", created.Number, created.URL)
			} else {
				fmt.Fprintln(out, "report submitted")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "what you were doing; the first line becomes the title")
	cmd.Flags().StringVar(&stacktrace, "stacktrace", "", "stacktrace file for a crash report (default newest)")
	cmd.Flags().IntVar(&lines, "lines", defaultReportLines, "log lines to attach")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the issue instead of sending it")
	return cmd
}

// stacktraceFor reads path, or the newest stored stacktrace when path is
// empty.
func (e *env) stacktraceFor(path string) (string, error) {
	if path == "" {
		traces, err := crash.List(e.cfg.StacktraceDir)
		if err != nil {
			return "", err
		}
		if len(traces) == 0 {
			return "", errors.New("no stacktraces to report")
		}
		path = traces[0]
	}
	return crash.Read(path)
}
