package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/five82/blackbox/internal/crash"
	"github.com/five82/blackbox/internal/report"
)

type fixture struct {
	dir        string
	configPath string
	prefsPath  string
	logFile    string
	traceDir   string
}

func newFixture(t *testing.T, extra string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		prefsPath:  filepath.Join(dir, "prefs.toml"),
		logFile:    filepath.Join(dir, "data", "blackbox.log"),
		traceDir:   filepath.Join(dir, "data", "stacktraces"),
	}
	content := fmt.Sprintf("log_file = '%s'\nstacktrace_dir = '%s'\nauto_kill = false\n%s", f.logFile, f.traceDir, extra)
	if err := os.WriteFile(f.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	all := append([]string{"--config", f.configPath, "--prefs", f.prefsPath}, args...)
	code := Run(context.Background(), all, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (f fixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := f.run(t, args...)
	if code != 0 {
		t.Fatalf("blackbox %v exited %d: %s", args, code, errOut)
	}
	return out
}

func (f fixture) writeStacktrace(t *testing.T, name, text string) string {
	t.Helper()
	if err := os.MkdirAll(f.traceDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(f.traceDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLogThenEntries_NewestFirst(t *testing.T) {
	f := newFixture(t, "")
	f.mustRun(t, "log", "Main", "started")
	f.mustRun(t, "log", "--level", "error", "--details", "status 503", "Sync", "upload", "failed")

	out := f.mustRun(t, "entries")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("entries printed %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[0], " E Sync: upload failed") {
		t.Fatalf("first line = %q, want the error entry", lines[0])
	}
	if lines[1] != "    status 503" {
		t.Fatalf("detail line = %q, want indented status 503", lines[1])
	}
	if !strings.HasSuffix(lines[2], " I Main: started") {
		t.Fatalf("last line = %q, want the info entry", lines[2])
	}

	out = f.mustRun(t, "entries", "--min-level", "warning")
	if strings.Contains(out, "started") {
		t.Fatalf("--min-level warning printed info entry:\n%s", out)
	}

	out = f.mustRun(t, "entries", "--limit", "1")
	if strings.Contains(out, "started") || !strings.Contains(out, "upload failed") {
		t.Fatalf("--limit 1 = %q, want only the newest entry", out)
	}
}

func TestLog_RejectsUnknownLevel(t *testing.T) {
	f := newFixture(t, "")
	_, errOut, code := f.run(t, "log", "--level", "loud", "Main", "x")
	if code == 0 || !strings.Contains(errOut, "unknown log level") {
		t.Fatalf("code = %d, stderr = %q; want unknown level failure", code, errOut)
	}
}

func TestEntries_DisabledFileLogging(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("log_file = 'none'\nstacktrace_dir = '%s'\n", filepath.Join(dir, "traces"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"--config", configPath, "entries"}, &stdout, &stderr)
	if code == 0 || !strings.Contains(stderr.String(), "file logging is disabled") {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
}

func TestFlush_RemovesLogAndStacktraces(t *testing.T) {
	f := newFixture(t, "")
	f.mustRun(t, "log", "Main", "started")
	f.writeStacktrace(t, "100.stacktrace", "panic: x\n")

	f.mustRun(t, "flush")

	if _, err := os.Stat(f.logFile); !os.IsNotExist(err) {
		t.Fatalf("log file still present: %v", err)
	}
	if _, err := os.Stat(f.traceDir); !os.IsNotExist(err) {
		t.Fatalf("stacktrace dir still present: %v", err)
	}
	if out := f.mustRun(t, "entries"); out != "" {
		t.Fatalf("entries after flush = %q, want empty", out)
	}
	// Flushing twice is fine.
	f.mustRun(t, "flush")
}

func TestCrashes_ListAndShow(t *testing.T) {
	f := newFixture(t, "")
	if out := f.mustRun(t, "crashes"); out != "no stacktraces\n" {
		t.Fatalf("crashes = %q, want no stacktraces", out)
	}

	f.writeStacktrace(t, "1760000000000.stacktrace", "panic: old\n")
	f.writeStacktrace(t, "1760000001000.stacktrace", "panic: new\n")

	out := f.mustRun(t, "crashes")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "1760000001000.stacktrace") {
		t.Fatalf("crashes = %q, want newest first", out)
	}

	if out := f.mustRun(t, "crashes", "--show"); out != "panic: new\n" {
		t.Fatalf("crashes --show = %q, want newest stacktrace", out)
	}
}

func TestReport_DryRunCrash(t *testing.T) {
	f := newFixture(t, "[report]\nversion = '1.2.3'\n")
	f.mustRun(t, "log", "Sync", "upload failed")
	f.writeStacktrace(t, "1760000000000.stacktrace", "panic: boom\n\ngoroutine 1 [running]:\n")

	out := f.mustRun(t, "report", "crash", "--dry-run", "--notes", "app froze on sync")

	if !strings.HasPrefix(out, "app froze on sync\n\n") {
		t.Fatalf("dry run should start with the title, got:\n%s", out)
	}
	for _, want := range []string{"panic: boom", "Sync: upload failed", "1.2.3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dry run missing %q:\n%s", want, out)
		}
	}
}

func TestReport_CrashWithoutStacktraceFails(t *testing.T) {
	f := newFixture(t, "")
	_, errOut, code := f.run(t, "report", "crash", "--dry-run")
	if code == 0 || !strings.Contains(errOut, "no stacktraces to report") {
		t.Fatalf("code = %d, stderr = %q", code, errOut)
	}
}

func TestReport_SubmitsToEndpoint(t *testing.T) {
	var got report.Issue
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number": 7, "html_url": "https://example.test/issues/7"}`))
	}))
	defer server.Close()

	f := newFixture(t, fmt.Sprintf("[report]\nurl = '%s'\ntoken = 'abc'\n", server.URL))
	f.mustRun(t, "log", "Main", "started")

	out := f.mustRun(t, "report", "bug", "--notes", "button does nothing")

	if out != "report #7 created: https://example.test/issues/7\n" {
		t.Fatalf("output = %q", out)
	}
	if auth != "token abc" {
		t.Fatalf("Authorization = %q, want token abc", auth)
	}
	if got.Title != "button does nothing" || !strings.Contains(got.Body, "Main: started") {
		t.Fatalf("issue = %+v", got)
	}

	// The device id generated for the report is persisted.
	if data, err := os.ReadFile(f.prefsPath); err != nil || !strings.Contains(string(data), "device_id") {
		t.Fatalf("prefs = %q (%v), want a device_id", data, err)
	}
}

func TestReport_NoEndpointConfigured(t *testing.T) {
	f := newFixture(t, "")
	_, errOut, code := f.run(t, "report", "bug")
	if code == 0 || !strings.Contains(errOut, "no report url configured") {
		t.Fatalf("code = %d, stderr = %q", code, errOut)
	}
}

func TestExecute_PanickingCommandLeavesStacktrace(t *testing.T) {
	f := newFixture(t, "")
	e := &env{}
	root := newRootCommand(e)
	root.AddCommand(&cobra.Command{
		Use: "explode",
		RunE: func(*cobra.Command, []string) error {
			panic("x")
		},
	})

	var stdout, stderr bytes.Buffer
	args := []string{"--config", f.configPath, "--prefs", f.prefsPath, "explode"}
	if code := execute(context.Background(), e, root, args, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	traces, err := crash.List(f.traceDir)
	if err != nil || len(traces) != 1 {
		t.Fatalf("List = %v (%v), want one stacktrace", traces, err)
	}
	text, err := crash.Read(traces[0])
	if err != nil || !strings.HasPrefix(text, "panic: x\n") {
		t.Fatalf("stacktrace = %q (%v), want panic: x", text, err)
	}
	if crash.Active() != nil {
		t.Fatalf("crash capture still installed after execute returned")
	}
}
