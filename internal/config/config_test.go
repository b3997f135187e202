package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/blackbox/internal/logfile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if !strings.HasPrefix(cfg.StacktraceDir, home) {
		t.Fatalf("StacktraceDir = %q, want it under HOME %q", cfg.StacktraceDir, home)
	}
	if cfg.MinLevel != logfile.Info {
		t.Fatalf("MinLevel = %v, want info", cfg.MinLevel)
	}
	if cfg.MaxBytes != logfile.DefaultMaxBytes {
		t.Fatalf("MaxBytes = %d, want %d", cfg.MaxBytes, logfile.DefaultMaxBytes)
	}
	if !cfg.AutoKill {
		t.Fatalf("AutoKill = false, want true")
	}
	if cfg.Report.Enabled() {
		t.Fatalf("Report enabled without a url")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
log_file = "  ~/logs/app.log  "
min_level = " W "
max_bytes = 4096
stacktrace_dir = "~/traces"
auto_kill = false

[report]
url = " https://example.test/issues "
token = " abc "
version = "1.2.3"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "app.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.StacktraceDir != filepath.Join(home, "traces") {
		t.Fatalf("StacktraceDir = %q", cfg.StacktraceDir)
	}
	if cfg.MinLevel != logfile.Warning {
		t.Fatalf("MinLevel = %v, want warning", cfg.MinLevel)
	}
	if cfg.MaxBytes != 4096 {
		t.Fatalf("MaxBytes = %d, want 4096", cfg.MaxBytes)
	}
	if cfg.AutoKill {
		t.Fatalf("AutoKill = true, want false")
	}
	if cfg.Report.URL != "https://example.test/issues" || cfg.Report.Token != "abc" || cfg.Report.Version != "1.2.3" {
		t.Fatalf("Report = %+v", cfg.Report)
	}
	if !cfg.Report.Enabled() {
		t.Fatalf("Report not enabled with a url")
	}

	opts := cfg.StoreOptions()
	if opts.LogFile != cfg.LogFile || opts.MinLevel != logfile.Warning || opts.MaxBytes != 4096 || opts.StacktraceDir != cfg.StacktraceDir {
		t.Fatalf("StoreOptions = %+v", opts)
	}
}

func TestLoad_NoneDisablesLogFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `log_file = "None"`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogFile != "" {
		t.Fatalf("LogFile = %q, want empty", cfg.LogFile)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
log_file = "   "
min_level = ""
stacktrace_dir = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := defaults()
	if cfg.LogFile != want.LogFile || cfg.StacktraceDir != want.StacktraceDir || cfg.MinLevel != want.MinLevel {
		t.Fatalf("Load = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "toml", body: `log_file = [`, want: "parse config"},
		{name: "level", body: `min_level = "verbose"`, want: "min_level"},
		{name: "size", body: `max_bytes = -1`, want: "max_bytes"},
		{name: "tiny size", body: `max_bytes = 20`, want: "max_bytes"},
		{name: "huge size", body: `max_bytes = 9223372036854775807`, want: "max_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestDefaultPath_UnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := DefaultPath()
	if got != filepath.Join(home, ".config", "blackbox", "config.toml") {
		t.Fatalf("DefaultPath = %q", got)
	}
}
