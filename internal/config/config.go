package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/blackbox/internal/logfile"
)

// Config captures where diagnostics are stored and how reports are sent.
type Config struct {
	// LogFile is empty when file logging is disabled.
	LogFile       string
	MinLevel      logfile.Level
	MaxBytes      int64
	StacktraceDir string
	AutoKill      bool
	Report        Report
}

// Report configures the issue reporting client.
type Report struct {
	URL      string
	Token    string
	Username string
	Password string
	Version  string
}

// Enabled reports whether an endpoint is configured.
func (r Report) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

const (
	defaultConfigPath    = "~/.config/blackbox/config.toml"
	defaultLogFile       = "~/.local/share/blackbox/blackbox.log"
	defaultStacktraceDir = "~/.local/share/blackbox/stacktraces"

	// disabledValue turns off file logging when used as log_file.
	disabledValue = "none"
)

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LogFile       string `toml:"log_file"`
		MinLevel      string `toml:"min_level"`
		MaxBytes      int64  `toml:"max_bytes"`
		StacktraceDir string `toml:"stacktrace_dir"`
		AutoKill      *bool  `toml:"auto_kill"`
		Report        struct {
			URL      string `toml:"url"`
			Token    string `toml:"token"`
			Username string `toml:"username"`
			Password string `toml:"password"`
			Version  string `toml:"version"`
		} `toml:"report"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	switch logFile := strings.TrimSpace(raw.LogFile); {
	case strings.EqualFold(logFile, disabledValue):
		cfg.LogFile = ""
	case logFile != "":
		cfg.LogFile = mustExpand(logFile)
	}

	if level := strings.TrimSpace(raw.MinLevel); level != "" {
		parsed, err := logfile.ParseLevel(level)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: min_level: %w", err)
		}
		cfg.MinLevel = parsed
	}

	if raw.MaxBytes < 0 {
		return Config{}, fmt.Errorf("parse config: max_bytes must not be negative")
	}
	if raw.MaxBytes > 0 && (raw.MaxBytes < logfile.MinMaxBytes || raw.MaxBytes > logfile.MaxMaxBytes) {
		return Config{}, fmt.Errorf("parse config: max_bytes %d outside [%d, %d]", raw.MaxBytes, logfile.MinMaxBytes, logfile.MaxMaxBytes)
	}
	if raw.MaxBytes > 0 {
		cfg.MaxBytes = raw.MaxBytes
	}

	if dir := strings.TrimSpace(raw.StacktraceDir); dir != "" {
		cfg.StacktraceDir = mustExpand(dir)
	}
	if raw.AutoKill != nil {
		cfg.AutoKill = *raw.AutoKill
	}

	cfg.Report = Report{
		URL:      strings.TrimSpace(raw.Report.URL),
		Token:    strings.TrimSpace(raw.Report.Token),
		Username: strings.TrimSpace(raw.Report.Username),
		Password: raw.Report.Password,
		Version:  strings.TrimSpace(raw.Report.Version),
	}

	return cfg, nil
}

// StoreOptions maps the config onto log store options.
func (c Config) StoreOptions() logfile.Options {
	return logfile.Options{
		LogFile:       c.LogFile,
		MinLevel:      c.MinLevel,
		MaxBytes:      c.MaxBytes,
		StacktraceDir: c.StacktraceDir,
	}
}

func defaults() Config {
	return Config{
		LogFile:       mustExpand(defaultLogFile),
		MinLevel:      logfile.Info,
		MaxBytes:      logfile.DefaultMaxBytes,
		StacktraceDir: mustExpand(defaultStacktraceDir),
		AutoKill:      true,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
