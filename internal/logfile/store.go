package logfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/loghead"
)

// DefaultMaxBytes bounds the log file when Options.MaxBytes is unset.
const DefaultMaxBytes int64 = 200 * 1024

// MinMaxBytes and MaxMaxBytes bound a configured MaxBytes. Below the minimum
// a single header line may not fit; above the maximum the truncation target
// arithmetic overflows.
const (
	MinMaxBytes int64 = 1024
	MaxMaxBytes int64 = 1 << 40
)

// truncatePercent is how much of MaxBytes survives a truncation.
const truncatePercent = 80

// ErrNotConfigured is returned by read operations when no log file is set.
var ErrNotConfigured = errors.New("log file not configured")

// Options configure a Store. Configure replaces all of them at once.
type Options struct {
	// LogFile is the prepend-ordered record file. Empty disables persistence.
	LogFile string
	// MinLevel drops records below it from the file. Defaults to Info.
	MinLevel Level
	// MaxBytes bounds the file after every write. Zero means DefaultMaxBytes.
	MaxBytes int64
	// StacktraceDir is removed by Flush along with the log file.
	StacktraceDir string
	// Console receives every log call regardless of level or file state.
	Console *zap.Logger
	// Now stamps records; nil uses time.Now.
	Now func() time.Time
}

func (o Options) normalized() Options {
	if !o.MinLevel.valid() {
		o.MinLevel = Info
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxBytes > MaxMaxBytes {
		o.MaxBytes = MaxMaxBytes
	}
	if o.Console == nil {
		o.Console = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store owns the log file. All mutations and reads of the file go through
// its lock, so concurrent callers never interleave a read-prepend-write.
type Store struct {
	mu   sync.RWMutex
	opts Options
}

// New builds a Store with the given options.
func New(opts Options) *Store {
	return &Store{opts: opts.normalized()}
}

// Configure replaces the store's configuration. It waits for in-flight
// writes so the target file never changes mid-write.
func (s *Store) Configure(opts Options) {
	opts = opts.normalized()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// Options returns a copy of the active configuration.
func (s *Store) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// LogFile returns the configured log path, empty when disabled.
func (s *Store) LogFile() string {
	return s.Options().LogFile
}

// StacktraceDir returns the configured stacktrace directory.
func (s *Store) StacktraceDir() string {
	return s.Options().StacktraceDir
}

// Info records an informational message.
func (s *Store) Info(tag, message string) {
	s.Log(Info, tag, message)
}

// Warn records a warning.
func (s *Store) Warn(tag, message string) {
	s.Log(Warning, tag, message)
}

// Error records an error.
func (s *Store) Error(tag, message string) {
	s.Log(Error, tag, message)
}

// LogErr records message with err's text appended as detail lines.
func (s *Store) LogErr(level Level, tag, message string, err error) {
	if err != nil {
		message += recordSeparator + err.Error()
	}
	s.Log(level, tag, message)
}

// Log mirrors the call to the console and, when level passes the minimum and
// a file is configured, prepends a record to the log file. It never returns
// or panics on I/O failure; failures are reported on the console.
func (s *Store) Log(level Level, tag, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	console := s.opts.Console
	if !level.valid() {
		console.Warn("dropping record with unknown level", zap.Int("level", int(level)), zap.String("tag", tag))
		return
	}
	mirror(console, level, tag, message)

	if s.opts.LogFile == "" || !level.Enabled(s.opts.MinLevel) {
		return
	}
	if err := s.prepend(level, tag, message); err != nil {
		console.Warn("log file write failed", zap.String("path", s.opts.LogFile), zap.Error(err))
	}
}

func mirror(console *zap.Logger, level Level, tag, message string) {
	switch level {
	case Warning:
		console.Warn(message, zap.String("tag", tag))
	case Error:
		console.Error(message, zap.String("tag", tag))
	default:
		console.Info(message, zap.String("tag", tag))
	}
}

// prepend must be called with the write lock held.
func (s *Store) prepend(level Level, tag, message string) error {
	path := s.opts.LogFile
	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read log: %w", err)
	}

	header := FormatHeader(s.opts.Now(), level, tag, message)
	content := make([]byte, 0, len(header)+len(recordSeparator)+len(old))
	content = append(content, header...)
	content = append(content, recordSeparator...)
	content = append(content, old...)

	if int64(len(content)) > s.opts.MaxBytes {
		content = truncateTail(content, s.opts.MaxBytes)
	}
	return writeFileAtomic(path, content)
}

// truncateTail drops the oldest content so at most 80% of maxBytes remains.
// The cut moves back to the last line boundary. Content always starts with a
// header, so the result is either empty or begins with a complete header
// line; a newest header longer than maxBytes leaves nothing.
func truncateTail(content []byte, maxBytes int64) []byte {
	target := maxBytes * truncatePercent / 100
	if target >= int64(len(content)) {
		return content
	}
	cut := content[:target]
	if i := bytes.LastIndexByte(cut, '\n'); i >= 0 {
		return cut[:i+1]
	}
	// The first line alone is past the target; keep it if it fits at all.
	if i := bytes.IndexByte(content, '\n'); i >= 0 && int64(i+1) <= maxBytes {
		return content[:i+1]
	}
	return content[:0]
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace log: %w", err)
	}
	tmpName = ""
	return nil
}

// Flush deletes the log file and the stacktrace directory. Missing targets
// are not errors, so calling it twice leaves the same state as once.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if path := s.opts.LogFile; path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove log: %w", err))
		}
	}
	if dir := s.opts.StacktraceDir; dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove stacktraces: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Entries parses the log file. It returns ErrNotConfigured when no file is
// set and an empty result when the file does not exist yet.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.opts.LogFile == "" {
		return nil, ErrNotConfigured
	}
	file, err := os.Open(s.opts.LogFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Parse(file)
}

// Recent returns up to maxLines raw lines from the top of the log file, which
// is the newest activity.
func (s *Store) Recent(maxLines int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.opts.LogFile == "" {
		return nil, ErrNotConfigured
	}
	return loghead.Read(s.opts.LogFile, maxLines)
}
