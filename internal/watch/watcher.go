package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/five82/blackbox/internal/crash"
)

// Watcher signals when the log file or the stacktrace directory changes.
// Bursts of file events collapse into a single pending signal.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logFile  string
	traceDir string
	logger   *zap.Logger
	paths    []string

	// Changes receives a value after relevant file activity. It is closed
	// when Start returns.
	Changes chan struct{}
}

// New watches the directory holding logFile and stacktraceDir itself. Either
// may be empty. Missing directories are created so they can be watched.
func New(logFile, stacktraceDir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		logger:  logger,
		Changes: make(chan struct{}, 1),
	}

	var dirs []string
	if strings.TrimSpace(logFile) != "" {
		w.logFile = filepath.Clean(logFile)
		dirs = append(dirs, filepath.Dir(w.logFile))
	}
	if strings.TrimSpace(stacktraceDir) != "" {
		w.traceDir = filepath.Clean(stacktraceDir)
		dirs = append(dirs, w.traceDir)
	}

	for _, dir := range dirs {
		if contains(w.paths, dir) {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("cannot create watched dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		if err := fsw.Add(dir); err != nil {
			logger.Warn("cannot watch dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.paths = append(w.paths, dir)
	}

	return w, nil
}

// Start forwards relevant events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Changes)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			select {
			case w.Changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Paths returns the directories currently being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if w.logFile != "" && name == w.logFile {
		return true
	}
	if w.traceDir != "" && filepath.Dir(name) == w.traceDir && filepath.Ext(name) == "."+crash.Ext {
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
