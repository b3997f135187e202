package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "app.log")
	traceDir := filepath.Join(dir, "traces")

	w, err := New(logFile, traceDir, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{name: "log write", ev: fsnotify.Event{Name: logFile, Op: fsnotify.Write}, want: true},
		{name: "log renamed into place", ev: fsnotify.Event{Name: logFile, Op: fsnotify.Create}, want: true},
		{name: "log chmod", ev: fsnotify.Event{Name: logFile, Op: fsnotify.Chmod}, want: false},
		{name: "temp file", ev: fsnotify.Event{Name: filepath.Join(dir, "logs", ".app.log-123"), Op: fsnotify.Create}, want: false},
		{name: "stacktrace", ev: fsnotify.Event{Name: filepath.Join(traceDir, "1.stacktrace"), Op: fsnotify.Create}, want: true},
		{name: "stacktrace removed", ev: fsnotify.Event{Name: filepath.Join(traceDir, "1.stacktrace"), Op: fsnotify.Remove}, want: true},
		{name: "other file in traces", ev: fsnotify.Event{Name: filepath.Join(traceDir, "notes.txt"), Op: fsnotify.Create}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Fatalf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestNew_CreatesAndWatchesDirs(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "app.log")
	traceDir := filepath.Join(dir, "logs")

	w, err := New(logFile, traceDir, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	if got := w.Paths(); len(got) != 1 || got[0] != traceDir {
		t.Fatalf("Paths = %v, want only %q", got, traceDir)
	}
	if info, err := os.Stat(traceDir); err != nil || !info.IsDir() {
		t.Fatalf("watched dir not created: %v", err)
	}
}

func TestStart_SignalsOnLogWrite(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	w, err := New(logFile, "", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	if err := os.WriteFile(logFile, []byte("line\r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-w.Changes:
	case <-time.After(5 * time.Second):
		t.Fatalf("no change signal after writing the log file")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Start did not return after cancel")
	}
	if _, ok := <-w.Changes; ok {
		// A buffered signal may remain; the channel must still close.
		if _, ok := <-w.Changes; ok {
			t.Fatalf("Changes not closed after Start returned")
		}
	}
}
