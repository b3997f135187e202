package crash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func register(t *testing.T, dir string, opts ...Option) *Capture {
	t.Helper()
	c, err := Register(dir, opts...)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func panicWith(v any) {
	defer Recover()
	panic(v)
}

func TestCapture_WritesStacktraceAndAbsorbsPanic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	register(t, dir, WithAutoKill(false))

	panicWith("x")

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("List returned %d files, want 1", len(files))
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.stacktrace"))
	if err != nil || len(matches) != 1 || matches[0] != files[0] {
		t.Fatalf("Glob = %v (%v), want %v", matches, err, files)
	}
	text, err := Read(files[0])
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !strings.HasPrefix(text, "panic: x\n") {
		t.Fatalf("stacktrace = %q, want it to start with panic: x", text)
	}
	if !strings.Contains(text, "goroutine ") {
		t.Fatalf("stacktrace missing goroutine trace: %q", text)
	}
}

func TestCapture_FileNamedByEpochMillis(t *testing.T) {
	dir := t.TempDir()
	at := time.UnixMilli(1760000000123)
	register(t, dir, WithAutoKill(false), WithNow(func() time.Time { return at }))

	panicWith(errors.New("disk full"))
	panicWith("second in the same millisecond")

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List returned %d files, want 2", len(files))
	}
	if filepath.Base(files[0]) != "1760000000124.stacktrace" || filepath.Base(files[1]) != "1760000000123.stacktrace" {
		t.Fatalf("List = %v, want ...124 then ...123", files)
	}
	text, _ := Read(files[1])
	if !strings.HasPrefix(text, "panic: *errors.errorString: disk full") {
		t.Fatalf("stacktrace = %q, want error type and message", text)
	}
	if stamp, ok := Stamp(files[1]); !ok || !stamp.Equal(at) {
		t.Fatalf("Stamp = %v, %v; want %v", stamp, ok, at)
	}
}

func TestCapture_AutoKillExitsAfterHandlers(t *testing.T) {
	var order []string
	remove := Chain(func(f Failure) { order = append(order, "handler") })
	defer remove()

	register(t, t.TempDir(), WithExit(func(code int) {
		order = append(order, "exit")
		if code != 2 {
			t.Errorf("exit code = %d, want 2", code)
		}
	}))

	panicWith("fatal")

	if strings.Join(order, ",") != "handler,exit" {
		t.Fatalf("order = %v, want handler then exit", order)
	}
}

func TestCapture_ReRegisterKeepsExisting(t *testing.T) {
	first := register(t, t.TempDir(), WithAutoKill(false))
	second, err := Register(t.TempDir())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if second != first {
		t.Fatalf("Register while registered returned a new capture")
	}
	if Active() != first {
		t.Fatalf("Active = %p, want %p", Active(), first)
	}
}

func TestCapture_CloseRestoresDefaultPanic(t *testing.T) {
	dir := t.TempDir()
	c, err := Register(dir, WithAutoKill(false))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	c.Close()
	if Active() != nil {
		t.Fatalf("Active after Close = %p, want nil", Active())
	}

	var repanicked any
	func() {
		defer func() { repanicked = recover() }()
		panicWith("after close")
	}()
	if repanicked != "after close" {
		t.Fatalf("recovered %v, want the original panic value", repanicked)
	}
	if files, _ := List(dir); len(files) != 0 {
		t.Fatalf("List = %v, want no stacktraces after Close", files)
	}
}

func TestChain_RunsInOrderAndIsolatesFailures(t *testing.T) {
	var got []string
	removeA := Chain(func(f Failure) { got = append(got, "a:"+filepath.Ext(f.Path)) })
	defer removeA()
	removeB := Chain(func(Failure) { panic("handler bug") })
	defer removeB()
	removeC := Chain(func(Failure) { got = append(got, "c") })

	register(t, t.TempDir(), WithAutoKill(false))
	panicWith("boom")

	if strings.Join(got, ",") != "a:.stacktrace,c" {
		t.Fatalf("handlers ran as %v, want a then c", got)
	}

	removeC()
	got = nil
	panicWith("boom again")
	if strings.Join(got, ",") != "a:.stacktrace" {
		t.Fatalf("handlers after remove = %v, want only a", got)
	}
}

func TestCapture_WriteFailureStillChainsAndExits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	exited := false
	register(t, dir, WithExit(func(int) { exited = true }))

	// Replace the directory with a plain file so the write fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := os.WriteFile(dir, []byte("blocker"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var seen Failure
	remove := Chain(func(f Failure) { seen = f })
	defer remove()

	panicWith("unwritable")

	if seen.Value != "unwritable" || seen.Path != "" {
		t.Fatalf("handler saw %+v, want value unwritable and empty path", seen)
	}
	if !exited {
		t.Fatalf("exit was not called after a write failure")
	}
}

func TestGo_CapturesGoroutinePanic(t *testing.T) {
	dir := t.TempDir()
	register(t, dir, WithAutoKill(false))

	done := make(chan Failure, 1)
	remove := Chain(func(f Failure) { done <- f })
	defer remove()

	Go(func() { panic("in goroutine") })

	select {
	case f := <-done:
		if f.Value != "in goroutine" {
			t.Fatalf("Value = %v, want in goroutine", f.Value)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("goroutine panic was not captured")
	}
}

func TestRegister_EmptyDirFails(t *testing.T) {
	if _, err := Register("  "); err == nil {
		t.Fatalf("Register with empty dir returned nil error")
	}
}
