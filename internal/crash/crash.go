package crash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ext is the file extension of captured stacktraces, without the dot.
const Ext = "stacktrace"

// exitCode matches what the Go runtime uses for an unrecovered panic.
const exitCode = 2

// Failure is one captured panic.
type Failure struct {
	Time  time.Time
	Value any
	Stack []byte
	// Path is the stacktrace file, empty when it could not be written.
	Path string
}

// Text renders the failure the way it is stored on disk.
func (f Failure) Text() string {
	var b strings.Builder
	b.WriteString("panic: ")
	b.WriteString(describe(f.Value))
	b.WriteString("\n\n")
	b.Write(f.Stack)
	return b.String()
}

func describe(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T: %v", v, v)
	}
}

// Handler is invoked for every captured failure after its stacktrace file
// has been written.
type Handler func(Failure)

type chained struct {
	id int
	fn Handler
}

var (
	mu       sync.Mutex
	active   *Capture
	handlers = []chained{{id: 0, fn: writeStderr}}
	nextID   int
)

func writeStderr(f Failure) {
	_, _ = os.Stderr.WriteString(f.Text())
}

// Chain appends h to the process-wide handler chain. Handlers run in the
// order they were chained. The returned func removes h again.
func Chain(h Handler) (remove func()) {
	mu.Lock()
	defer mu.Unlock()
	nextID++
	id := nextID
	handlers = append(handlers, chained{id: id, fn: h})
	return func() {
		mu.Lock()
		defer mu.Unlock()
		for i, c := range handlers {
			if c.id == id {
				handlers = append(handlers[:i:i], handlers[i+1:]...)
				return
			}
		}
	}
}

// Capture is an installed crash handler writing into one directory.
type Capture struct {
	dir      string
	autoKill bool
	exit     func(int)
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes Register.
type Option func(*Capture)

// WithAutoKill controls whether the process exits after a failure has been
// handled. The default is true.
func WithAutoKill(kill bool) Option {
	return func(c *Capture) { c.autoKill = kill }
}

// WithExit replaces os.Exit.
func WithExit(exit func(int)) Option {
	return func(c *Capture) {
		if exit != nil {
			c.exit = exit
		}
	}
}

// WithNow replaces the clock used to name stacktrace files.
func WithNow(now func() time.Time) Option {
	return func(c *Capture) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger reports stacktrace write failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Capture) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Register installs crash capture into dir, creating it when missing. While a
// capture is already installed Register returns it unchanged and ignores the
// new arguments.
func Register(dir string, opts ...Option) (*Capture, error) {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return active, nil
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("stacktrace dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve stacktrace dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create stacktrace dir: %w", err)
	}

	c := &Capture{
		dir:      abs,
		autoKill: true,
		exit:     os.Exit,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	active = c
	return c, nil
}

// Active returns the installed capture, or nil.
func Active() *Capture {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// Dir returns the directory stacktraces are written to.
func (c *Capture) Dir() string {
	return c.dir
}

// Close uninstalls the capture. Panics seen by Recover afterwards propagate
// as if nothing had been registered.
func (c *Capture) Close() {
	mu.Lock()
	defer mu.Unlock()
	if active == c {
		active = nil
	}
}

// Recover captures an in-flight panic. It must be deferred directly:
//
//	defer crash.Recover()
//
// Without an installed capture the panic continues unchanged.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	c := Active()
	if c == nil {
		panic(r)
	}
	c.handle(r, debug.Stack())
}

// Go runs fn on a new goroutine with Recover deferred.
func Go(fn func()) {
	go func() {
		defer Recover()
		fn()
	}()
}

func (c *Capture) handle(value any, stack []byte) {
	f := Failure{Time: c.now(), Value: value, Stack: stack}

	path, err := c.write(f)
	if err != nil {
		c.logger.Error("write stacktrace failed", zap.String("dir", c.dir), zap.Error(err))
	} else {
		f.Path = path
	}

	mu.Lock()
	chain := make([]chained, len(handlers))
	copy(chain, handlers)
	mu.Unlock()
	for _, h := range chain {
		runHandler(h.fn, f)
	}

	if c.autoKill {
		c.exit(exitCode)
	}
}

func runHandler(h Handler, f Failure) {
	defer func() { _ = recover() }()
	h(f)
}

// write stores the failure as <epoch millis>.stacktrace. A name already taken
// within the same millisecond moves to the next free one.
func (c *Capture) write(f Failure) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create stacktrace dir: %w", err)
	}
	text := f.Text()
	ms := f.Time.UnixMilli()
	for attempt := 0; attempt < 100; attempt++ {
		path := filepath.Join(c.dir, strconv.FormatInt(ms+int64(attempt), 10)+"."+Ext)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("create stacktrace: %w", err)
		}
		_, werr := file.WriteString(text)
		cerr := file.Close()
		if werr != nil {
			return "", fmt.Errorf("write stacktrace: %w", werr)
		}
		if cerr != nil {
			return "", fmt.Errorf("close stacktrace: %w", cerr)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free stacktrace name near %d", ms)
}
