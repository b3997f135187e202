package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/blackbox/internal/crash"
)

// terminal hands the screen back before a panic is recorded. Bubble Tea's
// own panic catching is off so failures reach crash capture.
type terminal struct {
	once sync.Once
	p    *tea.Program
}

// release restores the terminal and stops the program. Only the first call
// has an effect.
func (t *terminal) release() {
	if t == nil || t.p == nil {
		return
	}
	t.once.Do(func() {
		_ = t.p.ReleaseTerminal()
		t.p.Kill()
	})
}

// releaseOnPanic restores the terminal and lets the panic continue. It must
// be deferred directly.
func (t *terminal) releaseOnPanic() {
	if r := recover(); r != nil {
		t.release()
		panic(r)
	}
}

// guard runs cmd with crash capture on the goroutine Bubble Tea starts for
// it. A captured panic yields no message.
func (m Model) guard(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	term := m.term
	return func() tea.Msg {
		defer crash.Recover()
		defer term.releaseOnPanic()
		return cmd()
	}
}
