package ui

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/blackbox/internal/prefs"
	"github.com/five82/blackbox/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewLogs View = iota
	ViewCrashes
)

// defaultUIInterval is how often the model re-reads the shared snapshot.
const defaultUIInterval = time.Second

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	// Refresh asks the refresher for an immediate reload. Optional.
	Refresh       func()
	PollTick      time.Duration
	ThemeName     string
	PrefsPath     string
	LogFile       string
	StacktraceDir string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	store     *state.Store
	refresh   func()
	prefsPath string
	pollTick  time.Duration
	logFile   string
	traceDir  string
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	logs    logState
	crashes crashState

	// Transient error shown in the header (prefs save, stacktrace read)
	errorMsg string

	term *terminal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		store:       opts.Store,
		refresh:     opts.Refresh,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		logFile:     opts.LogFile,
		traceDir:    opts.StacktraceDir,
		keys:        defaultKeyMap(),
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewLogs,
	}
	m.initLogState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, m.guard(fetchSnapshotCmd(m.store)))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewports()
		m.updateLogViewport()
		m.updatePreviewViewport()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, m.guard(fetchSnapshotCmd(m.store)))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case stacktraceMsg:
		m.handleStacktrace(msg)
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.errorMsg = "theme not saved: " + msg.err.Error()
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewCrashes:
		b.WriteString(m.renderCrashes())
	default:
		b.WriteString(m.renderLogs())
	}
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Search input swallows everything but its own keys.
	if m.currentView == ViewLogs && m.logs.searchActive {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.logs.contentVersion++
		m.updateLogViewport()
		m.updatePreviewViewport()
		return m, m.guard(saveThemeCmd(m.prefsPath, m.theme.Name))

	case key.Matches(msg, m.keys.Refresh):
		if m.refresh != nil {
			m.refresh()
		}
		if m.store != nil {
			return m, m.guard(fetchSnapshotCmd(m.store))
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewLogs {
			return m.showCrashes()
		}
		m.currentView = ViewLogs
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, nil

	case key.Matches(msg, m.keys.ViewCrashes):
		return m.showCrashes()
	}

	switch m.currentView {
	case ViewCrashes:
		return m.handleCrashesKey(msg)
	default:
		return m.handleLogsKey(msg)
	}
}

func (m Model) showCrashes() (tea.Model, tea.Cmd) {
	m.currentView = ViewCrashes
	cmd := m.loadSelectedStacktrace()
	return m, cmd
}

// handleSnapshot installs fresh data from the refresher.
func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	entriesChanged := !sameEntries(m.snapshot, snap)
	m.snapshot = snap
	m.lastUpdated = snap.LastUpdated
	if entriesChanged {
		m.logs.contentVersion++
		m.rebuildLogLines()
	}
	m.updateLogViewport()
	cmd := m.syncCrashSelection()
	return m, cmd
}

func (m *Model) resizeViewports() {
	// Header, command bar, status line and two border rows.
	bodyHeight := max(m.height-5, 1)
	bodyWidth := max(m.width-2, 1)

	m.logs.viewport.Width = bodyWidth
	m.logs.viewport.Height = bodyHeight

	listHeight := m.crashListHeight()
	m.crashes.preview.Width = bodyWidth
	m.crashes.preview.Height = max(bodyHeight-listHeight-2, 1)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type prefsSavedMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func saveThemeCmd(path, theme string) tea.Cmd {
	return func() tea.Msg {
		p, err := prefs.Load(path)
		if err != nil {
			return prefsSavedMsg{err: err}
		}
		p.Theme = theme
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

// sameEntries reports whether two snapshots hold identical log entries.
func sameEntries(a, b state.Snapshot) bool {
	return slices.Equal(a.Entries, b.Entries)
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled. Panics are left to crash capture; the terminal is
// restored before they propagate.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	term := &terminal{}
	m := New(opts)
	m.term = term
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithoutCatchPanics())
	term.p = p
	defer term.releaseOnPanic()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
