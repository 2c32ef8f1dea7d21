package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tower/internal/config"
	"github.com/five82/tower/internal/logtail"
	"github.com/five82/tower/internal/prefs"
	"github.com/five82/tower/internal/state"
)

const (
	logTailLines     = 200
	refreshingNotice = "refreshing…"
)

// Trigger queues forced builds on the master.
type Trigger interface {
	TriggerBuild(ctx context.Context, builder string) error
}

// Options configure the dashboard.
type Options struct {
	Context   context.Context
	Source    Trigger
	Store     *state.Store
	Refresh   func(context.Context) error
	Config    config.Config
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
}

// Run starts the dashboard and blocks until the user quits or the context
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.opts.Context.Err() != nil {
		return nil
	}
	return err
}

// Model is the root application state for Bubble Tea.
type Model struct {
	opts   Options
	logger *slog.Logger

	snapshot state.Snapshot
	selected int

	theme  Theme
	styles Styles
	keys   keyMap
	help   help.Model

	logs     viewport.Model
	logLines []string
	showLogs bool

	notice    string
	noticeErr bool

	width  int
	height int
	ready  bool
	now    func() time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.PollTick <= 0 {
		opts.PollTick = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	theme := GetTheme(opts.Prefs.Theme)
	m := Model{
		opts:     opts,
		logger:   logger,
		theme:    theme,
		styles:   theme.Styles(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		logs:     viewport.New(80, 10),
		showLogs: opts.Prefs.ShowLogs,
		width:    80,
		height:   24,
		now:      time.Now,
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.opts.PollTick)}
	// Fetch snapshot immediately on start
	if m.opts.Store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.opts.Store))
	}
	if m.showLogs {
		cmds = append(cmds, m.loadLogs())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadLogs() tea.Cmd {
	path := m.opts.Config.LogPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logLinesMsg{fmt.Sprintf("level=ERROR msg=%q", "read log: "+err.Error())}
		}
		return logLinesMsg(lines)
	}
}

func (m Model) triggerBuild(builder string) tea.Cmd {
	ctx, src := m.opts.Context, m.opts.Source
	return func() tea.Msg {
		if src == nil {
			return triggerDoneMsg{builder: builder, err: errors.New("no buildbot session")}
		}
		return triggerDoneMsg{builder: builder, err: src.TriggerBuild(ctx, builder)}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, fn := m.opts.Context, m.opts.Refresh
	return func() tea.Msg {
		if fn == nil {
			return refreshDoneMsg{}
		}
		return refreshDoneMsg{err: fn(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeLogs()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if m.selected >= len(m.snapshot.Builders) {
			m.selected = max(len(m.snapshot.Builders)-1, 0)
		}
		return m, nil

	case logLinesMsg:
		atBottom := m.logs.AtBottom() || len(m.logLines) == 0
		m.logLines = msg
		m.logs.SetContent(m.renderLogLines())
		if atBottom {
			m.logs.GotoBottom()
		}
		return m, nil

	case triggerDoneMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("force %s failed: %v", msg.builder, msg.err), true)
			m.logger.Error("force build failed", "builder", msg.builder, "error", msg.err)
			return m, nil
		}
		m.setNotice(fmt.Sprintf("build queued for %s", msg.builder), false)
		m.logger.Info("force build queued", "builder", msg.builder)
		return m, m.refresh()

	case refreshDoneMsg:
		if msg.err != nil {
			m.setNotice("refresh failed: "+msg.err.Error(), true)
		} else if m.notice == refreshingNotice {
			m.setNotice("", false)
		}
		if m.opts.Store != nil {
			return m, fetchSnapshotCmd(m.opts.Store)
		}
		return m, nil
	}
	return m, nil
}

// handleTick schedules the next tick and pulls the latest snapshot.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.opts.Store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.opts.Store))
	}
	if m.showLogs {
		cmds = append(cmds, m.loadLogs())
	}
	cmds = append(cmds, tickCmd(m.opts.PollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snapshot.Builders)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Force):
		b, ok := m.selectedBuilder()
		if !ok {
			return m, nil
		}
		m.setNotice("forcing "+b.Name+"…", false)
		return m, m.triggerBuild(b.Name)

	case key.Matches(msg, m.keys.Refresh):
		m.setNotice(refreshingNotice, false)
		return m, m.refresh()

	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		m.resizeLogs()
		m.savePrefs()
		if m.showLogs {
			return m, m.loadLogs()
		}
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.logs.SetContent(m.renderLogLines())
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeLogs()
		return m, nil

	case m.showLogs && (key.Matches(msg, m.keys.PageUp) || key.Matches(msg, m.keys.PageDown)):
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) selectedBuilder() (state.BuilderState, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Builders) {
		return state.BuilderState{}, false
	}
	return m.snapshot.Builders[m.selected], true
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, ShowLogs: m.showLogs}
	if err := prefs.Save(m.opts.PrefsPath, p); err != nil {
		m.logger.Warn("save preferences failed", "error", err)
	}
}

func (m *Model) resizeLogs() {
	m.logs.Width = max(m.width-4, 10)
	m.logs.Height = max(m.height/3, 3)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logLinesMsg []string

type triggerDoneMsg struct {
	builder string
	err     error
}

type refreshDoneMsg struct {
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
