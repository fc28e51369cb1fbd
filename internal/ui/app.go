package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewBoard View = iota
	ViewLogs
)

// Tracker is the set of order operations the board drives.
type Tracker interface {
	Create(ctx context.Context, in order.Input) (order.Order, error)
	ConfirmDelivery(ctx context.Context, id string, hasReturn bool, returnTime time.Time) error
	CompleteReturn(ctx context.Context, id string) error
	Edit(ctx context.Context, id string, in order.Input) error
	Cancel(ctx context.Context, id string) error
	ExpireDelivered(ctx context.Context) ([]string, error)
	Snapshot() state.Snapshot
	Now() time.Time
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Tracker   Tracker
	Config    *config.Config
	ThemeName string
	PrefsPath string
	Logger    *zap.Logger
	Location  *time.Location

	// Clipboard copies text; defaults to the system clipboard.
	Clipboard func(string) error

	// Attach receives the presenter once the program exists so the tracker
	// can ask for redraws.
	Attach func(Presenter)
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	tracker   Tracker
	config    *config.Config
	prefsPath string
	logger    *zap.Logger
	loc       *time.Location
	keys      keyMap
	copyID    func(string) error

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Board state
	snapshot     state.Snapshot
	cards        []cardView
	selected     int
	timerGen     uint64
	timerTargets map[string]time.Time
	countdowns   map[string]string

	// Overlays
	modal    Modal
	showHelp bool

	// Log state
	logViewport viewport.Model
	logState    logState

	// Status line
	notice        string
	noticeIsError bool
}

// refreshMsg asks the board to rebuild from the tracker snapshot.
type refreshMsg struct{}

// actionDoneMsg reports the outcome of a tracker operation.
type actionDoneMsg struct {
	notice string
	err    error
}

// actionCmd runs fn off the update loop. The tracker redraws on its own, so
// only the outcome comes back.
func actionCmd(ctx context.Context, notice string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{notice: notice, err: fn(ctx)}
	}
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	copyID := opts.Clipboard
	if copyID == nil {
		copyID = clipboard.WriteAll
	}

	m := Model{
		ctx:          ctx,
		tracker:      opts.Tracker,
		config:       opts.Config,
		prefsPath:    prefsPath,
		logger:       logger,
		loc:          loc,
		keys:         DefaultKeyMap(),
		copyID:       copyID,
		theme:        GetTheme(opts.ThemeName),
		currentView:  ViewBoard,
		timerTargets: make(map[string]time.Time),
		countdowns:   make(map[string]string),
	}
	m.initLogState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		emit(refreshMsg{}),
		expireTickCmd(),
		logTickCmd(),
	}
	if m.tracker != nil {
		cmds = append(cmds, m.expireCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.logState.dirty = true
		m.updateLogViewport()
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case refreshMsg:
		return m, m.redraw()

	case countdownMsg:
		return m, m.handleCountdown(msg)

	case expireTickMsg:
		if m.tracker == nil {
			return m, expireTickCmd()
		}
		return m, tea.Batch(m.expireCmd(), expireTickCmd())

	case expiredMsg:
		switch {
		case msg.err != nil:
			m.setError("Expiry sync failed", msg.err)
		case len(msg.ids) > 0:
			m.setNotice(fmt.Sprintf("Cleared %d delivered order(s)", len(msg.ids)))
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.notice+" failed", msg.err)
		} else {
			m.setNotice(msg.notice)
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setError("Export failed", msg.err)
		} else {
			m.setNotice(fmt.Sprintf("Exported %d entries to %s", msg.count, msg.path))
		}
		return m, nil

	case orderSubmitMsg:
		return m, m.submitOrder(msg)

	case returnSubmitMsg:
		id, at := msg.ID, msg.ReturnTime
		return m, actionCmd(m.ctx, "Delivery confirmed, pickup scheduled", func(ctx context.Context) error {
			return m.tracker.ConfirmDelivery(ctx, id, true, at)
		})

	case deliverSubmitMsg:
		id := msg.ID
		return m, actionCmd(m.ctx, "Delivery confirmed", func(ctx context.Context) error {
			return m.tracker.ConfirmDelivery(ctx, id, false, time.Time{})
		})

	case cancelSubmitMsg:
		id := msg.ID
		return m, actionCmd(m.ctx, "Order cancelled", func(ctx context.Context) error {
			return m.tracker.Cancel(ctx, id)
		})

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case logTickMsg:
		if m.currentView == ViewLogs && m.logState.follow {
			return m, tea.Batch(readLogCmd(m.logPath()), logTickCmd())
		}
		return m, logTickCmd()
	}

	if m.modal != nil {
		return m, m.updateModal(msg)
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
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var content string
	switch m.currentView {
	case ViewLogs:
		content = m.renderLogs()
	default:
		content = m.renderBoard()
	}

	return strings.Join([]string{
		m.renderHeader(),
		m.renderCommandBar(),
		content,
		m.renderStatusLine(),
	}, "\n")
}

func (m *Model) updateModal(msg tea.Msg) tea.Cmd {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return cmd
}

// handleKey processes keyboard input: help overlay first, then any open
// dialog, then log search, then global and per-view bindings.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		m.showHelp = false
		return nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	if m.currentView == ViewLogs && m.logState.searchActive {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = m.theme.Name }); err != nil {
				m.logger.Warn("save preferences failed", zap.String("path", m.prefsPath), zap.Error(err))
			}
		}
		m.logState.dirty = true
		m.updateLogViewport()
		return nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return readLogCmd(m.logPath())

	case key.Matches(msg, m.keys.ViewBoard):
		m.currentView = ViewBoard
		return nil

	case key.Matches(msg, m.keys.History):
		m.modal = newHistoryModal(m.loc)
		return loadHistoryCmd(m.historyFile(), m.snapshot.History)

	case key.Matches(msg, m.keys.Export):
		return exportHistoryCmd(m.exportDir(), m.snapshot.History)
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleBoardKey(msg)
}

// handleBoardKey moves the selection through the card grid and opens the
// dialogs for the selected order.
func (m *Model) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	cols := gridColumns(m.width)
	last := len(m.cards) - 1

	switch {
	case key.Matches(msg, m.keys.Add):
		if m.tracker == nil {
			return nil
		}
		if !m.snapshot.HasOrders {
			m.notice = "Orders not synced yet, wait for the first snapshot"
			m.noticeIsError = true
			return nil
		}
		m.modal = newOrderForm(m.loc)
		return nil

	case key.Matches(msg, m.keys.Right):
		m.selected = min(last, m.selected+1)
	case key.Matches(msg, m.keys.Left):
		m.selected = max(0, m.selected-1)
	case key.Matches(msg, m.keys.Down):
		if m.selected+cols <= last {
			m.selected += cols
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected-cols >= 0 {
			m.selected -= cols
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(0, last)
	}

	c, ok := m.selectedCard()
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		m.modal = newEditForm(c, m.loc)
	case key.Matches(msg, m.keys.Deliver):
		if c.CanDeliver {
			m.modal = &deliveryPrompt{card: c, loc: m.loc}
		}
	case key.Matches(msg, m.keys.Complete):
		if c.CanComplete {
			id := c.ID
			return actionCmd(m.ctx, "Pickup completed", func(ctx context.Context) error {
				return m.tracker.CompleteReturn(ctx, id)
			})
		}
	case key.Matches(msg, m.keys.Cancel):
		m.modal = &confirmPrompt{
			title:    "Cancel order",
			question: fmt.Sprintf("Remove %q from the board?", truncate(c.EventName, 30)),
			onYes:    cancelSubmitMsg{ID: c.ID},
		}
	case key.Matches(msg, m.keys.CopyID):
		return m.copyIDCmd(c.ID)
	}
	return nil
}

func (m *Model) submitOrder(msg orderSubmitMsg) tea.Cmd {
	in := msg.Input
	if msg.ID == "" {
		return actionCmd(m.ctx, "Order added", func(ctx context.Context) error {
			_, err := m.tracker.Create(ctx, in)
			return err
		})
	}
	id := msg.ID
	return actionCmd(m.ctx, "Order updated", func(ctx context.Context) error {
		return m.tracker.Edit(ctx, id, in)
	})
}

func (m Model) copyIDCmd(id string) tea.Cmd {
	copyID := m.copyID
	return func() tea.Msg {
		return actionDoneMsg{notice: "Copied " + id, err: copyID(id)}
	}
}

func (m Model) selectedCard() (cardView, bool) {
	if m.selected < 0 || m.selected >= len(m.cards) {
		return cardView{}, false
	}
	return m.cards[m.selected], true
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeIsError = false
}

func (m *Model) setError(text string, err error) {
	m.notice = text + ": " + err.Error()
	m.noticeIsError = true
	m.logger.Warn(strings.ToLower(text), zap.Error(err))
}

func (m Model) logPath() string {
	if m.config == nil {
		return ""
	}
	return m.config.LogPath()
}

func (m Model) historyFile() string {
	if m.config == nil {
		return ""
	}
	return m.config.HistoryFile
}

func (m Model) exportDir() string {
	if m.config == nil || m.config.ExportDir == "" {
		return "."
	}
	return m.config.ExportDir
}

// Presenter forwards tracker redraw requests into the running program.
type Presenter struct {
	program *tea.Program
}

// Refresh queues a redraw. Send blocks until the program reads it, and the
// tracker may call from inside an update, so it is sent from a goroutine.
func (p Presenter) Refresh() {
	go p.program.Send(refreshMsg{})
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if opts.Attach != nil {
		opts.Attach(Presenter{program: p})
	}
	_, err := p.Run()
	return err
}
