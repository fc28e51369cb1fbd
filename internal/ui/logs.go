package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/logtail"
)

const (
	logRefreshInterval = 2 * time.Second
	logBufferLimit     = 2000
)

// logState is the log view: the tail buffer, what is visible after the
// level filter, and the search over the visible lines.
type logState struct {
	rawLines []string
	visible  []string
	level    logLevelFilter
	follow   bool
	err      error

	search       logSearch
	searchActive bool
	searchInput  textinput.Model

	// dirty forces SetContent on the next viewport update.
	dirty bool
}

type logLinesMsg struct {
	lines []string
	err   error
}

type logTickMsg time.Time

func logTickCmd() tea.Cmd {
	return tea.Tick(logRefreshInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logBufferLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) initLogState() {
	in := textinput.New()
	in.Placeholder = "regexp"
	in.CharLimit = 100
	m.logState = logState{follow: true, searchInput: in, dirty: true}
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(0, 0)
	m.updateLogViewport()
}

// refilter recomputes the visible lines and search matches.
func (m *Model) refilter() {
	ls := &m.logState
	ls.visible = ls.level.apply(ls.rawLines)
	ls.search.index(ls.visible)
	ls.dirty = true
}

// updateLogViewport sizes the viewport to the log box and re-renders it when
// the content changed. The box inner area is the screen minus the header,
// command bar, status line and borders.
func (m *Model) updateLogViewport() {
	m.logViewport.Width = max(0, m.width-4)
	m.logViewport.Height = max(0, m.height-6)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if m.logState.dirty {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.rawLines = msg.lines
		m.refilter()
	}
	m.updateLogViewport()
}

func (m Model) renderLogs() string {
	title := "Application Log"
	if m.logState.level != levelAll {
		title += " (" + m.logState.level.String() + ")"
	}
	box := m.renderTitledBox(title, m.logViewport.View(), m.width, m.height-4, true)
	return box + "\n" + m.renderLogStatus(m.theme.Styles(), newSurface(m.theme.FocusBg))
}

func (m Model) renderLogStatus(styles Styles, bg surface) string {
	ls := m.logState
	switch {
	case ls.searchActive:
		return bg.text("/", styles.AccentText) + ls.searchInput.View()
	case ls.search.active() && len(ls.search.matches) == 0:
		return bg.text("No match for /"+ls.search.query, styles.DangerText)
	case ls.search.active():
		return bg.text("/"+ls.search.query, styles.AccentText) + bg.gap(1) +
			bg.text(fmt.Sprintf("[%d of %d]", ls.search.current+1, len(ls.search.matches)), styles.WarningText) + bg.gap(1) +
			bg.text("n/N move, esc clears", styles.FaintText)
	case ls.err != nil:
		return bg.text("Log unavailable: "+ls.err.Error(), styles.DangerText)
	}

	follow := "paused"
	if ls.follow {
		follow = "following"
	}
	path := ""
	if m.config != nil {
		path = truncateMiddle(m.config.LogPath(), 60)
	}
	shown := fmt.Sprintf("%d lines", len(ls.visible))
	if len(ls.visible) != len(ls.rawLines) {
		shown = fmt.Sprintf("%d of %d lines", len(ls.visible), len(ls.rawLines))
	}
	return bg.text(strings.Join([]string{shown, follow, path}, "  "), styles.FaintText)
}

func (m Model) renderLogContent() string {
	bg := newSurface(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width
	lines := m.logState.visible

	if len(lines) == 0 {
		return bg.fill(bg.text("Nothing logged yet", styles.MutedText), width)
	}

	matched := m.logState.search.matchSet()
	focused := m.logState.search.focused()
	hit := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Warning)).
		Foreground(lipgloss.Color(m.theme.Background))

	rendered := make([]string, len(lines))
	for i, line := range lines {
		gutter := fmt.Sprintf("%4d │ ", i+1)
		var row string
		switch {
		case i == focused:
			row = hit.Render(gutter + line)
		case matched[i]:
			row = bg.text(gutter+line, styles.AccentText)
		default:
			row = bg.text(gutter, styles.FaintText) + m.colorizeLine(line, styles, bg)
		}
		rendered[i] = bg.fill(row, width)
	}
	return strings.Join(rendered, "\n")
}

// colorizeLine styles one console-encoded record column by column.
func (m Model) colorizeLine(line string, styles Styles, bg surface) string {
	e := logtail.ParseLine(line)
	if !e.IsRecord() {
		return bg.text(line, styles.MutedText)
	}

	cols := []string{
		bg.text(e.Time, styles.FaintText),
		bg.text(e.Level, levelStyle(e.Level, styles).Bold(true)),
	}
	if e.Caller != "" {
		cols = append(cols, bg.text(e.Caller, styles.FaintText))
	}
	cols = append(cols, bg.text(e.Message, styles.Text))
	if e.Fields != "" {
		cols = append(cols, bg.text(e.Fields, styles.MutedText))
	}
	return bg.join(cols, " ")
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "DEBUG":
		return styles.InfoText
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	default:
		return styles.DangerText
	}
}

// handleLogsKey processes keys in the log view. Any manual scroll stops
// following the tail; G resumes it.
func (m *Model) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	if m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	vp := &m.logViewport
	scroll := func(fn func()) {
		fn()
		m.logState.follow = false
	}

	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
	case key.Matches(msg, m.keys.LevelFilter):
		m.logState.level = m.logState.level.next()
		m.refilter()
	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue("")
		return m.logState.searchInput.Focus()
	case key.Matches(msg, m.keys.NextMatch):
		m.jumpToMatch(1)
	case key.Matches(msg, m.keys.PrevMatch):
		m.jumpToMatch(-1)
	case key.Matches(msg, m.keys.Escape):
		if !m.logState.search.active() {
			m.currentView = ViewBoard
			return nil
		}
		m.logState.search = logSearch{}
		m.logState.dirty = true
	case key.Matches(msg, m.keys.Top):
		scroll(func() { vp.GotoTop() })
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		m.logState.follow = true
	case key.Matches(msg, m.keys.Down):
		scroll(func() { vp.ScrollDown(1) })
	case key.Matches(msg, m.keys.Up):
		scroll(func() { vp.ScrollUp(1) })
	case key.Matches(msg, m.keys.HalfPageDown):
		scroll(func() { vp.HalfPageDown() })
	case key.Matches(msg, m.keys.HalfPageUp):
		scroll(func() { vp.HalfPageUp() })
	default:
		return nil
	}

	m.updateLogViewport()
	return nil
}

// handleLogSearchInput edits the search prompt. An invalid pattern keeps the
// prompt open.
func (m *Model) handleLogSearchInput(msg tea.KeyMsg) tea.Cmd {
	ls := &m.logState
	switch {
	case key.Matches(msg, m.keys.Confirm):
		search, err := compileLogSearch(ls.searchInput.Value())
		if err != nil {
			return nil
		}
		ls.search = search
		ls.searchActive = false
		ls.searchInput.Blur()
		m.refilter()
		m.jumpToMatch(0)
		return nil

	case key.Matches(msg, m.keys.Escape):
		ls.searchActive = false
		ls.searchInput.Blur()
		ls.searchInput.SetValue("")
		return nil
	}

	var cmd tea.Cmd
	ls.searchInput, cmd = ls.searchInput.Update(msg)
	return cmd
}

// jumpToMatch moves the search cursor and centers the match.
func (m *Model) jumpToMatch(delta int) {
	line := m.logState.search.step(delta)
	if line < 0 {
		return
	}
	m.logState.follow = false
	m.logState.dirty = true
	m.updateLogViewport()
	m.logViewport.SetYOffset(max(line-m.logViewport.Height/2, 0))
}
