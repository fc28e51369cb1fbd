package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/order"
)

const (
	countdownInterval = time.Second
	expireInterval    = time.Minute
)

// countdownMsg advances one card timer. gen ties it to the redraw that
// started it; messages from older generations are dropped.
type countdownMsg struct {
	key string
	gen uint64
}

type expireTickMsg time.Time

type expiredMsg struct {
	ids []string
	err error
}

func countdownCmd(key string, gen uint64) tea.Cmd {
	return tea.Tick(countdownInterval, func(time.Time) tea.Msg {
		return countdownMsg{key: key, gen: gen}
	})
}

func expireTickCmd() tea.Cmd {
	return tea.Tick(expireInterval, func(t time.Time) tea.Msg {
		return expireTickMsg(t)
	})
}

// redraw rebuilds every card from the tracker snapshot and restarts the
// countdowns. Timers from the previous generation die on their next tick.
func (m *Model) redraw() tea.Cmd {
	if m.tracker == nil {
		return nil
	}
	m.snapshot = m.tracker.Snapshot()
	now := m.tracker.Now()
	m.cards = buildCards(m.snapshot.Orders, now)
	if m.selected >= len(m.cards) {
		m.selected = max(0, len(m.cards)-1)
	}
	return m.restartTimers(now)
}

func (m *Model) restartTimers(now time.Time) tea.Cmd {
	m.timerGen++
	m.timerTargets = make(map[string]time.Time)
	m.countdowns = make(map[string]string)

	var cmds []tea.Cmd
	for _, t := range timerTargets(m.cards) {
		text, running := order.Countdown(t.Target, now)
		if !running {
			m.countdowns[t.Key] = expiredLabel
			continue
		}
		m.countdowns[t.Key] = text
		m.timerTargets[t.Key] = t.Target
		cmds = append(cmds, countdownCmd(t.Key, m.timerGen))
	}
	return tea.Batch(cmds...)
}

// handleCountdown updates one timer and schedules its next tick until the
// target passes.
func (m *Model) handleCountdown(msg countdownMsg) tea.Cmd {
	if msg.gen != m.timerGen {
		return nil
	}
	target, ok := m.timerTargets[msg.key]
	if !ok {
		return nil
	}
	text, running := order.Countdown(target, m.tracker.Now())
	if !running {
		m.countdowns[msg.key] = expiredLabel
		delete(m.timerTargets, msg.key)
		return nil
	}
	m.countdowns[msg.key] = text
	return countdownCmd(msg.key, msg.gen)
}

// expireCmd drops delivered orders past retention. The tracker refreshes the
// board itself, so the result only feeds the status line.
func (m Model) expireCmd() tea.Cmd {
	tr, ctx := m.tracker, m.ctx
	return func() tea.Msg {
		ids, err := tr.ExpireDelivered(ctx)
		return expiredMsg{ids: ids, err: err}
	}
}
