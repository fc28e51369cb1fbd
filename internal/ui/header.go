package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/order"
)

// renderHeader renders the status bar: counts per status and sync health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.text("courier", styles.Logo)}
	parts = append(parts, m.syncIndicator(styles, bg))

	pending, pickups, delivered := m.statusCounts()
	labels := []string{"Pending:", "Pickups:", "Delivered:"}
	if compact {
		labels = []string{"P:", "R:", "D:"}
	}
	counts := []int{pending, pickups, delivered}
	classes := []order.Class{order.ClassGreen, order.ClassBlue, order.ClassPurple}
	for i, label := range labels {
		countStyle := styles.MutedText
		if counts[i] > 0 {
			countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ClassColor(classes[i])))
		}
		parts = append(parts,
			bg.pair(label, fmt.Sprintf("%d", counts[i]), styles, countStyle))
	}

	if late := m.lateCount(); late > 0 {
		parts = append(parts,
			bg.text("Due <1h:", styles.MutedText)+bg.gap(1)+bg.text(fmt.Sprintf("%d", late), styles.DangerText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.text(ts, styles.MutedText))
	}

	if err := m.snapshot.LastError; err != nil {
		maxErr := 80
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.text("ERROR", styles.DangerText.Bold(true))+bg.gap(1)+
				bg.text(truncate(err.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, "  "))
}

// syncIndicator shows whether the remote store is reachable.
func (m Model) syncIndicator(styles Styles, bg surface) string {
	backend := strings.ToUpper(m.backendName())
	switch {
	case m.snapshot.IsOffline():
		return bg.text("● "+backend+" OFFLINE", styles.DangerText) + bg.gap(1) +
			bg.text(fmt.Sprintf("retry #%d", m.snapshot.ConsecutiveFailures), styles.WarningText)
	case !m.snapshot.HasOrders:
		return bg.text("● "+backend+" connecting...", styles.WarningText.Bold(true))
	default:
		return bg.text("● "+backend, styles.SuccessText)
	}
}

func (m Model) backendName() string {
	if m.config == nil || m.config.Backend == "" {
		return "memory"
	}
	return m.config.Backend
}

func (m Model) statusCounts() (pending, pickups, delivered int) {
	for _, c := range m.cards {
		switch c.Status {
		case order.StatusPending:
			pending++
		case order.StatusReturnScheduled:
			pickups++
		case order.StatusDelivered:
			delivered++
		}
	}
	return pending, pickups, delivered
}

// lateCount counts pending orders drawn red.
func (m Model) lateCount() int {
	late := 0
	for _, c := range m.cards {
		if c.Status == order.StatusPending && c.Class == order.ClassRed {
			late++
		}
	}
	return late
}

// formatTimestamp shows when the last remote snapshot arrived.
func (m Model) formatTimestamp() string {
	if m.snapshot.LastUpdated.IsZero() {
		return ""
	}
	ts := m.snapshot.LastUpdated.In(m.loc).Format("15:04:05")
	if m.tracker == nil {
		return ts
	}
	ago := m.tracker.Now().Sub(m.snapshot.LastUpdated)
	if ago < 0 {
		ago = 0
	}
	return fmt.Sprintf("%s (%s ago)", ts, humanizeDuration(ago))
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh %dm", int(d/time.Hour), int((d%time.Hour)/time.Minute))
	}
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"v", m.logState.level.String()},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"esc", "Board"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"a", "Add"},
			{"e", "Edit"},
			{"d", "Deliver"},
			{"r", "Picked up"},
			{"x", "Cancel"},
			{"H", "History"},
			{"X", "Export"},
			{"y", "Copy id"},
			{"L", "Log"},
			{"?", "More"},
		}
	}

	colon := bg.text(":", lipgloss.NewStyle())
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.text(c.key, styles.AccentText)+colon+bg.text(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLogs && m.logState.search.active() {
		segments = append(segments, bg.text("/"+truncate(m.logState.search.query, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.text("T", styles.AccentText)+colon+bg.text(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.join(segments, "  "))
}

// renderStatusLine shows the outcome of the last action.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	text := m.notice
	style := styles.MutedText
	if m.noticeIsError {
		style = styles.DangerText
	}
	return styles.Footer.Width(m.width).Render(style.Render(truncate(text, max(0, m.width-2))))
}
