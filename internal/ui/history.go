package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/history"
	"github.com/five82/courier/internal/order"
)

const historyTimeLayout = "2006-01-02 15:04"

// historyLoadedMsg delivers the entries for the history dialog. Source names
// where they came from; err is shown inline instead of the table.
type historyLoadedMsg struct {
	entries []order.HistoryEntry
	source  string
	err     error
}

// loadHistoryCmd reads the external history file when one is configured and
// otherwise uses the synced collection.
func loadHistoryCmd(path string, synced []order.HistoryEntry) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return historyLoadedMsg{entries: synced, source: "synced history"}
		}
		entries, err := history.ReadFile(path)
		return historyLoadedMsg{entries: entries, source: path, err: err}
	}
}

// historyModal is the read-only table of finished deliveries.
type historyModal struct {
	table  table.Model
	loc    *time.Location
	loaded bool
	count  int
	source string
	err    error
}

func newHistoryModal(loc *time.Location) *historyModal {
	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Event", Width: 18},
		{Title: "Address", Width: 22},
		{Title: "Created", Width: 16},
		{Title: "Delivered", Width: 16},
		{Title: "Pickup?", Width: 7},
		{Title: "Pickup at", Width: 16},
		{Title: "Picked up", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return &historyModal{table: t, loc: loc}
}

// historyRows formats entries for the table, newest last as stored.
func historyRows(entries []order.HistoryEntry, loc *time.Location) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		pickup := "no"
		if e.ReturnScheduled {
			pickup = "yes"
		}
		rows = append(rows, table.Row{
			shortID(e.ID),
			e.EventName,
			e.Address,
			formatOptionalTime(e.CreatedAt, loc),
			formatOptionalTime(e.DeliveredAt, loc),
			pickup,
			formatOptionalTime(e.ReturnTime, loc),
			formatOptionalTime(e.ReturnCompletedAt, loc),
		})
	}
	return rows
}

func formatOptionalTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(historyTimeLayout)
}

func (h *historyModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		h.loaded = true
		h.source = msg.source
		h.err = msg.err
		h.count = len(msg.entries)
		h.table.SetRows(historyRows(msg.entries, h.loc))
		h.table.GotoBottom()
		return h, nil, false
	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) || key.Matches(msg, keys.History) {
			return h, nil, true
		}
	}
	var cmd tea.Cmd
	h.table, cmd = h.table.Update(msg)
	return h, cmd, false
}

func (h *historyModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	modalWidth := max(40, min(width-4, 140))

	var body string
	switch {
	case !h.loaded:
		body = styles.MutedText.Render("Loading history...")
	case h.err != nil:
		body = styles.DangerText.Render("Could not read history: " + h.err.Error())
	case h.count == 0:
		body = styles.MutedText.Render("No finished deliveries yet.")
	default:
		t := h.table
		t.SetHeight(max(3, height-14))
		t.SetStyles(historyTableStyles(theme))
		body = t.View()
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n")
	if h.loaded {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%d entries from %s", h.count, truncateMiddle(h.source, 60))))
		b.WriteString("\n")
	}
	b.WriteString(hints(theme, "j/k", "scroll", "esc", "close"))
	return renderModal(theme, "Delivery history", b.String(), modalWidth, width, height)
}

func historyTableStyles(theme Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	s.Cell = s.Cell.Foreground(lipgloss.Color(theme.Text))
	return s
}

// exportDoneMsg reports the written export file.
type exportDoneMsg struct {
	path  string
	count int
	err   error
}

func exportHistoryCmd(dir string, entries []order.HistoryEntry) tea.Cmd {
	return func() tea.Msg {
		path, err := history.Export(dir, entries)
		return exportDoneMsg{path: path, count: len(entries), err: err}
	}
}
