package ui

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/order"
)

const (
	expiredLabel = "Expired"

	cardWidth  = 36
	cardHeight = 10 // including the border
	cardGap    = 1

	displayLayout = "Mon 02 Jan 15:04"
)

// cardView is the render-ready form of one order.
type cardView struct {
	ID        string
	EventName string
	Address   string
	Status    order.Status
	Class     order.Class
	Badge     string

	DeliveryTime   time.Time
	DeliveryLeft   string
	DeliveryStruck bool

	ShowReturn   bool
	ReturnTime   time.Time
	ReturnLeft   string
	ReturnStruck bool

	CanDeliver  bool
	CanComplete bool
}

// buildCards derives card view-models from orders at now, sorted by id.
func buildCards(orders []order.Order, now time.Time) []cardView {
	cards := make([]cardView, 0, len(orders))
	for _, o := range orders {
		c := cardView{
			ID:             o.ID,
			EventName:      o.EventName,
			Address:        o.Address,
			Status:         o.Status,
			Class:          order.StatusClass(o, now),
			Badge:          badgeFor(o.Status),
			DeliveryTime:   o.DeliveryTime,
			DeliveryLeft:   remaining(o.DeliveryTime, now),
			DeliveryStruck: o.Status != order.StatusPending,
			CanDeliver:     o.Status == order.StatusPending,
			CanComplete:    o.Status == order.StatusReturnScheduled,
		}
		if o.Status == order.StatusReturnScheduled || (o.Status == order.StatusDelivered && o.ReturnCompleted) {
			c.ShowReturn = true
			c.ReturnTime = o.ReturnTime
			c.ReturnLeft = remaining(o.ReturnTime, now)
			c.ReturnStruck = o.ReturnCompleted
		}
		cards = append(cards, c)
	}
	slices.SortFunc(cards, func(a, b cardView) int {
		return strings.Compare(a.ID, b.ID)
	})
	return cards
}

func badgeFor(status order.Status) string {
	switch status {
	case order.StatusReturnScheduled:
		return "Pickup"
	case order.StatusDelivered:
		return "Done"
	default:
		return "Delivery"
	}
}

func remaining(target, now time.Time) string {
	if text, ok := order.TimeRemaining(target, now); ok {
		return text
	}
	return expiredLabel
}

// timerTarget is one running countdown on the board.
type timerTarget struct {
	Key    string
	Target time.Time
}

// timerKey names the countdown for an order's delivery or its pickup.
func timerKey(id string, pickup bool) string {
	if pickup {
		return "return-" + id
	}
	return id
}

// timerTargets lists the countdowns the board runs: one per card for the
// delivery and one more for each scheduled pickup.
func timerTargets(cards []cardView) []timerTarget {
	targets := make([]timerTarget, 0, len(cards))
	for _, c := range cards {
		targets = append(targets, timerTarget{Key: timerKey(c.ID, false), Target: c.DeliveryTime})
		if c.Status == order.StatusReturnScheduled {
			targets = append(targets, timerTarget{Key: timerKey(c.ID, true), Target: c.ReturnTime})
		}
	}
	return targets
}

// gridColumns returns how many cards fit side by side in width.
func gridColumns(width int) int {
	return max(1, (width+cardGap)/(cardWidth+cardGap))
}

// shortID keeps the tail of long ids, which is where UUIDv7 values differ.
func shortID(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return "…" + string(runes[len(runes)-8:])
}

// renderBoard renders the card grid, scrolled so the selected card is visible.
func (m Model) renderBoard() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 3

	if len(m.cards) == 0 {
		msg := "No active orders. Press a to add one."
		if !m.snapshot.HasOrders {
			msg = "Waiting for the first snapshot from the " + m.backendName() + " store..."
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	cols := gridColumns(m.width)
	visibleRows := max(1, contentHeight/cardHeight)
	selectedRow := m.selected / cols
	firstRow := max(0, selectedRow-visibleRows+1)

	var rows []string
	for row := firstRow; row < firstRow+visibleRows; row++ {
		start := row * cols
		if start >= len(m.cards) {
			break
		}
		end := min(start+cols, len(m.cards))
		rendered := make([]string, 0, 2*(end-start))
		for i := start; i < end; i++ {
			if i > start {
				rendered = append(rendered, strings.Repeat(" ", cardGap))
			}
			rendered = append(rendered, m.renderCard(m.cards[i], i == m.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.NewStyle().Height(contentHeight).Render(strings.Join(rows, "\n"))
}

// renderCard draws one order. The border takes the class color; the selected
// card gets a thick border on the focus background.
func (m Model) renderCard(c cardView, selected bool) string {
	bgColor := m.theme.SurfaceAlt
	border := lipgloss.RoundedBorder()
	if selected {
		bgColor = m.theme.FocusBg
		border = lipgloss.ThickBorder()
	}
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := newSurface(bgColor)
	inner := cardWidth - 4

	badge := bg.badge(styles, c.Class, c.Badge)
	id := bg.text(shortID(c.ID), styles.FaintText)
	header := badge + bg.gap(max(1, inner-lipgloss.Width(badge)-lipgloss.Width(id))) + id

	lines := []string{
		header,
		bg.text(truncate(c.EventName, inner), styles.Text.Bold(true)),
		bg.text(truncate(c.Address, inner), styles.MutedText),
	}

	deliveryStyle := styles.Text
	if c.DeliveryStruck {
		deliveryStyle = styles.FaintText.Strikethrough(true)
	}
	lines = append(lines,
		bg.pair("Delivery", c.DeliveryTime.In(m.loc).Format(displayLayout), styles, deliveryStyle),
		m.countdownLine("Time left", timerKey(c.ID, false), c.DeliveryLeft, styles, bg),
	)

	if c.ShowReturn {
		returnStyle := styles.Text
		if c.ReturnStruck {
			returnStyle = styles.FaintText.Strikethrough(true)
		}
		lines = append(lines,
			bg.pair("Pickup", c.ReturnTime.In(m.loc).Format(displayLayout), styles, returnStyle),
			m.countdownLine("Pickup in", timerKey(c.ID, true), c.ReturnLeft, styles, bg),
		)
	} else {
		lines = append(lines, "", "")
	}

	lines = append(lines, m.cardActions(c, styles, bg))

	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color(m.theme.ClassColor(c.Class))).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(bgColor)).
		Padding(0, 1).
		Width(cardWidth - 2).
		Render(strings.Join(lines, "\n"))
}

// countdownLine prefers the live countdown and falls back to the coarse value
// computed at the last redraw.
func (m Model) countdownLine(label, key, coarse string, styles Styles, bg surface) string {
	value := coarse
	if live, ok := m.countdowns[key]; ok {
		value = live
	}
	valueStyle := styles.InfoText
	if value == expiredLabel {
		valueStyle = styles.DangerText
	}
	return bg.pair(label, value, styles, valueStyle)
}

func (m Model) cardActions(c cardView, styles Styles, bg surface) string {
	actions := []struct{ key, desc string }{{"e", "edit"}}
	switch {
	case c.CanDeliver:
		actions = append(actions, struct{ key, desc string }{"d", "deliver"})
	case c.CanComplete:
		actions = append(actions, struct{ key, desc string }{"r", "picked up"})
	}
	actions = append(actions, struct{ key, desc string }{"x", "cancel"})

	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, bg.text(a.key, styles.AccentText)+bg.text(":", lipgloss.NewStyle())+bg.text(a.desc, styles.FaintText))
	}
	return bg.join(parts, "  ")
}
