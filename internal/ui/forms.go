package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/order"
)

const formWidth = 56

// orderSubmitMsg carries a validated create or edit form back to the board.
// ID is empty for a new order.
type orderSubmitMsg struct {
	ID    string
	Input order.Input
}

// returnSubmitMsg confirms a delivery with a scheduled pickup.
type returnSubmitMsg struct {
	ID         string
	ReturnTime time.Time
}

// orderForm is the create and edit dialog.
type orderForm struct {
	id     string
	inputs []textinput.Model
	labels []string
	focus  int
	err    string
	loc    *time.Location
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = formWidth - 10
	return ti
}

func newOrderForm(loc *time.Location) *orderForm {
	f := &orderForm{
		inputs: []textinput.Model{
			newTextInput("Spring Gala", 120),
			newTextInput("12 Main St, Springfield", 200),
			newTextInput(order.InputLayout, 19),
		},
		labels: []string{"Event", "Address", "Delivery time"},
		loc:    loc,
	}
	f.inputs[0].Focus()
	return f
}

// newEditForm prefills the form with the card's current values.
func newEditForm(c cardView, loc *time.Location) *orderForm {
	f := newOrderForm(loc)
	f.id = c.ID
	f.inputs[0].SetValue(c.EventName)
	f.inputs[1].SetValue(c.Address)
	f.inputs[2].SetValue(c.DeliveryTime.In(f.location()).Format(order.InputLayout))
	return f
}

func (f *orderForm) location() *time.Location {
	if f.loc == nil {
		return time.Local
	}
	return f.loc
}

func (f *orderForm) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.inputs[f.focus].Blur()
	f.focus = (i%n + n) % n
	return f.inputs[f.focus].Focus()
}

// input parses and validates the fields. Validation failures keep the form
// open with the message inline.
func (f *orderForm) input() (order.Input, error) {
	deliveryTime, err := order.ParseLocalTime(f.inputs[2].Value(), f.location())
	if err != nil {
		return order.Input{}, err
	}
	return order.Input{
		EventName:    f.inputs[0].Value(),
		Address:      f.inputs[1].Value(),
		DeliveryTime: deliveryTime,
	}.Validate()
}

func (f *orderForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return f, nil, true
		case key.Matches(k, keys.NextField):
			return f, f.setFocus(f.focus + 1), false
		case key.Matches(k, keys.PrevField):
			return f, f.setFocus(f.focus - 1), false
		case key.Matches(k, keys.Confirm):
			if f.focus < len(f.inputs)-1 {
				return f, f.setFocus(f.focus + 1), false
			}
			in, err := f.input()
			if err != nil {
				f.err = err.Error()
				return f, nil, false
			}
			return f, emit(orderSubmitMsg{ID: f.id, Input: in}), true
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *orderForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	title := "New order"
	if f.id != "" {
		title = "Edit order " + shortID(f.id)
	}

	var b strings.Builder
	for i, in := range f.inputs {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText.Bold(true)
		}
		b.WriteString(label.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	if f.err != "" {
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n\n")
	}
	b.WriteString(hints(theme, "tab", "next", "enter", "save", "esc", "cancel"))
	return renderModal(theme, title, b.String(), formWidth, width, height)
}

// returnForm asks for the pickup time after a delivery with return.
type returnForm struct {
	id      string
	address string
	input   textinput.Model
	err     string
	loc     *time.Location
}

func newReturnForm(id, address string, loc *time.Location) (*returnForm, tea.Cmd) {
	f := &returnForm{
		id:      id,
		address: address,
		input:   newTextInput(order.InputLayout, 19),
		loc:     loc,
	}
	return f, f.input.Focus()
}

func (f *returnForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return f, nil, true
		case key.Matches(k, keys.Confirm):
			if strings.TrimSpace(f.input.Value()) == "" {
				f.err = "pickup time is required"
				return f, nil, false
			}
			t, err := order.ParseLocalTime(f.input.Value(), f.loc)
			if err != nil {
				f.err = err.Error()
				return f, nil, false
			}
			return f, emit(returnSubmitMsg{ID: f.id, ReturnTime: t}), true
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd, false
}

func (f *returnForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.MutedText.Render("Pickup address"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(truncate(f.address, formWidth-6)))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Pickup time"))
	b.WriteString("\n")
	b.WriteString(f.input.View())
	b.WriteString("\n\n")
	if f.err != "" {
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n\n")
	}
	b.WriteString(hints(theme, "enter", "confirm delivery", "esc", "cancel"))
	return renderModal(theme, "Schedule pickup", b.String(), formWidth, width, height)
}
