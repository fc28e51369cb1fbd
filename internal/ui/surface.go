package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/order"
)

// surface paints text onto one background color. lipgloss resets after each
// styled run, so every space between runs has to carry the background too.
type surface struct {
	base lipgloss.Style
}

func newSurface(color string) surface {
	return surface{base: lipgloss.NewStyle().Background(lipgloss.Color(color))}
}

// text renders each word of s in style and rejoins them with painted spaces.
func (s surface) text(str string, style lipgloss.Style) string {
	if str == "" {
		return ""
	}
	style = style.Background(s.base.GetBackground())
	var b strings.Builder
	for i, word := range strings.Split(str, " ") {
		if i > 0 {
			b.WriteString(s.gap(1))
		}
		if word != "" {
			b.WriteString(style.Render(word))
		}
	}
	return b.String()
}

func (s surface) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return s.base.Render(strings.Repeat(" ", n))
}

func (s surface) join(parts []string, sep string) string {
	return strings.Join(parts, s.base.Render(sep))
}

// fill pads rendered content out to width.
func (s surface) fill(content string, width int) string {
	return s.base.Width(width).Render(content)
}

// pair renders "label value" with a muted label.
func (s surface) pair(label, value string, styles Styles, valueStyle lipgloss.Style) string {
	return s.text(label, styles.MutedText) + s.gap(1) + s.text(value, valueStyle)
}

// badge renders label as a chip in the card color for class. The chip has
// its own background, so it is not painted onto the surface.
func (s surface) badge(styles Styles, class order.Class, label string) string {
	return styles.ClassStyle(class).Render(label)
}
