package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/order"
)

// Theme defines colors and styles for the board.
type Theme struct {
	Name string

	// Base colors
	Background string // Outermost background
	Surface    string // Main content panels
	SurfaceAlt string // Secondary surfaces
	FocusBg    string // Focus/active states

	// Selection colors
	SelectionBg   string // Selected row background
	SelectionText string // Selected row text

	// Border colors
	Border      string // Default border
	BorderMuted string // Muted border
	BorderFocus string // Focus border

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Card colors keyed by order.Class
	ClassColors map[order.Class]string
}

// ClassColor returns the card color for class, falling back to Muted.
func (t Theme) ClassColor(class order.Class) string {
	if color, ok := t.ClassColors[class]; ok {
		return color
	}
	return t.Muted
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	bar := func(color string) lipgloss.Style {
		return fg(color).Background(lipgloss.Color(t.Surface)).Padding(0, 1)
	}

	return Styles{
		Background: lipgloss.NewStyle().Background(lipgloss.Color(t.Background)),
		Surface:    fg(t.Text).Background(lipgloss.Color(t.Surface)),
		SurfaceAlt: fg(t.Text).Background(lipgloss.Color(t.SurfaceAlt)),

		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   bar(t.Text),
		Footer:   bar(t.Muted),
		Logo:     fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).Background(lipgloss.Color(t.SelectionBg)),

		classColors: t.ClassColors,
		background:  t.Background,
		muted:       t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	// Base
	Background lipgloss.Style
	Surface    lipgloss.Style
	SurfaceAlt lipgloss.Style

	// Text
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	// Components
	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	classColors map[order.Class]string
	background  string
	muted       string
}

// ClassStyle returns the badge style for a card class.
func (s Styles) ClassStyle(class order.Class) lipgloss.Style {
	color := s.classColors[class]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles with all text styles having the specified background.
// This ensures styled text has explicit backgrounds instead of transparent/inherit.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)

	return Styles{
		// Base styles with background
		Background: s.Background.Background(bg),
		Surface:    s.Surface.Background(bg),
		SurfaceAlt: s.SurfaceAlt.Background(bg),

		// Text styles with background
		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		InfoText:    s.InfoText.Background(bg),

		// Component styles with background
		Header:   s.Header.Background(bg),
		Footer:   s.Footer.Background(bg),
		Logo:     s.Logo.Background(bg),
		Selected: s.Selected.Background(bg),

		classColors: s.classColors,
		background:  s.background,
		muted:       s.muted,
	}
}

// palette is the raw swatches a theme is derived from, darkest surface first
// for dark themes and lightest first for light ones.
type palette struct {
	bg0, bg1, bg2, bg3, bg4 string // surfaces, outermost to most raised
	sel                     string
	fg, comment, dim        string
	blue, magenta, green    string
	yellow, red, cyan       string
}

// fromPalette maps swatches onto theme roles. Cards reuse the semantic
// colors: pickups blue, delivered magenta, urgency green to red.
func fromPalette(name string, p palette) Theme {
	return Theme{
		Name:          name,
		Background:    p.bg0,
		Surface:       p.bg1,
		SurfaceAlt:    p.bg2,
		FocusBg:       p.bg3,
		SelectionBg:   p.sel,
		SelectionText: p.fg,
		Border:        p.bg4,
		BorderMuted:   p.bg2,
		BorderFocus:   p.blue,
		Text:          p.fg,
		Muted:         p.comment,
		Faint:         p.dim,
		Accent:        p.blue,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		ClassColors: map[order.Class]string{
			order.ClassBlue:   p.blue,
			order.ClassPurple: p.magenta,
			order.ClassGreen:  p.green,
			order.ClassYellow: p.yellow,
			order.ClassRed:    p.red,
		},
	}
}

var (
	// https://github.com/EdenEast/nightfox.nvim
	nightfox = palette{
		bg0: "#131a24", bg1: "#192330", bg2: "#212e3f", bg3: "#29394f", bg4: "#39506d",
		sel: "#2b3b51",
		fg: "#cdcecf", comment: "#738091", dim: "#71839b",
		blue: "#719cd6", magenta: "#9d79d6", green: "#81b29a",
		yellow: "#dbc074", red: "#c94f6d", cyan: "#63cdcf",
	}

	// https://github.com/rebelot/kanagawa.nvim
	kanagawa = palette{
		bg0: "#16161D", bg1: "#1F1F28", bg2: "#2A2A37", bg3: "#363646", bg4: "#54546D",
		sel: "#2D4F67",
		fg: "#DCD7BA", comment: "#C8C093", dim: "#727169",
		blue: "#7E9CD8", magenta: "#957FB8", green: "#98BB6C",
		yellow: "#E6C384", red: "#E46876", cyan: "#7FB4CA",
	}

	// Tailwind slate surfaces with sky accents.
	slate = palette{
		bg0: "#020617", bg1: "#0f172a", bg2: "#1e293b", bg3: "#283548", bg4: "#334155",
		sel: "#0369a1",
		fg: "#f1f5f9", comment: "#94a3b8", dim: "#64748b",
		blue: "#38bdf8", magenta: "#a855f7", green: "#22c55e",
		yellow: "#f59e0b", red: "#ef4444", cyan: "#06b6d4",
	}

	// Rosé Pine Dawn, for bright rooms and daylight loading docks.
	dawn = palette{
		bg0: "#faf4ed", bg1: "#fffaf3", bg2: "#f2e9e1", bg3: "#dfdad9", bg4: "#cecacd",
		sel: "#dfdad9",
		fg: "#575279", comment: "#797593", dim: "#9893a5",
		blue: "#286983", magenta: "#907aa9", green: "#56949f",
		yellow: "#ea9d34", red: "#b4637a", cyan: "#d7827e",
	}
)

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate", "Dawn"}

var themes = map[string]Theme{
	"Nightfox": fromPalette("Nightfox", nightfox),
	"Kanagawa": fromPalette("Kanagawa", kanagawa),
	"Slate":    fromPalette("Slate", slate),
	"Dawn":     fromPalette("Dawn", dawn),
}

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current, wrapping around.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	return themeOrder
}
