package theme

import "github.com/charmbracelet/lipgloss"

// Palette names accepted by Use.
const (
	Default = "default"
	Mono    = "mono"
)

// Color palette, minimalist and terminal-friendly.
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorError     lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorHighlight lipgloss.Color
	ColorNull      lipgloss.Color
)

// Shared styles used across TUI components.
var (
	StyleBorder       lipgloss.Style
	StyleActiveBorder lipgloss.Style
	StyleTitle        lipgloss.Style
	StyleMuted        lipgloss.Style
	StyleError        lipgloss.Style
	StyleSuccess      lipgloss.Style
	StyleNull         lipgloss.Style
	StyleCursor       lipgloss.Style
	StyleStatusBar    lipgloss.Style
)

func init() {
	Use(Default)
}

// Use switches the palette. Unknown names fall back to the default palette
// and Use reports false.
func Use(name string) bool {
	known := true
	switch name {
	case Mono:
		ColorPrimary = lipgloss.Color("255")
		ColorSecondary = lipgloss.Color("244")
		ColorSuccess = lipgloss.Color("252")
		ColorError = lipgloss.Color("255")
		ColorBorder = lipgloss.Color("240")
		ColorMuted = lipgloss.Color("246")
		ColorHighlight = lipgloss.Color("231")
		ColorNull = lipgloss.Color("242")
	default:
		known = name == "" || name == Default
		ColorPrimary = lipgloss.Color("63")    // Purple
		ColorSecondary = lipgloss.Color("241") // Gray
		ColorSuccess = lipgloss.Color("42")    // Green
		ColorError = lipgloss.Color("196")     // Red
		ColorBorder = lipgloss.Color("238")    // Dark gray
		ColorMuted = lipgloss.Color("245")     // Light gray
		ColorHighlight = lipgloss.Color("229") // Yellow
		ColorNull = lipgloss.Color("243")
	}
	buildStyles()
	return known
}

func buildStyles() {
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleActiveBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary)

	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	StyleMuted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	StyleNull = lipgloss.NewStyle().
		Foreground(ColorNull).
		Italic(true)

	StyleCursor = lipgloss.NewStyle().
		Reverse(true)

	StyleStatusBar = lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1)
}
