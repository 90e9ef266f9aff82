package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"devboot/internal/config"
)

const (
	defaultWidth = 80
	minWidth     = 40
)

// Headline - High-emphasis text for section headers
var (
	headlineLarge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginTop(1)
)

// Title - Medium-emphasis text for titles and subtitles
var (
	titleMedium = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
)

// Body - Main content text
var (
	bodyLarge  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
	bodyMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
)

// Label - Small text for labels, captions, and supplementary content
var (
	labelLarge  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E")).Italic(true).MarginTop(1)
	labelMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E"))
)

// Semantic styles - mapped to Material typography scale
var (
	sectionHeader = headlineLarge
	helpText      = labelLarge
	mutedText     = labelMedium

	commandName = titleMedium
	exampleCode = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA726"))

	successText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	warningText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA726"))
	errorText   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF5350"))

	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9D7BF5")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	appNameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	appVersionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#BDBDBD"))
	titleWrapper    = lipgloss.NewStyle().MarginTop(1).MarginBottom(1)
)

// RenderTitle renders the app title block with name, version, and description
func RenderTitle() string {
	title := titleWrapper.Render(
		appNameStyle.Render(config.AppName) + appVersionStyle.Render(" v"+config.Version),
	)
	description := bodyLarge.Render(config.AppDescription)

	return lipgloss.JoinVertical(lipgloss.Left, title, description)
}

// terminalWidth returns the stdout width, or the default when stdout is not a usable terminal
func terminalWidth() int {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return defaultWidth
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width < minWidth {
		return defaultWidth
	}

	return width
}

// clip cuts a line to width cells
func clip(line string, width int) string {
	if width <= 0 {
		return line
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
