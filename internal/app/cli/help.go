package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type helpEntry struct {
	usage string
	desc  string
}

var (
	helpCommands = []helpEntry{
		{"devboot [run]", "Run every bootstrap phase"},
		{"devboot ports", "Show which service ports are free"},
		{"devboot report", "Print the last diagnostic report"},
		{"devboot init", "Generate devboot.yaml template"},
		{"devboot version", "Show version"},
	}

	helpFlags = []helpEntry{
		{"--skip-install", "Skip cleanup and dependency installation"},
		{"--no-monitor", "Do not start the self-check loop"},
		{"--force", "Overwrite an existing devboot.yaml (init)"},
		{"--dry-run", "Print the template instead of writing it (init)"},
	}

	helpExamples = []helpEntry{
		{"devboot --skip-install", "Restart the service without reinstalling"},
		{"devboot init --port 3000 --package-manager pnpm", "Generate a pnpm project config"},
		{"devboot report", "Show what went wrong last time"},
	}
)

// renderHelp renders usage, flags and examples
func renderHelp() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		RenderTitle(),
		sectionHeader.Render("Usage:"),
		renderEntries(helpCommands, commandName),
		sectionHeader.Render("Flags:"),
		renderEntries(helpFlags, commandName),
		sectionHeader.Render("Examples:"),
		renderEntries(helpExamples, exampleCode),
		helpText.Render("Exit codes: 0 ready, 1 failed, 2 interrupted, 3 invalid usage or configuration"),
	) + "\n"
}

func renderEntries(entries []helpEntry, style lipgloss.Style) string {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.usage))
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, bodyMedium.Render(fmt.Sprintf("  %s  %s", style.Render(fmt.Sprintf("%-*s", width, e.usage)), e.desc)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
