package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/narrowfind/internal/ui"
)

// Style variables for the search form.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle         lipgloss.Style
	focusedPanelStyle  lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	versionStyle       lipgloss.Style
	elapsedStyle       lipgloss.Style
	labelStyle         lipgloss.Style
	focusedLabelStyle  lipgloss.Style
	stepLineStyle      lipgloss.Style
	headerLineStyle    lipgloss.Style
	resultLineStyle    lipgloss.Style
	warningLineStyle   lipgloss.Style
	errorLineStyle     lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusErrorStyle   lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Dim).
		Foreground(t.Text)

	focusedPanelStyle = panelStyle.
		BorderForeground(t.Border)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	versionStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	elapsedStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	labelStyle = lipgloss.NewStyle().
		Foreground(t.Dim).
		Width(labelWidth)

	focusedLabelStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Width(labelWidth)

	stepLineStyle = lipgloss.NewStyle().
		Foreground(t.Text)

	headerLineStyle = lipgloss.NewStyle().
		Foreground(t.Info)

	resultLineStyle = lipgloss.NewStyle().
		Foreground(t.Success).
		Bold(true)

	warningLineStyle = lipgloss.NewStyle().
		Foreground(t.Warning)

	errorLineStyle = lipgloss.NewStyle().
		Foreground(t.Error)

	statusRunningStyle = lipgloss.NewStyle().
		Foreground(t.Warning).
		Bold(true)

	statusDoneStyle = lipgloss.NewStyle().
		Foreground(t.Success).
		Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)
}
