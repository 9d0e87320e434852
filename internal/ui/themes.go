package ui

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultThemeName is used when no theme is configured.
const DefaultThemeName = "dark"

// Theme is the palette of the terminal output. Each ANSI field colours one
// kind of output line or one role in the REPL and presenter.
type Theme struct {
	// Name is the identifier accepted by --theme.
	Name string
	// Accent colours group positions and expressions.
	Accent string
	// Muted colours the per-iteration progress lines.
	Muted string
	// Result colours the result line and successful searches.
	Result string
	// Warning colours warnings and durations.
	Warning string
	// Error colours validation errors and failures.
	Error string
	// Banner colours the expression header, banners and field values.
	Banner    string
	Bold      string
	Underline string
	Reset     string

	// TUI is the lipgloss palette of the terminal form.
	TUI TUITheme
}

// TUITheme holds the lipgloss colours of the terminal form.
type TUITheme struct {
	Bg      lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
}

const (
	bold      = "\033[1m"
	underline = "\033[4m"
	reset     = "\033[0m"
)

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Accent:    "\033[38;5;39m",
		Muted:     "\033[38;5;245m",
		Result:    "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Banner:    "\033[38;5;141m",
		Bold:      bold,
		Underline: underline,
		Reset:     reset,
		TUI: TUITheme{
			Bg:      lipgloss.Color("#000000"),
			Text:    lipgloss.Color("#E0E0E0"),
			Border:  lipgloss.Color("#3DA5FF"),
			Accent:  lipgloss.Color("#7FC8FF"),
			Success: lipgloss.Color("#9ECE6A"),
			Warning: lipgloss.Color("#FFD75F"),
			Error:   lipgloss.Color("#FF4444"),
			Dim:     lipgloss.Color("#666666"),
			Info:    lipgloss.Color("#B48EFF"),
		},
	}

	// LightTheme uses darker tones readable on light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Accent:    "\033[38;5;27m",
		Muted:     "\033[38;5;240m",
		Result:    "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Banner:    "\033[38;5;54m",
		Bold:      bold,
		Underline: underline,
		Reset:     reset,
		TUI: TUITheme{
			Bg:      lipgloss.Color("#FFFFFF"),
			Text:    lipgloss.Color("#202020"),
			Border:  lipgloss.Color("#005FD7"),
			Accent:  lipgloss.Color("#0040A0"),
			Success: lipgloss.Color("#008700"),
			Warning: lipgloss.Color("#AF5F00"),
			Error:   lipgloss.Color("#AF0000"),
			Dim:     lipgloss.Color("#808080"),
			Info:    lipgloss.Color("#5F0087"),
		},
	}

	// OrangeTheme is a warm dark palette.
	OrangeTheme = Theme{
		Name:      "orange",
		Accent:    "\033[38;5;208m",
		Muted:     "\033[38;5;245m",
		Result:    "\033[38;5;82m",
		Warning:   "\033[38;5;214m",
		Error:     "\033[38;5;196m",
		Banner:    "\033[38;5;69m",
		Bold:      bold,
		Underline: underline,
		Reset:     reset,
		TUI: TUITheme{
			Bg:      lipgloss.Color("#000000"),
			Text:    lipgloss.Color("#E0E0E0"),
			Border:  lipgloss.Color("#FF6600"),
			Accent:  lipgloss.Color("#FF8C00"),
			Success: lipgloss.Color("#9ECE6A"),
			Warning: lipgloss.Color("#FFB347"),
			Error:   lipgloss.Color("#FF4444"),
			Dim:     lipgloss.Color("#666666"),
			Info:    lipgloss.Color("#4488FF"),
		},
	}

	// NoColorTheme prints plain text. It is selected by --no-color, NO_COLOR
	// or --theme none.
	NoColorTheme = Theme{
		Name: "none",
		TUI: TUITheme{
			Bg:      lipgloss.NoColor{},
			Text:    lipgloss.NoColor{},
			Border:  lipgloss.NoColor{},
			Accent:  lipgloss.NoColor{},
			Success: lipgloss.NoColor{},
			Warning: lipgloss.NoColor{},
			Error:   lipgloss.NoColor{},
			Dim:     lipgloss.NoColor{},
			Info:    lipgloss.NoColor{},
		},
	}

	themes = []Theme{DarkTheme, LightTheme, OrangeTheme, NoColorTheme}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeNames lists the names accepted by SetTheme, in display order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// LookupTheme returns the theme called name. Matching ignores case.
func LookupTheme(name string) (Theme, bool) {
	i := slices.IndexFunc(themes, func(t Theme) bool { return strings.EqualFold(t.Name, name) })
	if i < 0 {
		return Theme{}, false
	}
	return themes[i], true
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// GetCurrentTUITheme returns the form palette of the active theme.
func GetCurrentTUITheme() TUITheme {
	return GetCurrentTheme().TUI
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme called name. The active theme is left
// unchanged when name is unknown.
func SetTheme(name string) error {
	t, ok := LookupTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (accepted values: %s)", name, strings.Join(ThemeNames(), ", "))
	}
	SetCurrentTheme(t)
	return nil
}

// InitTheme selects the theme at startup. noColor and the NO_COLOR
// environment variable (https://no-color.org/) win over name; an empty name
// selects DefaultThemeName.
func InitTheme(name string, noColor bool) error {
	if noColor {
		SetCurrentTheme(NoColorTheme)
		return nil
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		SetCurrentTheme(NoColorTheme)
		return nil
	}
	if name == "" {
		name = DefaultThemeName
	}
	return SetTheme(name)
}
