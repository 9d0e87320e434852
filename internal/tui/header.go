package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/narrowfind/internal/format"
)

// HeaderModel renders the top bar: title, version and the duration of the
// last search.
type HeaderModel struct {
	version  string
	last     time.Duration
	searched bool
	width    int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{version: version}
}

// SetLast records the duration of the last search.
func (h *HeaderModel) SetLast(d time.Duration) {
	h.last = d
	h.searched = true
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "narrowfind F(x) = 0"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	row := titleStyle.Render(titleText)

	if h.searched {
		row += versionStyle.Render(" | ") +
			elapsedStyle.Render(fmt.Sprintf("Last search: %s", format.FormatExecutionDuration(h.last)))
	}

	gap := max(h.width-2-lipgloss.Width(row), 0)
	return headerStyle.Render(row + strings.Repeat(" ", gap))
}
