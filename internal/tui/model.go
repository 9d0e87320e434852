// Package tui implements the interactive terminal form: four text fields, a
// Find action and a scrolling output log, built on bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/narrowfind/internal/cli"
	"github.com/agbru/narrowfind/internal/config"
	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/orchestration"
)

// Form fields, in focus order.
const (
	fieldGroup = iota
	fieldLeft
	fieldRight
	fieldTolerance
	fieldCount
)

var fieldLabels = [fieldCount]string{"Group position", "Left bound", "Right bound", "Precision"}

// Layout constants for the search form.
const (
	labelWidth    = 16
	inputWidth    = 24
	headerHeight  = 1
	formHeight    = fieldCount + 2
	statusHeight  = 1
	footerHeight  = 1
	panelBorders  = 2
	minLogHeight  = 3
	minPanelWidth = 20
)

// maxLogLines caps the output panel. Once full, the oldest step line is
// dropped for each new line; the lines above the first step stay.
const maxLogLines = 500

// Model is the root bubbletea model of the search form.
type Model struct {
	header HeaderModel
	inputs [fieldCount]textinput.Model
	focus  int
	output viewport.Model
	lines  []string
	styled []string
	help   help.Model
	keymap KeyMap

	ctx       context.Context
	cancel    context.CancelFunc
	parentCtx context.Context
	timeout   time.Duration
	onOutcome func(orchestration.Outcome)
	send      func(tea.Msg)
	ref       *programRef

	generation uint64
	running    bool
	status     string
	statusErr  bool
	exitCode   int

	width  int
	height int
}

// NewModel creates the form with the search fields of cfg. onOutcome, when
// set, is called from the search goroutine after every search.
func NewModel(parentCtx context.Context, cfg config.AppConfig, version string, onOutcome func(orchestration.Outcome)) Model {
	ctx, cancel := context.WithCancel(parentCtx)
	ref := &programRef{}

	initial := [fieldCount]string{cfg.Group, cfg.Left, cfg.Right, cfg.Tolerance}
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.Width = inputWidth
		ti.SetValue(initial[i])
		inputs[i] = ti
	}
	inputs[fieldGroup].Focus()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	return Model{
		header:    NewHeaderModel(version),
		inputs:    inputs,
		output:    viewport.New(minPanelWidth, minLogHeight),
		help:      help.New(),
		keymap:    DefaultKeyMap(),
		ctx:       ctx,
		cancel:    cancel,
		parentCtx: parentCtx,
		timeout:   timeout,
		onOutcome: onOutcome,
		send:      ref.Send,
		ref:       ref,
		status:    "Fill in the fields and press enter.",
		exitCode:  apperrors.ExitSuccess,
	}
}

// Fields returns the current text of the four fields.
func (m Model) Fields() form.Fields {
	return form.Fields{
		GroupPos:   m.inputs[fieldGroup].Value(),
		LeftBound:  m.inputs[fieldLeft].Value(),
		RightBound: m.inputs[fieldRight].Value(),
		Tolerance:  m.inputs[fieldTolerance].Value(),
	}
}

// Lines returns the lines shown in the output panel.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, watchContextCmd(m.parentCtx))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case ResetMsg:
		if msg.Generation == m.generation {
			m.setLines(nil)
		}
		return m, nil

	case LineMsg:
		if msg.Generation == m.generation {
			m.appendLine(msg.Line)
		}
		return m, nil

	case SearchDoneMsg:
		if msg.Generation != m.generation {
			return m, nil // stale message from a previous search
		}
		m.finish(msg.Outcome)
		return m, nil

	case ContextCancelledMsg:
		m.cancel()
		m.exitCode = apperrors.ExitErrorCanceled
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Run):
		return m.startSearch()

	case key.Matches(msg, m.keymap.Next):
		return m, m.setFocus((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keymap.Prev):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)

	case key.Matches(msg, m.keymap.Clear):
		m.setLines(nil)
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		m.output.SetYOffset(m.output.YOffset - 1)
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.output.SetYOffset(m.output.YOffset + 1)
		return m, nil

	case key.Matches(msg, m.keymap.PageUp):
		m.output.SetYOffset(m.output.YOffset - m.output.Height)
		return m, nil

	case key.Matches(msg, m.keymap.PageDown):
		m.output.SetYOffset(m.output.YOffset + m.output.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// startSearch launches a search of the current fields. A search already
// in progress is left to finish.
func (m Model) startSearch() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}
	m.generation++
	m.running = true
	m.status = "Searching..."
	m.statusErr = false
	return m, searchCmd(m.ctx, m.send, m.Fields(), m.timeout, m.generation, m.onOutcome)
}

// finish shows the final state of a search. The outcome is authoritative:
// it replaces whatever streamed lines arrived.
func (m *Model) finish(o orchestration.Outcome) {
	m.running = false
	m.setLines(trimLog(append(o.Report.Lines(), o.Lines...)))

	switch {
	case !o.Report.OK():
		m.status = fmt.Sprintf("Invalid input: %d field(s) rejected.", len(o.Report.Errors))
		m.statusErr = true
		return
	case errors.Is(o.Err, apperrors.ErrInvalidSearchInput):
		m.status = "Result: NaN (invalid numeric input)"
		m.statusErr = true
	case errors.Is(o.Err, context.DeadlineExceeded):
		m.status = fmt.Sprintf("Timed out after %s.", m.timeout)
		m.statusErr = true
	case o.Err != nil:
		m.status = o.Err.Error()
		m.statusErr = true
	default:
		m.status = fmt.Sprintf("x = %.10f after %d iterations.", o.Result.X, o.Result.Iterations)
		m.statusErr = false
	}
	m.header.SetLast(o.Duration)
}

func (m *Model) setLines(lines []string) {
	m.lines = lines
	m.styled = make([]string, len(lines))
	for i, l := range lines {
		m.styled[i] = styleLine(l)
	}
	m.refreshOutput()
}

// appendLine adds one streamed line, styling only that line.
func (m *Model) appendLine(line string) {
	if len(m.lines) >= maxLogLines {
		i := firstStep(m.lines)
		m.lines = slices.Delete(m.lines, i, i+1)
		m.styled = slices.Delete(m.styled, i, i+1)
	}
	m.lines = append(m.lines, line)
	m.styled = append(m.styled, styleLine(line))
	m.refreshOutput()
}

func (m *Model) refreshOutput() {
	m.output.SetContent(strings.Join(m.styled, "\n"))
	m.output.GotoBottom()
}

// trimLog drops the oldest step lines until lines fits in maxLogLines.
func trimLog(lines []string) []string {
	n := len(lines) - maxLogLines
	if n <= 0 {
		return lines
	}
	i := firstStep(lines)
	if i+n > len(lines) {
		i = 0
	}
	return append(lines[:i:i], lines[i+n:]...)
}

// firstStep returns the index of the first step line, or 0 when there is none.
func firstStep(lines []string) int {
	for i, l := range lines {
		if cli.Classify(l) == cli.LineStep {
			return i
		}
	}
	return 0
}

func styleLine(line string) string {
	switch cli.Classify(line) {
	case cli.LineResult:
		return resultLineStyle.Render(line)
	case cli.LineError:
		return errorLineStyle.Render(line)
	case cli.LineWarning:
		return warningLineStyle.Render(line)
	case cli.LineHeader:
		return headerLineStyle.Render(line)
	default:
		return stepLineStyle.Render(line)
	}
}

func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.help.Width = m.width
	m.output.Width = max(m.width-panelBorders, minPanelWidth)
	m.output.Height = max(m.height-headerHeight-formHeight-statusHeight-footerHeight-panelBorders, minLogHeight)
	m.output.GotoBottom()
}

// View renders the form.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	rows := make([]string, fieldCount)
	for i := range m.inputs {
		label := labelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = focusedLabelStyle.Render(fieldLabels[i])
		}
		rows[i] = label + m.inputs[i].View()
	}
	formPanel := focusedPanelStyle.Width(m.output.Width).Render(strings.Join(rows, "\n"))

	var status string
	switch {
	case m.running:
		status = statusRunningStyle.Render(m.status)
	case m.statusErr:
		status = statusErrorStyle.Render(m.status)
	default:
		status = statusDoneStyle.Render(m.status)
	}

	logPanel := panelStyle.Width(m.output.Width).Render(m.output.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(), formPanel, " "+status, logPanel, m.help.View(m.keymap))
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cfg config.AppConfig, version string, onOutcome func(orchestration.Outcome)) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, cfg, version, onOutcome)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so the search goroutine can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}

	if m, ok := finalModel.(Model); ok {
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// searchCmd returns a tea.Cmd that runs one search, streaming its output
// through send.
func searchCmd(ctx context.Context, send func(tea.Msg), fields form.Fields, timeout time.Duration, gen uint64, onOutcome func(orchestration.Outcome)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		o := orchestration.Execute(ctx, fields, tuiSink{send: send, gen: gen})
		if onOutcome != nil {
			onOutcome(o)
		}
		return SearchDoneMsg{Outcome: o, Generation: gen}
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}
