// Package cli provides the command-line presentation of narrowfind: the
// output sink, the sweep progress display, result presentation, output files,
// shell completion and the interactive REPL form.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/narrowfind/internal/config"
	"github.com/agbru/narrowfind/internal/expr"
	"github.com/agbru/narrowfind/internal/form"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// Fields are the initial form values.
	Fields form.Fields
	// Timeout is the maximum duration for each search or sweep.
	Timeout time.Duration
	// Jobs bounds the concurrency of sweeps.
	Jobs int
	// Verbose prints timing details after each search.
	Verbose bool
	// OnOutcome, when set, is called after every search, including each
	// search of a sweep.
	OnOutcome func(orchestration.Outcome)
}

// REPL is an interactive, line-oriented version of the search form: the
// four fields are set one command at a time and "run" starts the search.
type REPL struct {
	config    REPLConfig
	fields    form.Fields
	presenter CLIResultPresenter
	in        io.Reader
	out       io.Writer
}

// NewREPL creates a new REPL instance reading stdin and writing stdout.
func NewREPL(cfg REPLConfig) *REPL {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	return &REPL{
		config: cfg,
		fields: cfg.Fields,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Fields returns the current form values.
func (r *REPL) Fields() form.Fields {
	return r.fields
}

// Start runs the session until "exit", end of input or cancellation of ctx.
// A read error ends the session.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)

	for ctx.Err() == nil {
		fmt.Fprint(r.out, ui.ColorGreen()+"find> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && input != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(r.out, "\n%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.processCommand(ctx, input) {
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s        %sF(x) = 0 narrowing search - Interactive Mode%s      %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sgroup <n>%s          - Set the group position (1-100)\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sleft <x>%s           - Set the left bound\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sright <x>%s          - Set the right bound\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %stol <e>%s            - Set the tolerance\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sset <n> <a> <b> <e>%s - Set all four fields\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %srun%s                - Search with the current fields\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sexpr [n]%s           - Show F for a group position\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %seval <x>%s           - Evaluate F(x) for the current group\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %ssweep <from:to>%s    - Search every group position in a range\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sstatus%s             - Display the current fields\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %shelp%s               - Display this help\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s        - Exit interactive mode\n", ui.ColorYellow(), ui.ColorReset(), ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "Four numbers on one line set all fields and run the search.\n")
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "group", "g":
		r.cmdSet(&r.fields.GroupPos, "group", args)
	case "left", "a":
		r.cmdSet(&r.fields.LeftBound, "left", args)
	case "right", "b":
		r.cmdSet(&r.fields.RightBound, "right", args)
	case "tol", "tolerance", "precision", "e":
		r.cmdSet(&r.fields.Tolerance, "tol", args)
	case "set":
		r.cmdSetAll(ctx, args, false)
	case "run", "find", "r":
		r.run(ctx)
	case "expr", "x":
		r.cmdExpr(args)
	case "eval":
		r.cmdEval(args)
	case "sweep", "sw":
		r.cmdSweep(ctx, args)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if len(parts) == 4 {
			r.cmdSetAll(ctx, parts, true)
			return true
		}
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}

	return true
}

// cmdSet stores a raw field value. Values are only validated on run.
func (r *REPL) cmdSet(field *string, name string, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: %s <value>%s\n", ui.ColorRed(), name, ui.ColorReset())
		return
	}
	*field = args[0]
}

func (r *REPL) cmdSetAll(ctx context.Context, args []string, run bool) {
	if len(args) != 4 {
		fmt.Fprintf(r.out, "%sUsage: set <group> <left> <right> <tolerance>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	r.fields = form.Fields{GroupPos: args[0], LeftBound: args[1], RightBound: args[2], Tolerance: args[3]}
	if run {
		r.run(ctx)
	}
}

// run validates the current fields and searches.
func (r *REPL) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	sink := NewWriterSink(r.out, false)
	o := orchestration.Execute(ctx, r.fields, sink)
	r.record(o)

	switch {
	case o.Err == nil:
		r.presenter.PresentOutcome(o, r.config.Verbose, r.out)
	case !o.Report.OK():
		// Already printed as "Error:" lines.
	default:
		r.presenter.HandleError(o.Err, o.Duration, r.out)
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdExpr(args []string) {
	raw := r.fields.GroupPos
	if len(args) > 0 {
		raw = args[0]
	}
	g, err := form.ParseGroupPos(raw)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %s%s\n", ui.ColorRed(), form.MsgGroupPos, ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "F%d(x) = %s%s%s\n", g, ui.ColorBlue(), expr.FormatExpression(g), ui.ColorReset())
}

func (r *REPL) cmdEval(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: eval <x>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	g, err := form.ParseGroupPos(r.fields.GroupPos)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %s%s\n", ui.ColorRed(), form.MsgGroupPos, ui.ColorReset())
		return
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "F%d(%g) = %s%.10f%s\n", g, x, ui.ColorCyan(), expr.Evaluate(g, x), ui.ColorReset())
}

func (r *REPL) cmdSweep(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: sweep <from:to>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	from, to, err := config.ParseSweep(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "%s%v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req := orchestration.SweepRequest{
		From: from, To: to,
		Left: r.fields.LeftBound, Right: r.fields.RightBound, Tolerance: r.fields.Tolerance,
		Jobs: r.config.Jobs,
	}
	outcomes, err := orchestration.ExecuteSweep(ctx, req, CLIProgressReporter{}, r.out)
	for _, o := range outcomes {
		r.record(o)
	}
	r.presenter.PresentSweep(outcomes, r.out)
	if err != nil {
		fmt.Fprintf(r.out, "%sSweep interrupted: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent fields:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Group position: %s%s%s\n", ui.ColorCyan(), r.fields.GroupPos, ui.ColorReset())
	fmt.Fprintf(r.out, "  Left bound:     %s%s%s\n", ui.ColorCyan(), r.fields.LeftBound, ui.ColorReset())
	fmt.Fprintf(r.out, "  Right bound:    %s%s%s\n", ui.ColorCyan(), r.fields.RightBound, ui.ColorReset())
	fmt.Fprintf(r.out, "  Tolerance:      %s%s%s\n", ui.ColorCyan(), r.fields.Tolerance, ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:        %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	fmt.Fprintln(r.out)
}

func (r *REPL) record(o orchestration.Outcome) {
	if r.config.OnOutcome != nil {
		r.config.OnOutcome(o)
	}
}
