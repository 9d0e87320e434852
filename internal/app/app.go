// Package app wires configuration, logging, history and the front ends
// together and runs the mode selected on the command line.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/narrowfind/internal/cli"
	"github.com/agbru/narrowfind/internal/config"
	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/history"
	"github.com/agbru/narrowfind/internal/logging"
	"github.com/agbru/narrowfind/internal/orchestration"
	"github.com/agbru/narrowfind/internal/server"
	"github.com/agbru/narrowfind/internal/tui"
	"github.com/agbru/narrowfind/internal/ui"
)

// Run sources recorded in the history.
const (
	SourceCLI  = "cli"
	SourceREPL = "repl"
	SourceTUI  = "tui"
)

// Application represents the narrowfind application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	Logger    logging.Logger

	history *history.Store
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger replaces the zerolog logger built from --log-level.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}

	programName := "narrowfind"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		level := cfg.LogLevel
		if cfg.Serve && level == config.DefaultLogLevel {
			level = "info"
		}
		app.Logger = logging.NewLevelLogger(errWriter, "narrowfind", level)
	}
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	if err := ui.InitTheme(a.Config.Theme, a.Config.NoColor); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if a.Config.HistoryDB != "" {
		store, err := history.Open(a.Config.HistoryDB)
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error opening history: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		defer store.Close()
		a.history = store
	}

	a.Logger.Debug("starting", logging.String("mode", a.Config.Mode()))

	switch a.Config.Mode() {
	case "serve":
		return a.runServer(ctx)
	case "tui":
		return tui.Run(ctx, a.Config, Version, a.recorder(SourceTUI))
	case "repl":
		return a.runREPL(ctx, out)
	case "sweep":
		return a.runSweep(ctx, out)
	default:
		return a.runSearch(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runREPL starts the line-oriented form on stdin.
func (a *Application) runREPL(ctx context.Context, out io.Writer) int {
	repl := cli.NewREPL(cli.REPLConfig{
		Fields:    a.fields(),
		Timeout:   a.Config.Timeout,
		Jobs:      a.Config.Jobs,
		Verbose:   a.Config.Verbose,
		OnOutcome: a.recorder(SourceREPL),
	})
	repl.SetOutput(out)
	repl.Start(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		return apperrors.ExitErrorCanceled
	}
	return apperrors.ExitSuccess
}

// runServer serves the HTTP API until ctx is cancelled.
func (a *Application) runServer(ctx context.Context) int {
	var store server.RunStore
	if a.history != nil {
		store = a.history
	}
	srv := server.New(server.Config{
		Addr:     a.Config.Addr,
		Rate:     a.Config.Rate,
		Timeout:  a.Config.Timeout,
		Security: server.DefaultSecurityConfig(),
		Version:  Version,
	}, a.Logger, store)

	if err := srv.ListenAndServe(ctx); err != nil {
		a.Logger.Error("server stopped", err, logging.String("addr", a.Config.Addr))
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// recorder returns the callback saving outcomes to the history, or nil when
// the history is disabled. Saving never fails a search.
func (a *Application) recorder(source string) func(orchestration.Outcome) {
	if a.history == nil {
		return nil
	}
	return func(o orchestration.Outcome) {
		run, ok := history.FromOutcome(o, source)
		if !ok {
			return
		}
		if err := a.history.Save(context.Background(), run); err != nil {
			a.Logger.Warn("history save failed", logging.String("id", run.ID), logging.Err(err))
		}
	}
}

func (a *Application) record(source string, outcomes ...orchestration.Outcome) {
	rec := a.recorder(source)
	if rec == nil {
		return
	}
	for _, o := range outcomes {
		rec(o)
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
