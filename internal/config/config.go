// Package config handles the application's configuration, parsing command-line
// flags, environment variables and an optional TOML file into AppConfig.
//
// Priority, highest first: CLI flags, NARROWFIND_ environment variables, the
// TOML file, built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/narrowfind/internal/errors"
	"github.com/agbru/narrowfind/internal/ui"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "NARROWFIND_"

// DefaultConfigFile is looked up in the working directory when --config is
// not given. Its absence is not an error.
const DefaultConfigFile = ".narrowfind.toml"

// Defaults.
const (
	DefaultGroup     = "1"
	DefaultLeft      = "0"
	DefaultRight     = "10"
	DefaultTolerance = "0.0001"
	DefaultTimeout   = 30 * time.Second
	DefaultAddr      = ":8080"
	DefaultRate      = 10.0
	DefaultLogLevel  = "warn"
)

// Group position bounds accepted by --sweep.
const (
	minSweepGroup = 1
	maxSweepGroup = 100
)

var logLevels = []string{"debug", "info", "warn", "error", "disabled"}

var completionShells = []string{"bash", "zsh", "fish", "powershell", "ps"}

// AppConfig aggregates the application's configuration parameters.
//
// The four search fields are kept as raw text so that form validation can
// report them exactly as typed.
type AppConfig struct {
	// Group is the group position, 1 to 100.
	Group string
	// Left and Right are the interval bounds.
	Left, Right string
	// Tolerance is the stopping width.
	Tolerance string

	// Quiet prints only the result line.
	Quiet bool
	// Verbose adds timing details after the result.
	Verbose bool
	// NoColor disables ANSI colours.
	NoColor bool
	// Theme names the colour theme (dark, light, orange, none).
	Theme string
	// OutputFile receives a copy of the progress log.
	OutputFile string

	// TUI starts the interactive terminal form.
	TUI bool
	// REPL starts the line-oriented interactive form.
	REPL bool
	// Sweep is a FROM:TO range of group positions searched concurrently.
	Sweep string
	// SweepFrom and SweepTo are filled by Validate from Sweep.
	SweepFrom, SweepTo int
	// Jobs bounds the number of concurrent sweep searches.
	Jobs int

	// Serve starts the HTTP API.
	Serve bool
	// Addr is the listen address of the HTTP API.
	Addr string
	// Rate is the accepted request rate per second of the HTTP API.
	Rate float64

	// Timeout bounds a single search or sweep.
	Timeout time.Duration
	// HistoryDB is the path of the SQLite run history. Empty disables it.
	HistoryDB string
	// LogLevel is one of debug, info, warn, error, disabled.
	LogLevel string

	// Completion names the shell to print a completion script for.
	Completion string
	// ConfigFile is the TOML file that was loaded, if any.
	ConfigFile string
	// ShowVersion prints the version and exits.
	ShowVersion bool
}

// Defaults returns the configuration used when nothing else is given.
func Defaults() AppConfig {
	return AppConfig{
		Group:     DefaultGroup,
		Left:      DefaultLeft,
		Right:     DefaultRight,
		Tolerance: DefaultTolerance,
		Jobs:      runtime.NumCPU(),
		Addr:      DefaultAddr,
		Rate:      DefaultRate,
		Timeout:   DefaultTimeout,
		LogLevel:  DefaultLogLevel,
		Theme:     ui.DefaultThemeName,
	}
}

// Mode reports which front end the configuration selects.
func (c AppConfig) Mode() string {
	switch {
	case c.Completion != "":
		return "completion"
	case c.Serve:
		return "serve"
	case c.TUI:
		return "tui"
	case c.REPL:
		return "repl"
	case c.Sweep != "":
		return "sweep"
	default:
		return "search"
	}
}

// ParseConfig parses the command-line arguments, then applies the TOML file
// and the environment to every flag that was not set explicitly.
//
// Parameters:
//   - programName: The name of the program, used in usage messages.
//   - args: The command-line arguments without the program name.
//   - errorWriter: The writer that receives usage and parse errors.
//
// Returns:
//   - AppConfig: The validated configuration.
//   - error: flag.ErrHelp when help was requested, or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.Usage = func() {
		fmt.Fprintf(errorWriter, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errorWriter, "Searches for x where F(x) = 0 by narrowing an interval.")
		fmt.Fprintln(errorWriter, "\nOptions:")
		fs.PrintDefaults()
	}

	config := Defaults()
	fs.StringVar(&config.Group, "group", config.Group, "Group position selecting F (1-100).")
	fs.StringVar(&config.Group, "g", config.Group, "Group position (shorthand).")
	fs.StringVar(&config.Left, "left", config.Left, "Left bound of the interval.")
	fs.StringVar(&config.Left, "a", config.Left, "Left bound (shorthand).")
	fs.StringVar(&config.Right, "right", config.Right, "Right bound of the interval.")
	fs.StringVar(&config.Right, "b", config.Right, "Right bound (shorthand).")
	fs.StringVar(&config.Tolerance, "tolerance", config.Tolerance, "Stop once the interval width is no greater than this.")
	fs.StringVar(&config.Tolerance, "e", config.Tolerance, "Tolerance (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the result line.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "verbose", false, "Print timing details.")
	fs.BoolVar(&config.Verbose, "v", false, "Verbose mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colour output.")
	fs.StringVar(&config.Theme, "theme", config.Theme, "Colour theme ("+strings.Join(ui.ThemeNames(), ", ")+").")
	fs.StringVar(&config.OutputFile, "output", "", "Write the progress log to this file.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file (shorthand).")
	fs.BoolVar(&config.TUI, "tui", false, "Start the interactive terminal form.")
	fs.BoolVar(&config.REPL, "repl", false, "Start the line-oriented interactive form.")
	fs.StringVar(&config.Sweep, "sweep", "", "Search every group position in FROM:TO concurrently.")
	fs.IntVar(&config.Jobs, "jobs", config.Jobs, "Maximum concurrent searches during a sweep.")
	fs.BoolVar(&config.Serve, "serve", false, "Start the HTTP API.")
	fs.StringVar(&config.Addr, "addr", config.Addr, "Listen address of the HTTP API.")
	fs.Float64Var(&config.Rate, "rate", config.Rate, "Accepted HTTP requests per second.")
	fs.DurationVar(&config.Timeout, "timeout", config.Timeout, "Maximum time for a search or a sweep.")
	fs.StringVar(&config.HistoryDB, "history", "", "SQLite file recording every run.")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error, disabled).")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script (bash, zsh, fish, powershell).")
	fs.StringVar(&config.ConfigFile, "config", "", "TOML configuration file (default "+DefaultConfigFile+" if present).")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version information.")
	fs.BoolVar(&config.ShowVersion, "V", false, "Show version information (shorthand).")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("parsing flags: %v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := applyFileConfig(&config, fs); err != nil {
		return AppConfig{}, err
	}
	applyEnvOverrides(&config, fs)

	if err := config.Validate(); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}

// Validate checks the configuration for semantic consistency. It does not
// check the four search fields; form validation reports those.
//
// Returns:
//   - error: A ConfigError describing the first problem found, or nil.
func (c *AppConfig) Validate() error {
	modes := 0
	for _, on := range []bool{c.TUI, c.REPL, c.Serve, c.Sweep != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return apperrors.NewConfigError("--tui, --repl, --serve and --sweep are mutually exclusive")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Jobs < 1 {
		return apperrors.NewConfigError("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.Rate <= 0 {
		return apperrors.NewConfigError("rate must be strictly positive, got %v", c.Rate)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return apperrors.NewConfigError("unknown log level %q (accepted values: %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if _, ok := ui.LookupTheme(c.Theme); !ok {
		return apperrors.NewConfigError("unknown theme %q (accepted values: %s)", c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	if c.Completion != "" && !slices.Contains(completionShells, c.Completion) {
		return apperrors.NewConfigError("unsupported shell %q (accepted values: bash, zsh, fish, powershell)", c.Completion)
	}
	if c.Sweep != "" {
		from, to, err := ParseSweep(c.Sweep)
		if err != nil {
			return err
		}
		c.SweepFrom, c.SweepTo = from, to
	}
	return nil
}

// ParseSweep parses a FROM:TO group position range. A single number N is
// read as N:N.
func ParseSweep(s string) (from, to int, err error) {
	left, right, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		right = left
	}
	from, errFrom := strconv.Atoi(strings.TrimSpace(left))
	to, errTo := strconv.Atoi(strings.TrimSpace(right))
	if errFrom != nil || errTo != nil {
		return 0, 0, apperrors.NewConfigError("invalid sweep range %q, expected FROM:TO", s)
	}
	if from < minSweepGroup || to > maxSweepGroup || from > to {
		return 0, 0, apperrors.NewConfigError("sweep range %q must satisfy %d <= FROM <= TO <= %d", s, minSweepGroup, maxSweepGroup)
	}
	return from, to, nil
}
