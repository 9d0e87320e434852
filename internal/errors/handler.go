package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the ANSI sequences used when printing errors.
// A nil provider prints plain text.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// ErrInvalidSearchInput marks a search that refused its numeric input.
// search.ErrInvalidInput wraps it.
var ErrInvalidSearchInput = errors.New("invalid numeric input")

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	var (
		configErr      ConfigError
		validationErr  ValidationError
		validationErrs ValidationErrors
		timeoutErr     TimeoutError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &configErr), errors.As(err, &validationErr), errors.As(err, &validationErrs):
		return ExitErrorConfig
	case errors.Is(err, ErrInvalidSearchInput):
		return ExitErrorInvalid
	default:
		return ExitErrorGeneric
	}
}

// HandleSearchError prints a user-facing description of err and returns the
// matching exit code. duration is the time spent before the failure.
func HandleSearchError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sStatus: Failure (Timeout). The search did not finish within the limit (%s).%s\n",
			red, duration.Round(time.Millisecond), reset)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled by user after %s.%s\n", yellow, duration.Round(time.Millisecond), reset)
	case ExitErrorInvalid:
		fmt.Fprintf(out, "%sStatus: Invalid input. Result: NaN (%v)%s\n", red, err, reset)
	default:
		fmt.Fprintf(out, "%sStatus: Failure. %v%s\n", red, err, reset)
	}
	return code
}
