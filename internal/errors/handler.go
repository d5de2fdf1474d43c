package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the escape sequences used when rendering errors.
// A nil provider renders plain text.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

type plainColors struct{}

func (plainColors) Red() string    { return "" }
func (plainColors) Yellow() string { return "" }
func (plainColors) Reset() string  { return "" }

// ExitCodeFor maps an error to the process exit code without printing anything.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.Is(err, ErrWorkerFailure):
		return ExitErrorWorker
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidArgument):
		return ExitErrorConfig
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return ExitErrorConfig
	}
	return ExitErrorGeneric
}

// HandleCalculationError prints a user-facing description of err and returns
// the matching exit code. It returns ExitSuccess for a nil error.
//
// Parameters:
//   - err: The error returned by a counting run.
//   - duration: How long the run lasted before failing (0 if unknown).
//   - out: The writer for the message.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The exit code.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = plainColors{}
	}
	suffix := ""
	if duration > 0 {
		suffix = fmt.Sprintf(" after %s", duration.Round(time.Microsecond))
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sStatus: Timeout%s. The count did not finish within the limit%s.\n", colors.Yellow(), colors.Reset(), suffix)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s%s.\n", colors.Yellow(), colors.Reset(), suffix)
	case ExitErrorWorker:
		fmt.Fprintf(out, "%sStatus: Worker failure%s%s: %v\n", colors.Red(), colors.Reset(), suffix, err)
	default:
		fmt.Fprintf(out, "%sStatus: Failure%s%s: %v\n", colors.Red(), colors.Reset(), suffix, err)
	}
	return code
}
