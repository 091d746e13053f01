// Package kerrors defines the error kinds the core distinguishes, as
// sentinel values that callers can match with errors.Is after a wrap.
package kerrors

import "errors"

var (
	// ErrConfigInvalid signals missing or malformed configuration.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrAlreadyRunning signals a positive PID-file liveness check.
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrHookFailure signals the OS input hook could not be installed or died.
	ErrHookFailure = errors.New("input hook failure")

	// ErrStorageError wraps any failure from the embedded store.
	ErrStorageError = errors.New("storage error")

	// ErrMigrationFailure identifies a failing schema migration.
	ErrMigrationFailure = errors.New("migration failure")

	// ErrInvariantViolation signals an adjustment would break the
	// workday/pause consistency rules (at most one workday per date, no
	// overlapping pauses, pauses bounded by their workday).
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNoOpenWorkday signals `end` invoked with no workday to close.
	ErrNoOpenWorkday = errors.New("no open workday")

	// ErrRemoteUnavailable signals an external collaborator failure.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrBelowThreshold signals a `sum --send` whose productivity falls
	// below the configured minimum and was not overridden with --force.
	ErrBelowThreshold = errors.New("productivity below threshold")
)

// ExitCode maps an error returned by the facade to the process exit code
// table. A nil error maps to 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrAlreadyRunning):
		return 2
	case errors.Is(err, ErrHookFailure):
		return 3
	case errors.Is(err, ErrStorageError), errors.Is(err, ErrMigrationFailure):
		return 4
	case errors.Is(err, ErrNoOpenWorkday):
		return 5
	case errors.Is(err, ErrInvariantViolation):
		return 6
	default:
		return 1
	}
}
