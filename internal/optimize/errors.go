package optimize

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or inconsistent model input
// (missing cost-schedule entry, budget <= 0, dangling well reference).
// It is always surfaced before any solve attempt and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid optimization input: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DuplicateAssignmentError reports an override edit that tries to add
// a well already present in the working selection.
type DuplicateAssignmentError struct {
	WellID    string
	Existing  int // campaign currently holding the well
	Requested int // campaign the edit tried to add it to
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("well %q is already assigned to campaign %d, cannot add to campaign %d",
		e.WellID, e.Existing, e.Requested)
}

// ErrSolverUnavailable is returned when the requested solver cannot be
// instantiated. Callers may catch it and retry with a different solver
// identity; this package never retries automatically.
var ErrSolverUnavailable = errors.New("solver unavailable")
