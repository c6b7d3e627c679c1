package scanerrors

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced to the user.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRuntime    Kind = "runtime"
)

// Error is returned by the scan use case for every failure that produced an
// ErrorRecord.
type Error struct {
	Kind   Kind
	Phase  Phase
	ScanID string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return "validation failed: " + e.Err.Error()
	default:
		return "unexpected error: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode is the conventional exit code for the error kind.
func (e *Error) ExitCode() int {
	if e.Kind == KindValidation {
		return ExitValidation
	}
	return ExitRuntime
}

// Record renders the error as an ErrorRecord.
func (e *Error) Record() ErrorRecord {
	return ErrorRecord{ExitCode: e.ExitCode(), ErrorMessage: e.Error()}
}

// Validation wraps a rejected scan request.
func Validation(err error) *Error {
	return &Error{Kind: KindValidation, Phase: PhaseValidate, Err: err}
}

// Runtime wraps a failure to launch or talk to the scanner.
func Runtime(scanID string, err error) *Error {
	return &Error{Kind: KindRuntime, Phase: PhaseRun, ScanID: scanID, Err: err}
}

// RecordFor converts any error into an ErrorRecord. Errors that are not
// *Error are treated as runtime failures.
func RecordFor(err error) ErrorRecord {
	var se *Error
	if errors.As(err, &se) {
		return se.Record()
	}
	return ErrorRecord{ExitCode: ExitRuntime, ErrorMessage: fmt.Sprintf("unexpected error: %v", err)}
}
