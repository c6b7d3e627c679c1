package main

import "github.com/bryanwahyu/leakscan/internal/domain/scanerrors"

// Process exit codes. Failures exit with the exit_code of their error record.
const (
	ExitSuccess = 0
	ExitRuntime = scanerrors.ExitRuntime    // unexpected runtime error
	ExitUsage   = scanerrors.ExitValidation // bad arguments or invalid input
)

// usageError marks argument and flag parsing failures.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCodeError asks main to exit with code without printing anything.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return "exit status propagated from scanner" }
