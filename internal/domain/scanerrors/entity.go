package scanerrors

import "time"

// Exit codes carried in an ErrorRecord.
const (
	ExitRuntime    = 1
	ExitValidation = 2
)

// Phase in which a failure happened.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseRun      Phase = "run"
)

// ErrorRecord is the JSON document written to the console and the error sink.
// Field order is part of the output format.
type ErrorRecord struct {
	ExitCode     int    `json:"exit_code"`
	ErrorMessage string `json:"error_message"`
}

// ScanError represents a persisted scan error entry
type ScanError struct {
	ID        int64     `json:"id"`
	ScanID    string    `json:"scan_id,omitempty"`
	Phase     Phase     `json:"phase"`
	ExitCode  int       `json:"exit_code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
