package scanerrors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorRecord(t *testing.T) {
	err := Validation(errors.New("the path /x is not a valid directory"))

	rec := err.Record()
	assert.Equal(t, ExitValidation, rec.ExitCode)
	assert.Equal(t, "validation failed: the path /x is not a valid directory", rec.ErrorMessage)
	assert.Equal(t, PhaseValidate, err.Phase)
}

func TestRuntimeErrorRecord(t *testing.T) {
	cause := errors.New(`exec: "docker": executable file not found in $PATH`)
	err := Runtime("abc", cause)

	rec := err.Record()
	assert.Equal(t, ExitRuntime, rec.ExitCode)
	assert.Contains(t, rec.ErrorMessage, "executable file not found")
	assert.ErrorIs(t, err, cause)
}

func TestRecordForPlainError(t *testing.T) {
	rec := RecordFor(errors.New("boom"))
	assert.Equal(t, ErrorRecord{ExitCode: ExitRuntime, ErrorMessage: "unexpected error: boom"}, rec)
}

func TestRecordForWrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), Validation(errors.New("bad")))
	assert.Equal(t, ExitValidation, RecordFor(wrapped).ExitCode)
}

func TestErrorRecordJSONShape(t *testing.T) {
	b, err := json.Marshal(ErrorRecord{ExitCode: 2, ErrorMessage: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"exit_code":2,"error_message":"x"}`, string(b))
}
