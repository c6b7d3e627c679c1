package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"validation", scanerrors.Validation(errors.New("bad path")), ExitUsage},
		{"runtime", scanerrors.Runtime("id", errors.New("boom")), ExitRuntime},
		{"usage", usageError{errors.New("accepts 2 arg(s), received 1")}, ExitUsage},
		{"propagated", exitCodeError{code: 3}, 3},
		{"other", errors.New("config load error"), ExitRuntime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(nil, tt.err))
		})
	}
}

func runRoot(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	return exitCode(rootCmd.ExecuteC()), out.String()
}

func TestRootReportsInvalidDirectory(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	code, out := runRoot(t, filepath.Join(dir, "missing"), "report.json")
	assert.Equal(t, scanerrors.ExitValidation, code)
	assert.Contains(t, out, "is not a valid directory")
	assert.Contains(t, out, "Error details have been written to error_report.json")

	b, err := os.ReadFile(filepath.Join(dir, "error_report.json"))
	require.NoError(t, err)
	var rec scanerrors.ErrorRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, scanerrors.ExitValidation, rec.ExitCode)
	assert.Contains(t, rec.ErrorMessage, "is not a valid directory")
}

func TestRootReportsBadExtension(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	code, out := runRoot(t, dir, "report.txt")
	assert.Equal(t, scanerrors.ExitValidation, code)
	assert.Contains(t, out, "must end with .json")
}

func TestRootRejectsWrongArgCount(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	code, _ := runRoot(t, "only-one")
	assert.Equal(t, ExitUsage, code)
	assert.NoFileExists(t, filepath.Join(dir, "error_report.json"))
}

func TestRootReportsBadConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("database:\n  driver: sqlite\n"), 0o644))
	t.Setenv("CONFIG_PATH", cfg)

	code, out := runRoot(t, dir, "report.json")
	assert.Equal(t, scanerrors.ExitRuntime, code)
	assert.Contains(t, out, `"exit_code": 1`)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
