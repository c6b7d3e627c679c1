package scans

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsDirectoryAndJSONReport(t *testing.T) {
	dir := t.TempDir()

	req, err := Validate(dir, "out.json")
	require.NoError(t, err)
	assert.Equal(t, ScanRequest{ScanPath: dir, ReportPath: "out.json"}, req)
}

func TestValidateRejectsMissingDirectory(t *testing.T) {
	_, err := Validate("/does/not/exist", "out.json")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, InvalidPath, verr.Reason)
	assert.Contains(t, err.Error(), "is not a valid directory")
	assert.Contains(t, err.Error(), "/does/not/exist")
}

func TestValidateRejectsRegularFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Validate(file, "out.json")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, InvalidPath, verr.Reason)
}

func TestValidateRejectsReportExtension(t *testing.T) {
	dir := t.TempDir()
	for _, report := range []string{"", "out.txt", "out.JSON", "out.jsonx", "json"} {
		t.Run(report, func(t *testing.T) {
			_, err := Validate(dir, report)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, InvalidExtension, verr.Reason)
			assert.Contains(t, err.Error(), "must end with .json")
		})
	}
}

func TestValidateChecksPathBeforeExtension(t *testing.T) {
	_, err := Validate("/does/not/exist", "out.txt")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, InvalidPath, verr.Reason)
}

func TestValidateIsRepeatable(t *testing.T) {
	dir := t.TempDir()

	first, err1 := Validate(dir, "nested/report.json")
	second, err2 := Validate(dir, "nested/report.json")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	_, err1 = Validate(dir, "out.txt")
	_, err2 = Validate(dir, "out.txt")
	assert.Equal(t, err1.Error(), err2.Error())
}
