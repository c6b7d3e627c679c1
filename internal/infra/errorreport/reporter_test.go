package errorreport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
)

type memorySink struct {
	data []byte
	err  error
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Write(b []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), b...)
	return nil
}

func TestReporterWritesConsoleAndSink(t *testing.T) {
	var console bytes.Buffer
	sink := &memorySink{}
	r := New(&console, sink)

	err := r.Report(context.Background(), scanerrors.Validation(errors.New("the report file must end with .json")))
	require.NoError(t, err)

	want := "{\n    \"exit_code\": 2,\n    \"error_message\": \"validation failed: the report file must end with .json\"\n}"
	assert.Equal(t, want, string(sink.data))
	assert.Equal(t, want+"\nError details have been written to memory\n", console.String())
}

func TestReporterSinkRoundTrip(t *testing.T) {
	sink := &memorySink{}
	r := New(&bytes.Buffer{}, sink)
	require.NoError(t, r.Report(context.Background(), scanerrors.Runtime("", errors.New("boom"))))

	var got map[string]any
	require.NoError(t, json.Unmarshal(sink.data, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, float64(1), got["exit_code"])
	assert.Equal(t, "unexpected error: boom", got["error_message"])
}

func TestReporterReturnsSinkFailure(t *testing.T) {
	var console bytes.Buffer
	r := New(&console, &memorySink{err: errors.New("disk full")})

	err := r.Report(context.Background(), scanerrors.Runtime("", errors.New("boom")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, console.String(), `"exit_code": 1`)
	assert.NotContains(t, console.String(), "have been written")
}

func TestFileSinkOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("previous content that is longer"), 0o644))

	sink := FileSink{Path: path}
	require.NoError(t, sink.Write([]byte("{}")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

type fakeRepo struct {
	saved []*scanerrors.ScanError
}

func (f *fakeRepo) Save(_ context.Context, e *scanerrors.ScanError) error {
	f.saved = append(f.saved, e)
	return nil
}

func (f *fakeRepo) ListByScan(context.Context, string, int) ([]*scanerrors.ScanError, error) {
	return f.saved, nil
}

func TestHistoryReporter(t *testing.T) {
	repo := &fakeRepo{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h := &HistoryReporter{Repo: repo, Now: func() time.Time { return now }}

	require.NoError(t, h.Report(context.Background(), scanerrors.Runtime("scan-1", errors.New("boom"))))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, &scanerrors.ScanError{
		ScanID:    "scan-1",
		Phase:     scanerrors.PhaseRun,
		ExitCode:  1,
		Message:   "unexpected error: boom",
		CreatedAt: now,
	}, repo.saved[0])
}

func TestMultiJoinsErrorsAndKeepsGoing(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := New(&bytes.Buffer{}, &memorySink{err: errors.New("disk full")})
	m := Multi{failing, nil, &LogReporter{Log: zap.New(core)}}

	err := m.Report(context.Background(), scanerrors.Validation(errors.New("bad")))
	require.Error(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "scan failed", logs.All()[0].Message)
}
