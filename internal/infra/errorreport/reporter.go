// Package errorreport delivers scan failures to the console, a sink file,
// the structured log and the error history.
package errorreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
)

// DefaultFile is written in the current working directory.
const DefaultFile = "error_report.json"

// Sink receives the rendered error record, replacing any previous content.
type Sink interface {
	Name() string
	Write(b []byte) error
}

// FileSink overwrites a file on every write.
type FileSink struct {
	Path string
}

func (f FileSink) Name() string { return f.Path }

func (f FileSink) Write(b []byte) error {
	return os.WriteFile(f.Path, b, 0o644)
}

// Render encodes a record with 4-space indentation.
func Render(rec scanerrors.ErrorRecord) ([]byte, error) {
	return json.MarshalIndent(rec, "", "    ")
}

// Reporter prints the record to Console and persists it to Sink.
type Reporter struct {
	Console io.Writer
	Sink    Sink
}

func New(console io.Writer, sink Sink) *Reporter {
	return &Reporter{Console: console, Sink: sink}
}

func (r *Reporter) Report(_ context.Context, e *scanerrors.Error) error {
	b, err := Render(e.Record())
	if err != nil {
		return err
	}
	fmt.Fprintln(r.Console, string(b))

	if r.Sink == nil {
		return nil
	}
	if err := r.Sink.Write(b); err != nil {
		return fmt.Errorf("write %s: %w", r.Sink.Name(), err)
	}
	fmt.Fprintf(r.Console, "Error details have been written to %s\n", r.Sink.Name())
	return nil
}

// HistoryReporter stores every failure in the scan error repository.
type HistoryReporter struct {
	Repo scanerrors.Repository
	Now  func() time.Time
}

func (h *HistoryReporter) Report(ctx context.Context, e *scanerrors.Error) error {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	rec := e.Record()
	return h.Repo.Save(ctx, &scanerrors.ScanError{
		ScanID:    e.ScanID,
		Phase:     e.Phase,
		ExitCode:  rec.ExitCode,
		Message:   rec.ErrorMessage,
		CreatedAt: now(),
	})
}

// LogReporter writes the record to a zap logger.
type LogReporter struct {
	Log *zap.Logger
}

func (l *LogReporter) Report(_ context.Context, e *scanerrors.Error) error {
	rec := e.Record()
	l.Log.Error("scan failed",
		zap.String("scan_id", e.ScanID),
		zap.String("phase", string(e.Phase)),
		zap.Int("exit_code", rec.ExitCode),
		zap.String("error_message", rec.ErrorMessage),
	)
	return nil
}

// Multi fans a failure out to every reporter and joins their errors.
type Multi []scanerrors.Reporter

func (m Multi) Report(ctx context.Context, e *scanerrors.Error) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
