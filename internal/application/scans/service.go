package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/leakscan/internal/application"
	"github.com/bryanwahyu/leakscan/internal/domain/ai"
	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

// Service implements the scan use case.
// Runner, Console and Log are required; Reporter, Repo, Errors, Artifacts and
// Triage are optional and skipped when nil.
// Service is safe for concurrent use when its collaborators are.
type Service struct {
	Runner    domain.Runner
	Reporter  scanerrors.Reporter
	Repo      domain.Repository
	Errors    scanerrors.Repository
	Artifacts domain.ArtifactStore
	Triage    ai.Client
	Clock     application.Clock
	Console   io.Writer
	Log       *zap.Logger
	// Image is recorded on each scan for history.
	Image string
}

// ExecuteCommand untuk menjalankan scan
type ExecuteCommand struct {
	ID         string
	ScanPath   string
	ReportPath string
}

// Execute validates the command, runs the scanner and relays its output.
// Every failure is reported through Reporter before being returned as a
// *scanerrors.Error.
func (s *Service) Execute(ctx context.Context, cmd ExecuteCommand) (*domain.Scan, error) {
	req, err := s.Validate(ctx, cmd.ScanPath, cmd.ReportPath)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, cmd.ID, req)
}

// Validate checks the inputs and reports a validation failure.
func (s *Service) Validate(ctx context.Context, scanPath, reportPath string) (domain.ScanRequest, error) {
	req, err := domain.Validate(scanPath, reportPath)
	if err != nil {
		se := scanerrors.Validation(err)
		s.report(ctx, se)
		return domain.ScanRequest{}, se
	}
	return req, nil
}

// Run invokes the scanner once for a validated request. A non-zero scanner
// exit is recorded on the scan, not returned as an error.
func (s *Service) Run(ctx context.Context, id string, req domain.ScanRequest) (*domain.Scan, error) {
	fmt.Fprintf(s.Console, "Valid input: %s\n", req)

	if id == "" {
		id = uuid.New().String()
	}
	scan := &domain.Scan{
		ID:          domain.ScanID(id),
		TriggeredAt: s.now(),
		ScanPath:    req.ScanPath,
		ReportPath:  req.ReportPath,
		Image:       s.Image,
		Status:      domain.StatusRunning,
	}
	s.save(ctx, scan)

	before := statReport(LocalReportPath(scan))
	res, err := safeRun(ctx, s.Runner, domain.RunRequest{ScanPath: req.ScanPath, ReportPath: req.ReportPath})
	if err != nil {
		scan.Status = domain.StatusError
		s.save(ctx, scan)
		se := scanerrors.Runtime(id, err)
		s.report(ctx, se)
		return scan, se
	}

	fmt.Fprintln(s.Console, string(res.Stdout))
	if len(res.Stderr) > 0 {
		fmt.Fprintf(s.Console, "Error/Warning output: %s\n", res.Stderr)
	}

	scan.ExitCode = res.ExitCode
	scan.Status = domain.StatusFromExit(res.ExitCode)
	scan.DurationMS = res.DurationMS
	if res.ExitCode != 0 {
		s.Log.Warn("scanner exited non-zero",
			zap.String("scan_id", id),
			zap.Int("exit_code", res.ExitCode),
		)
	}

	s.enrich(ctx, scan, before)
	s.save(ctx, scan)

	s.Log.Info("scan finished",
		zap.String("scan_id", id),
		zap.String("status", string(scan.Status)),
		zap.Int("findings", scan.Findings),
		zap.Int64("duration_ms", scan.DurationMS),
	)
	return scan, nil
}

// LocalReportPath is where the scanner's report lands on the host: the
// report path is relative to the scan directory.
func LocalReportPath(scan *domain.Scan) string {
	return filepath.Join(scan.ScanPath, scan.ReportPath)
}

// reportStamp identifies a report file on disk.
type reportStamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func statReport(path string) reportStamp {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return reportStamp{}
	}
	return reportStamp{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// writtenSince reports whether the file changed after prev was taken.
func (r reportStamp) writtenSince(prev reportStamp) bool {
	if !r.exists {
		return false
	}
	return !prev.exists || !r.modTime.Equal(prev.modTime) || r.size != prev.size
}

// enrich runs the optional post-scan steps on the report this run wrote.
// Their failures are logged only.
func (s *Service) enrich(ctx context.Context, scan *domain.Scan, before reportStamp) {
	if !filepath.IsLocal(scan.ReportPath) {
		// gitleaks and the host disagree on where such a report lands
		s.Log.Warn("report path is outside the scan directory, skipping report processing",
			zap.String("scan_id", string(scan.ID)),
			zap.String("report_path", scan.ReportPath),
		)
		return
	}
	local := LocalReportPath(scan)
	if !statReport(local).writtenSince(before) {
		s.Log.Debug("scanner wrote no report this run", zap.String("path", local))
		return
	}

	findings, err := domain.ReadFindings(local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Log.Debug("no scanner report on disk", zap.String("path", local))
		} else {
			s.Log.Warn("cannot read scanner report", zap.String("path", local), zap.Error(err))
		}
		return
	}
	scan.Findings = len(findings)

	if s.Artifacts != nil {
		key := fmt.Sprintf("scans/%s/%s", scan.ID, filepath.Base(local))
		url, err := s.Artifacts.Upload(ctx, local, key)
		if err != nil {
			s.Log.Warn("artifact upload failed", zap.String("key", key), zap.Error(err))
		} else {
			scan.ArtifactURL = url
		}
	}

	if s.Triage != nil && len(findings) > 0 {
		payload, err := json.Marshal(struct {
			Rules    []domain.RuleCount `json:"rules"`
			Findings []domain.Finding   `json:"findings"`
		}{domain.CountByRule(findings), domain.Redact(findings)})
		if err != nil {
			s.Log.Warn("cannot encode findings for triage", zap.Error(err))
			return
		}
		analysis, err := s.Triage.Triage(ctx, string(payload))
		switch {
		case errors.Is(err, ai.ErrQuotaExceeded):
			s.Log.Warn("triage skipped, quota exceeded")
		case err != nil:
			s.Log.Warn("triage failed", zap.Error(err))
		default:
			scan.Analysis = analysis
			fmt.Fprintf(s.Console, "Triage:\n%s\n", analysis)
		}
	}
}

func (s *Service) save(ctx context.Context, scan *domain.Scan) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.Save(ctx, scan); err != nil {
		s.Log.Warn("cannot save scan history", zap.String("scan_id", string(scan.ID)), zap.Error(err))
	}
}

func (s *Service) report(ctx context.Context, se *scanerrors.Error) {
	if s.Reporter == nil {
		return
	}
	if err := s.Reporter.Report(ctx, se); err != nil {
		s.Log.Error("cannot report scan error", zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// Latest ambil N scan terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Scan, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	return s.Repo.Latest(ctx, limit)
}

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	return s.Repo.Get(ctx, id)
}

// ErrorsFor lists the recorded failures of one scan.
func (s *Service) ErrorsFor(ctx context.Context, id domain.ScanID, limit int) ([]*scanerrors.ScanError, error) {
	if s.Errors == nil {
		return nil, ErrNoHistory
	}
	return s.Errors.ListByScan(ctx, string(id), limit)
}

// ErrNoHistory is returned by queries when no repository is configured.
var ErrNoHistory = errors.New("scan history is not configured")
