package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

const scanColumns = `id, triggered_at, scan_path, report_path, image, status,
       exit_code, findings, artifact_url, analysis, duration_ms`

// Save insert/update Scan record
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO leakscan_scans
(id, triggered_at, scan_path, report_path, image, status,
 exit_code, findings, artifact_url, analysis, duration_ms)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), exit_code=VALUES(exit_code), findings=VALUES(findings),
 artifact_url=VALUES(artifact_url), analysis=VALUES(analysis), duration_ms=VALUES(duration_ms);
`
	triggered := s.TriggeredAt
	if triggered.IsZero() {
		triggered = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, triggered, s.ScanPath, s.ReportPath, stringOrDash(s.Image), stringOrDash(string(s.Status)),
		s.ExitCode, s.Findings, s.ArtifactURL, s.Analysis, s.DurationMS,
	)
	return err
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM leakscan_scans WHERE id=? LIMIT 1;`
	return scanOne(r.db.QueryRowContext(ctx, q, id))
}

// Latest scans, newest first
func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM leakscan_scans ORDER BY triggered_at DESC, id DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		s, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row rowScanner) (*domain.Scan, error) {
	var s domain.Scan
	if err := row.Scan(
		&s.ID, &s.TriggeredAt, &s.ScanPath, &s.ReportPath, &s.Image, &s.Status,
		&s.ExitCode, &s.Findings, &s.ArtifactURL, &s.Analysis, &s.DurationMS,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
