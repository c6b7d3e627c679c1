package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

const scanColumns = `id, triggered_at, scan_path, report_path, image, status,
       exit_code, findings, artifact_url, analysis, duration_ms`

// Save insert/update Scan record
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO leakscan_scans
(id, triggered_at, scan_path, report_path, image, status,
 exit_code, findings, artifact_url, analysis, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 exit_code = EXCLUDED.exit_code,
 findings = EXCLUDED.findings,
 artifact_url = EXCLUDED.artifact_url,
 analysis = EXCLUDED.analysis,
 duration_ms = EXCLUDED.duration_ms;`

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
	q := `SELECT ` + scanColumns + ` FROM leakscan_scans WHERE id=$1 LIMIT 1;`
	return scanOne(r.db.QueryRowContext(ctx, q, id))
}

// Latest scans, newest first
func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.Scan, error) {
	q := `SELECT ` + scanColumns + ` FROM leakscan_scans ORDER BY triggered_at DESC, id DESC LIMIT $1;`
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

func scanOne(row interface{ Scan(dest ...any) error }) (*domain.Scan, error) {
	var s domain.Scan
	if err := row.Scan(
		&s.ID, &s.TriggeredAt, &s.ScanPath, &s.ReportPath, &s.Image, &s.Status,
		&s.ExitCode, &s.Findings, &s.ArtifactURL, &s.Analysis, &s.DurationMS,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
