package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS leakscan_scans (
  id           TEXT        PRIMARY KEY,
  triggered_at TIMESTAMPTZ NOT NULL,
  scan_path    TEXT        NOT NULL,
  report_path  TEXT        NOT NULL,
  image        TEXT        NOT NULL,
  status       TEXT        NOT NULL,
  exit_code    INTEGER     NOT NULL DEFAULT 0,
  findings     INTEGER     NOT NULL DEFAULT 0,
  artifact_url TEXT        NOT NULL DEFAULT '',
  analysis     TEXT        NOT NULL DEFAULT '',
  duration_ms  BIGINT      NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_leakscan_scans_triggered_at ON leakscan_scans (triggered_at);
CREATE TABLE IF NOT EXISTS leakscan_scan_errors (
  id         BIGSERIAL   PRIMARY KEY,
  scan_id    TEXT        NOT NULL,
  phase      TEXT        NOT NULL,
  exit_code  INTEGER     NOT NULL,
  message    TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leakscan_scan_errors_scan_id ON leakscan_scan_errors (scan_id);`

// Migrate creates the history tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
