package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id           VARCHAR(36)  NOT NULL PRIMARY KEY,
  triggered_at DATETIME(3)  NOT NULL,
  scan_path    TEXT         NOT NULL,
  report_path  TEXT         NOT NULL,
  image        VARCHAR(255) NOT NULL,
  status       VARCHAR(16)  NOT NULL,
  exit_code    INT          NOT NULL DEFAULT 0,
  findings     INT          NOT NULL DEFAULT 0,
  artifact_url TEXT         NOT NULL,
  analysis     MEDIUMTEXT   NOT NULL,
  duration_ms  BIGINT       NOT NULL DEFAULT 0,
  KEY idx_triggered_at (triggered_at)
);
CREATE TABLE IF NOT EXISTS leakscan_scan_errors (
  id         BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
  scan_id    VARCHAR(36)  NOT NULL,
  phase      VARCHAR(16)  NOT NULL,
  exit_code  INT          NOT NULL,
  message    TEXT         NOT NULL,
  created_at DATETIME(3)  NOT NULL,
  KEY idx_scan_id (scan_id)
);`

// Migrate creates the history tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
