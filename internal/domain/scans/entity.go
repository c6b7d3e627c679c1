package scans

import (
	"time"
)

// ID tipe untuk Scan
type ScanID string

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Aggregate Root: Scan
type Scan struct {
	ID          ScanID    `json:"id"`
	TriggeredAt time.Time `json:"triggered_at"`
	ScanPath    string    `json:"scan_path"`
	ReportPath  string    `json:"report_path"`
	Image       string    `json:"image"`
	Status      Status    `json:"status"`
	ExitCode    int       `json:"exit_code"`
	Findings    int       `json:"findings"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	Analysis    string    `json:"analysis,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
}

// StatusFromExit maps the scanner's exit code onto a scan status.
// gitleaks exits non-zero when it finds leaks.
func StatusFromExit(code int) Status {
	if code == 0 {
		return StatusSuccess
	}
	return StatusFailed
}
