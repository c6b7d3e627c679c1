package scans

import (
	"fmt"
	"os"
	"strings"
)

// ReportExtension is the only suffix accepted for report paths.
const ReportExtension = ".json"

// Reason enumerates why a ScanRequest was rejected.
type Reason string

const (
	InvalidPath      Reason = "invalid_path"
	InvalidExtension Reason = "invalid_extension"
)

// ScanRequest is a validated pair of scan directory and report path.
type ScanRequest struct {
	ScanPath   string `json:"scan_path"`
	ReportPath string `json:"report_path"`
}

func (r ScanRequest) String() string {
	return fmt.Sprintf("scan_path=%q report_path=%q", r.ScanPath, r.ReportPath)
}

// ValidationError reports the first rule a ScanRequest violated.
type ValidationError struct {
	Reason Reason
	Value  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case InvalidPath:
		return fmt.Sprintf("the path %s is not a valid directory", e.Value)
	case InvalidExtension:
		return "the report file must end with " + ReportExtension
	default:
		return fmt.Sprintf("invalid scan request: %s", e.Reason)
	}
}

// Validate checks scanPath before reportPath and returns the first failure.
// The directory check is a point-in-time stat; nothing else (parent
// directories, permissions, absolute vs relative) is checked.
func Validate(scanPath, reportPath string) (ScanRequest, error) {
	info, err := os.Stat(scanPath)
	if err != nil || !info.IsDir() {
		return ScanRequest{}, &ValidationError{Reason: InvalidPath, Value: scanPath}
	}
	if !strings.HasSuffix(reportPath, ReportExtension) {
		return ScanRequest{}, &ValidationError{Reason: InvalidExtension, Value: reportPath}
	}
	return ScanRequest{ScanPath: scanPath, ReportPath: reportPath}, nil
}
