package scans

// RunRequest untuk Runner
type RunRequest struct {
	ScanPath   string
	ReportPath string
}

// RunResult hasil dari Runner
type RunResult struct {
	Stdout     []byte
	Stderr     []byte
	ExitCode   int
	DurationMS int64
}
