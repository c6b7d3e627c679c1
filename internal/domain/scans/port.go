package scans

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Scan) error
	Get(ctx context.Context, id ScanID) (*Scan, error)
	Latest(ctx context.Context, limit int) ([]*Scan, error)
}

// Runner port (interface untuk eksekusi scanner)
//
// Run blocks until the scanner exits. A non-zero scanner exit is reported in
// RunResult.ExitCode; the error is reserved for failures to launch or talk to
// the process.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
