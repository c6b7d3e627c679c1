package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

const (
	DefaultBinary     = "docker"
	DefaultImage      = "zricethezav/gitleaks:latest"
	DefaultMountPoint = "/code"
)

type Runner struct {
	Binary     string
	Image      string
	MountPoint string
}

func NewRunner(binary, image, mountPoint string) *Runner {
	r := &Runner{Binary: binary, Image: image, MountPoint: mountPoint}
	if r.Binary == "" {
		r.Binary = DefaultBinary
	}
	if r.Image == "" {
		r.Image = DefaultImage
	}
	if r.MountPoint == "" {
		r.MountPoint = DefaultMountPoint
	}
	return r
}

// Args builds the docker argv for a scan. The report path is the mount point
// and the caller's report path joined with a literal "/", so the report is
// written relative to the scan directory.
func (r *Runner) Args(req domain.RunRequest) []string {
	return []string{
		"run",
		"-v", fmt.Sprintf("%s:%s", req.ScanPath, r.MountPoint),
		r.Image,
		"detect",
		"--source", r.MountPoint,
		"--report-format", "json",
		"--report-path", r.MountPoint + "/" + req.ReportPath,
		"--verbose",
		"--no-color",
		"--no-git",
	}
}

// Run executes gitleaks and waits for it. No timeout is applied; ctx only
// cancels when the caller cancels it.
func (r *Runner) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.Binary, r.Args(req)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	exitCode := 0
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			return domain.RunResult{}, fmt.Errorf("run %s: %w", r.Binary, err)
		}
		exitCode = ee.ExitCode()
	}

	return domain.RunResult{
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
		ExitCode:   exitCode,
		DurationMS: duration,
	}, nil
}
