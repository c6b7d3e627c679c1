package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/leakscan/internal/application"
	appscans "github.com/bryanwahyu/leakscan/internal/application/scans"
	"github.com/bryanwahyu/leakscan/internal/config"
	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
	"github.com/bryanwahyu/leakscan/internal/infra/errorreport"
	dockerrunner "github.com/bryanwahyu/leakscan/internal/infra/executor/docker"
)

var (
	// Command line flags
	configPath    string
	errorReport   string
	image         string
	logLevel      string
	propagateExit bool
)

var rootCmd = &cobra.Command{
	Use:   "leakscan <scan_path> <report_path>",
	Short: "Run a gitleaks scan in docker",
	Long: `leakscan mounts scan_path into the gitleaks container and writes the JSON
report to report_path, relative to scan_path. Failures are printed as JSON and
saved to error_report.json in the current directory.`,
	Args:          exactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&errorReport, "error-report", "", "file the error record is written to (default error_report.json)")
	rootCmd.Flags().StringVar(&image, "image", "", "gitleaks image (default zricethezav/gitleaks:latest)")
	rootCmd.Flags().BoolVar(&propagateExit, "propagate-exit", false, "exit with the scanner's exit code when it is non-zero")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	rootCmd.AddCommand(serveCmd)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func main() {
	os.Exit(execute())
}

func execute() (code int) {
	defer func() {
		if r := recover(); r != nil {
			se := scanerrors.Runtime("", fmt.Errorf("panic: %v", r))
			_ = errorreport.New(os.Stdout, errorreport.FileSink{Path: errorreport.DefaultFile}).Report(context.Background(), se)
			code = ExitRuntime
		}
	}()

	cmd, err := rootCmd.ExecuteC()
	return exitCode(cmd, err)
}

// exitCode maps the error returned by a command onto the process exit status.
func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		se *scanerrors.Error
		ue usageError
		ce exitCodeError
	)
	switch {
	case errors.As(err, &se):
		// already reported
		return se.ExitCode()
	case errors.As(err, &ce):
		return ce.code
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if cmd != nil {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
		return ExitUsage
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntime
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, cfgErr := config.Resolve(configPath)
	if cfgErr != nil {
		cfg = config.Defaults()
	}
	if errorReport != "" {
		cfg.Scanner.ErrorReport = errorReport
	}
	if image != "" {
		cfg.Scanner.Image = image
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	reporter := errorreport.Multi{
		errorreport.New(cmd.OutOrStdout(), errorreport.FileSink{Path: cfg.Scanner.ErrorReport}),
	}
	ctx := cmd.Context()

	if cfgErr != nil {
		se := scanerrors.Runtime("", fmt.Errorf("load config: %w", cfgErr))
		_ = reporter.Report(ctx, se)
		return se
	}

	log, err := newLogger(cfg.Log.Level, true)
	if err != nil {
		se := scanerrors.Runtime("", fmt.Errorf("logger: %w", err))
		_ = reporter.Report(ctx, se)
		return se
	}
	defer log.Sync()

	in, err := connect(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer in.Close()

	if in.errors != nil {
		reporter = append(reporter, &errorreport.HistoryReporter{Repo: in.errors})
	}

	svc := &appscans.Service{
		Runner:    dockerrunner.NewRunner(cfg.Scanner.Binary, cfg.Scanner.Image, cfg.Scanner.MountPoint),
		Reporter:  reporter,
		Repo:      in.scans,
		Errors:    in.errors,
		Artifacts: in.store,
		Triage:    in.triage,
		Clock:     application.SystemClock{},
		Console:   cmd.OutOrStdout(),
		Log:       log,
		Image:     cfg.Scanner.Image,
	}

	scan, err := svc.Execute(ctx, appscans.ExecuteCommand{ScanPath: args[0], ReportPath: args[1]})
	if err != nil {
		return err
	}

	if scan.ExitCode != 0 {
		if propagateExit {
			return exitCodeError{code: scan.ExitCode}
		}
		log.Debug("scanner exit code not propagated", zap.Int("exit_code", scan.ExitCode))
	}
	return nil
}
