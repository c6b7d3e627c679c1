package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	"github.com/bryanwahyu/leakscan/internal/application"
	appscans "github.com/bryanwahyu/leakscan/internal/application/scans"
	"github.com/bryanwahyu/leakscan/internal/config"
	"github.com/bryanwahyu/leakscan/internal/infra/errorreport"
	dockerrunner "github.com/bryanwahyu/leakscan/internal/infra/executor/docker"
	"github.com/bryanwahyu/leakscan/internal/infra/httpserver"
	"github.com/bryanwahyu/leakscan/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan API over HTTP",
	Args:  exactArgs(0),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := newLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := requireAuth(cfg, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := connect(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer in.Close()

	reporter := errorreport.Multi{&errorreport.LogReporter{Log: log}}
	if in.errors != nil {
		reporter = append(reporter, &errorreport.HistoryReporter{Repo: in.errors})
	}

	// scanner output goes to the debug log; scans share it concurrently
	console := &zapio.Writer{Log: log, Level: zap.DebugLevel}
	defer console.Close()

	svc := &appscans.Service{
		Runner:    dockerrunner.NewRunner(cfg.Scanner.Binary, cfg.Scanner.Image, cfg.Scanner.MountPoint),
		Reporter:  reporter,
		Repo:      in.scans,
		Errors:    in.errors,
		Artifacts: in.store,
		Triage:    in.triage,
		Clock:     application.SystemClock{},
		Console:   zapcore.Lock(console),
		Log:       log,
		Image:     cfg.Scanner.Image,
	}

	health := map[string]middleware.HealthChecker{
		"scanner": &middleware.BinaryHealthChecker{Name: cfg.Scanner.Binary},
	}
	if in.db != nil {
		health["database"] = &middleware.DatabaseHealthChecker{DB: in.db}
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Stop()

	router := httpserver.NewRouter(svc, httpserver.Options{
		MaxConcurrentScans: int64(cfg.Server.MaxConcurrentScans),
		APIKeys:            cfg.Server.APIKeys,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimiter:        limiter,
		Health:             health,
		Log:                log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server, waiting for running scans")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	// the history database stays open until every accepted scan is done
	router.Wait()
	return serveErr
}

// requireAuth refuses an API without keys unless the config opts in.
func requireAuth(cfg *config.Config, log *zap.Logger) error {
	if len(cfg.Server.APIKeys) > 0 {
		return nil
	}
	if !cfg.Server.AllowAnonymous {
		return errors.New("server.apiKeys is empty: configure API keys or set server.allowAnonymous: true")
	}
	log.Warn("serving without API keys, any client can start scans of host directories",
		zap.Int("port", cfg.Server.Port))
	return nil
}
