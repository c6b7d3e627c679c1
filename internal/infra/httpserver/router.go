package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	appscans "github.com/bryanwahyu/leakscan/internal/application/scans"
	"github.com/bryanwahyu/leakscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
	"github.com/bryanwahyu/leakscan/internal/middleware"
)

type Options struct {
	MaxConcurrentScans int64
	APIKeys            []string
	AllowedOrigins     []string
	RateLimiter        *middleware.RateLimiter
	Health             map[string]middleware.HealthChecker
	Metrics            *middleware.Metrics
	Log                *zap.Logger
}

type Router struct {
	scansSvc *appscans.Service
	slots    *semaphore.Weighted
	metrics  *middleware.Metrics
	log      *zap.Logger
	mux      chi.Router

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

func NewRouter(scansSvc *appscans.Service, opts Options) *Router {
	if opts.MaxConcurrentScans <= 0 {
		opts.MaxConcurrentScans = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	r := &Router{
		scansSvc: scansSvc,
		slots:    semaphore.NewWeighted(opts.MaxConcurrentScans),
		metrics:  opts.Metrics,
		log:      opts.Log,
	}

	mux := chi.NewRouter()
	mux.Use(r.metrics.Middleware, middleware.Logging(r.log))
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler(r.Ready))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", r.metrics.Handler)

	mux.Route("/v1/scans", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleTriggerScan))
		rt.Get("/latest", r.wrap(r.handleLatest))
		rt.Get("/{id}", r.wrap(r.handleGet))
		rt.Get("/{id}/errors", r.wrap(r.handleErrors))
	})

	r.mux = mux
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Wait stops accepting scans and blocks until every background scan has
// finished.
func (r *Router) Wait() {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()
	r.inflight.Wait()
}

// track registers a background scan unless the router is draining.
func (r *Router) track() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return false
	}
	r.inflight.Add(1)
	return true
}

// Ready reports whether new scans are accepted.
func (r *Router) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.draining
}

var errBadRequest = errors.New("bad request")

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, errBadRequest):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, appscans.ErrNoHistory):
				http.Error(w, err.Error(), http.StatusNotImplemented)
			default:
				r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/scans
// Body: {"scan_path": "...", "report_path": "..."}
// Validation runs inline; the scan itself runs in the background.
func (r *Router) handleTriggerScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ScanPath   string `json:"scan_path"`
		ReportPath string `json:"report_path"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	scanReq, err := r.scansSvc.Validate(req.Context(), body.ScanPath, body.ReportPath)
	if err != nil {
		return writeJSON(w, http.StatusUnprocessableEntity, scanerrors.RecordFor(err))
	}

	if !r.slots.TryAcquire(1) {
		r.metrics.ScansRejected.Add(1)
		w.Header().Set("Retry-After", "30")
		http.Error(w, "too many scans in progress", http.StatusTooManyRequests)
		return nil
	}

	if !r.track() {
		r.slots.Release(1)
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return nil
	}

	id := uuid.New().String()
	queuedAt := time.Now()
	go func() {
		defer r.inflight.Done()
		defer r.slots.Release(1)
		done := r.metrics.ScanStarted()

		// detached from the request so the scan runs to completion
		_, err := r.scansSvc.Run(context.Background(), id, scanReq)
		done(err != nil)
	}()

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":        id,
		"status":    "queued",
		"queued_at": queuedAt,
	})
}

// GET /v1/scans/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.Latest(req.Context(), ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Scan{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}

	scan, err := r.scansSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, scan)
}

// GET /v1/scans/{id}/errors?limit=20
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.ErrorsFor(req.Context(), id, ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*scanerrors.ScanError{}
	}
	return writeJSON(w, http.StatusOK, list)
}

func scanIDParam(req *http.Request) (domain.ScanID, error) {
	raw := chi.URLParam(req, "id")
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: invalid scan id %q", errBadRequest, raw)
	}
	return domain.ScanID(raw), nil
}

// ValidateLimit clamps pagination limits to [1, 100], defaulting to 20.
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
