package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os/exec"
	"time"
)

// HealthChecker reports whether one dependency of the server works.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the scan history database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// BinaryHealthChecker checks that the scanner's launcher is on PATH.
type BinaryHealthChecker struct {
	Name string
}

func (b *BinaryHealthChecker) Check(context.Context) error {
	_, err := exec.LookPath(b.Name)
	return err
}

type checkResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthReport struct {
	Status    string                 `json:"status"`
	CheckedAt time.Time              `json:"checked_at"`
	Checks    map[string]checkResult `json:"checks"`
}

// HealthHandler runs every checker and answers 503 when one of them fails.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rep := healthReport{Status: "healthy", CheckedAt: time.Now().UTC(), Checks: map[string]checkResult{}}
		for name, c := range checkers {
			if err := c.Check(ctx); err != nil {
				rep.Status = "unhealthy"
				rep.Checks[name] = checkResult{Error: err.Error()}
				continue
			}
			rep.Checks[name] = checkResult{OK: true}
		}

		code := http.StatusOK
		if rep.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, rep)
	}
}

// ReadinessHandler answers 503 once ready returns false, e.g. while the
// server drains running scans.
func ReadinessHandler(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// LivenessHandler only proves the process serves HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
