package handler

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/classifier"
)

const rootPage = `<!DOCTYPE html>
<html>
<head><title>Sign Gateway</title></head>
<body>
<h1>Sign Gateway</h1>
<p>The sign language API is running. See <a href="/health">/health</a>.</p>
</body>
</html>
`

// HealthHandler reports process and classifier health
type HealthHandler struct {
	started    time.Time
	classifier classifier.Options
	now        func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(opts classifier.Options) *HealthHandler {
	return &HealthHandler{
		started:    time.Now(),
		classifier: opts,
		now:        time.Now,
	}
}

// Root serves a small landing page
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootPage))
}

// Health returns a simple liveness response
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	response.OK(w, map[string]any{
		"status":    "OK",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(h.started).Seconds(),
	})
}

// Classifier reports whether the classifier command can be launched
func (h *HealthHandler) Classifier(w http.ResponseWriter, r *http.Request) {
	status := ClassifierStatus(h.classifier)

	if status.Error != "" {
		response.JSON(w, http.StatusInternalServerError, status)
		return
	}
	response.OK(w, status)
}

// ClassifierReport describes how the classifier command resolves on this host
type ClassifierReport struct {
	Status       string   `json:"status,omitempty"`
	Error        string   `json:"error,omitempty"`
	Command      string   `json:"command"`
	Args         []string `json:"args"`
	Script       string   `json:"script,omitempty"`
	ScriptExists bool     `json:"scriptExists"`
	Timeout      string   `json:"timeout"`
	Platform     string   `json:"platform"`
}

// ClassifierStatus resolves the classifier command without running it
func ClassifierStatus(opts classifier.Options) ClassifierReport {
	report := ClassifierReport{
		Command:  opts.Command,
		Args:     opts.Args,
		Timeout:  "none",
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if report.Args == nil {
		report.Args = []string{}
	}
	if opts.Timeout > 0 {
		report.Timeout = opts.Timeout.String()
	}
	if len(opts.Args) > 0 {
		report.Script = opts.Args[0]
		if info, err := os.Stat(report.Script); err == nil && !info.IsDir() {
			report.ScriptExists = true
		}
	}

	// the resolved location stays private; only resolvability is reported
	if _, err := exec.LookPath(opts.Command); err != nil {
		report.Error = err.Error()
		return report
	}
	report.Status = "OK"
	return report
}

// Pinger is a backing service that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 3 * time.Second

// ReadyCheck returns readiness status including backing service connectivity
func ReadyCheck(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("readiness check failed")
				response.Error(w, http.StatusServiceUnavailable, name+" not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
