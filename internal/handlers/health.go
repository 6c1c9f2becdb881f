package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"media-forge/internal/logging"
	"media-forge/internal/startup"
)

// Index handles GET /: a plaintext liveness line for humans and load
// balancers that probe the root path.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("media-forge is alive\n"))
}

type healthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	Goroutines       int    `json:"goroutines"`
	MemoryUsageBytes uint64 `json:"memoryUsageBytes"`
	MemoryCritical   bool   `json:"memoryCritical"`
}

// HealthCheck handles GET /health and /healthz with a process status
// summary.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "healthy",
		Version:    startup.Version,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}
	if h.memory != nil {
		resp.MemoryUsageBytes = h.memory.Usage()
		resp.MemoryCritical = h.memory.IsCritical()
	}

	writeJSON(w, http.StatusOK, resp)
}

// LivenessCheck handles GET /livez. Responding at all is the signal.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck handles GET /readyz. The service is ready when its temp
// root is reachable; transformations cannot run without it.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.config.TempRoot); err != nil {
		logging.Warn("readiness check failed: temp root: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "temporary storage unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion handles GET /version.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode JSON response: %v", err)
	}
}
