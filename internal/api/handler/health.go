package handler

import (
	"net/http"
	"time"

	"github.com/hszk-dev/mediagate/internal/usecase"
)

type LivenessResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

type IndexResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthHandler serves readiness, liveness and the API index.
type HealthHandler struct {
	svc     usecase.MediaService
	version string
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(svc usecase.MediaService, version string) *HealthHandler {
	return &HealthHandler{
		svc:     svc,
		version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

// Health handles GET /health. It probes the bucket on every call.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Health(r.Context())

	code := http.StatusOK
	if !status.IsHealthy() {
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, status)
}

// Live handles GET /livez
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	JSON(w, http.StatusOK, LivenessResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.started) / time.Second),
		Timestamp:     now.UTC().Format(time.RFC3339),
	})
}

// Index handles GET /
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, IndexResponse{
		Service: "mediagate",
		Version: h.version,
		Endpoints: map[string]string{
			"GET /v1/videos":         "list videos",
			"GET /v1/videos/{path}":  "stream a video, honours Range",
			"HEAD /v1/videos/{path}": "video headers without body",
			"GET /v1/presign":        "presigned download URL (object_key, expires_in)",
			"GET /health":            "storage readiness probe",
			"GET /livez":             "process liveness",
			"GET /metrics":           "prometheus metrics",
		},
	})
}
