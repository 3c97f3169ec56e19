package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/narrator/internal/artifact"
)

type HealthHandler struct {
	store artifact.Store
}

func NewHealthHandler(store artifact.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			checks["artifact_store"] = "unhealthy: " + err.Error()
		} else {
			checks["artifact_store"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
