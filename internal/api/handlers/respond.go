package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/nikhilbhutani/narrator/internal/models"
)

type errorResponse struct {
	Error string       `json:"error"`
	Kind  apperr.Kind  `json:"kind,omitempty"`
	Stage models.Stage `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure renders a classified error. Unclassified errors are logged and
// reported without detail.
func writeFailure(w http.ResponseWriter, err error, stage models.Stage) {
	e, ok := apperr.As(err)
	if !ok {
		slog.Error("unclassified failure", "stage", stage, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Stage: stage})
		return
	}
	writeJSON(w, apperr.HTTPStatus(e.Kind), errorResponse{
		Error: apperr.UserMessage(err),
		Kind:  e.Kind,
		Stage: stage,
	})
}
