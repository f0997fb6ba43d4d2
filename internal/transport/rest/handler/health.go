package handler

import (
	"net/http"

	"predictbattle/internal/transport/rest/apierr"
)

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health handles GET /health
func Health(out *apierr.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: "server is running"})
	}
}
