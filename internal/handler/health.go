package handler

import (
	"net/http"

	"github.com/tripwise/backend/spec"
)

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// PingResponse is the body of GET /ping/.
type PingResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// GetStatus handles GET /.
// It never touches the database so it keeps answering when Postgres is down.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:  "online",
		Message: "TripWise API is running",
		Version: s.version,
	})
}

// Ping handles GET /ping/, the keep-alive target.
func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, PingResponse{
		Status:    "alive",
		Timestamp: s.now().Format("2006-01-02 15:04:05"),
	})
}

// GetOpenAPI serves the embedded API description.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
