package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/cors"

	"fastlog/internal/logger"
	"fastlog/pkg/fastlog"
)

// Server is the HTTP API server.
type Server struct {
	logs    *fastlog.Service
	mux     *http.ServeMux
	api     http.Handler // mux behind the CORS policy
	handler http.Handler
}

// New creates a new Server. origins is the CORS allow-list for /api/ paths.
func New(logs *fastlog.Service, origins []string) *Server {
	s := &Server{
		logs: logs,
		mux:  http.NewServeMux(),
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
	})
	s.routes()
	s.api = c.Handler(s.mux)
	s.handler = requestLog(http.HandlerFunc(s.dispatch))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// dispatch applies the CORS policy to /api/ paths only.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.api.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Fast logs
	s.mux.HandleFunc("GET /api/fastlogs", s.handleFastLogList)
	s.mux.HandleFunc("GET /api/fastlogs/{$}", s.handleFastLogList)
	s.mux.HandleFunc("POST /api/fastlogs", s.handleFastLogCreate)
	s.mux.HandleFunc("POST /api/fastlogs/{$}", s.handleFastLogCreate)
	s.mux.HandleFunc("GET /api/fastlogs/{id}", s.handleFastLogGet)
	s.mux.HandleFunc("PUT /api/fastlogs/{id}", s.handleFastLogUpdate)
	s.mux.HandleFunc("PATCH /api/fastlogs/{id}/complete", s.handleFastLogComplete)
	s.mux.HandleFunc("DELETE /api/fastlogs/{id}", s.handleFastLogDelete)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write json", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.logs.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
