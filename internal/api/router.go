// Package api wires the HTTP surface: the upload page, the analyze endpoint
// and the health check.
package api

import (
	"net/http"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RouterConfig holds what the routes need.
type RouterConfig struct {
	Analyzer       handlers.Analyzer
	MaxUploadBytes int64
	GCSEnabled     bool
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds the application handler with middleware applied.
func NewRouter(cfg RouterConfig) http.Handler {
	analyzeHandler := handlers.NewAnalyzeHandler(cfg.Analyzer, cfg.MaxUploadBytes, cfg.GCSEnabled, cfg.Log)
	uiHandler := handlers.NewUIHandler(cfg.MaxUploadBytes>>20, cfg.Log)

	r := mux.NewRouter()
	r.HandleFunc("/", uiHandler.Index).Methods(http.MethodGet)
	r.HandleFunc("/api/analyze", analyzeHandler.Analyze).Methods(http.MethodPost)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// RequestID runs before Logger so request logs carry the ID.
	return middleware.Recovery(cfg.Log)(
		middleware.RequestID(
			middleware.Logger(cfg.Log)(
				middleware.CORS(cfg.AllowedOrigins)(r),
			),
		),
	)
}
