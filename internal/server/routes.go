// Package server wires HTTP handlers into a gorilla/mux router and wraps it
// with CORS, access logging and panic recovery.
package server

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

var corsMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// SetupRoutes configures and returns a router with all application routes.
// Paths without the trailing slash redirect to the canonical form.
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/", s.HealthHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/check/", s.CheckHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws/", s.WebSocketHandler).Methods(http.MethodGet)
	return r
}

// Handler returns the full middleware chain around the routes: panic
// recovery, access log, then CORS.
func (s *Server) Handler() http.Handler {
	return s.wrap(s.SetupRoutes())
}

func (s *Server) wrap(h http.Handler) http.Handler {
	h = cors.New(cors.Options{
		AllowedOrigins: s.origins.corsOrigins(),
		AllowedMethods: corsMethods,
		AllowedHeaders: []string{"*"},
	}).Handler(h)

	// logRequest writes through zerolog, so the writer is unused.
	h = handlers.CustomLoggingHandler(io.Discard, h, logRequest)

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(h)
}
