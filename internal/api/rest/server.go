package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires every route of the API
func NewRouter(handler *Handler) http.Handler {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// On-demand reads from the results site
	api.HandleFunc("/clubs/search", handler.SearchClubs).Methods("GET")
	api.HandleFunc("/clubs/details", handler.GetClubDetails).Methods("GET")
	api.HandleFunc("/clubs/table", handler.GetLeagueTable).Methods("GET")
	api.HandleFunc("/clubs/schedule", handler.GetMatchSchedule).Methods("GET")
	api.HandleFunc("/clubs/snapshot", handler.GetClubSnapshot).Methods("GET")

	// Registry management
	api.HandleFunc("/registrations", handler.ListRegistrations).Methods("GET")
	api.HandleFunc("/registrations/{clubID}", handler.GetRegistration).Methods("GET")
	api.HandleFunc("/registrations/{clubID}", handler.PutRegistration).Methods("PUT")
	api.HandleFunc("/registrations/{clubID}", handler.DeleteRegistration).Methods("DELETE")

	// Sync operations
	api.HandleFunc("/sync/clubs/{clubID}", handler.SyncClub).Methods("POST")
	api.HandleFunc("/sync/run", handler.RunSync).Methods("POST")
	api.HandleFunc("/sync/status", handler.SyncStatus).Methods("GET")
	api.HandleFunc("/sync/runs", handler.ListRuns).Methods("GET")
	api.HandleFunc("/sync/runs/{runID}", handler.GetRun).Methods("GET")

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(router)
}

// Start starts the REST API server
func (s *Server) Start() error {
	log.Info().Str("port", s.port).Msg("REST API listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
