package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fvockel/squadscout/internal/harvest"
	"github.com/fvockel/squadscout/internal/store"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, harvestSvc *harvest.Service) *Server {
	handler := NewHandler(db)
	harvestHandler := NewHarvestHandler(harvestSvc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Harvesting
	api.HandleFunc("/harvest", harvestHandler.TriggerHarvest).Methods("POST")
	api.HandleFunc("/harvest/status", harvestHandler.HarvestStatus).Methods("GET")
	api.HandleFunc("/harvest/stream", harvestHandler.StreamHarvest).Methods("GET")
	api.HandleFunc("/snapshot", harvestHandler.GetSnapshot).Methods("GET")

	// Competitions and clubs
	api.HandleFunc("/competitions", handler.GetCompetitions).Methods("GET")
	api.HandleFunc("/competitions/{code}/clubs", handler.GetCompetitionClubs).Methods("GET")
	api.HandleFunc("/clubs/{clubID}/squad", handler.GetClubSquad).Methods("GET")

	// Players
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods("GET")
	api.HandleFunc("/players/{externalID}", handler.GetPlayer).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
