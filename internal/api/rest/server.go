package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	router *mux.Router
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps, logger logrus.FieldLogger) *Server {
	handler := NewHandler(deps, logger)
	ratingsHandler := NewRatingsHandler(deps.Sync)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Trades
	api.HandleFunc("/trades/parse", handler.ParseTrade).Methods("POST")
	api.HandleFunc("/trades/{messageID}/apply", handler.ApplyTrade).Methods("POST")
	api.HandleFunc("/trades/{messageID}", handler.GetTrade).Methods("GET")

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/resolve", handler.ResolveTeam).Methods("GET")
	api.HandleFunc("/teams/{team}/roster", handler.GetTeamRoster).Methods("GET")
	api.HandleFunc("/team-aliases", handler.GetTeamAliases).Methods("GET")
	api.HandleFunc("/team-aliases", handler.CreateTeamAlias).Methods("POST")

	// Players
	api.HandleFunc("/players/reconcile", handler.ReconcilePlayer).Methods("POST")
	api.HandleFunc("/players/{playerID}", handler.GetPlayer).Methods("GET")

	// Rating sync operations
	api.HandleFunc("/ratings/sync", ratingsHandler.HandleSyncRequest).Methods("POST")
	api.HandleFunc("/ratings/sync/status", ratingsHandler.HandleSyncStatus).Methods("GET")

	return &Server{
		port:   port,
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
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
