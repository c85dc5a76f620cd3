package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obraflow/ledger-backend/internal/api/handlers"
	"github.com/obraflow/ledger-backend/internal/api/middleware"
	"github.com/obraflow/ledger-backend/internal/application/service"
	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Services bundles the application services the server routes to.
type Services struct {
	Ledger       *service.Ledger
	Importer     *service.Importer
	Reconciler   *service.Reconciler
	Deleter      *service.Deleter
	Transactions *service.Transactions
	Receivables  *service.Receivables
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	services   Services
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		repo:     repo,
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Statement lines
		statementsHandler := handlers.NewStatementsHandler(s.repo, s.services.Importer, s.services.Reconciler, s.services.Deleter)
		r.Post("/statements/import", statementsHandler.Import)
		r.Get("/statements", statementsHandler.List)
		r.Delete("/statements/{id}", statementsHandler.Delete)
		r.Get("/statements/{id}/suggestions", statementsHandler.Suggestions)

		// Reconciliation
		reconcileHandler := handlers.NewReconcileHandler(s.services.Reconciler)
		r.Post("/reconcile", reconcileHandler.Reconcile)

		// Transactions
		transactionsHandler := handlers.NewTransactionsHandler(s.services.Transactions, s.services.Deleter)
		r.Get("/transactions", transactionsHandler.List)
		r.Post("/transactions", transactionsHandler.Create)
		r.Delete("/transactions/{id}", transactionsHandler.Delete)
		r.Put("/transactions/{id}/date", transactionsHandler.SetDate)

		// Installments and receivables
		installmentsHandler := handlers.NewInstallmentsHandler(s.services.Receivables)
		r.Post("/installments/generate", installmentsHandler.Generate)
		r.Post("/receivables", installmentsHandler.CreateSchedule)
		r.Get("/receivables/{scheduleID}", installmentsHandler.ListSchedule)
		r.Post("/receivables/{id}/receive", installmentsHandler.Receive)

		// Balances
		balancesHandler := handlers.NewBalancesHandler(s.services.Ledger)
		r.Get("/balances", balancesHandler.Summary)

		// Holiday registry
		holidaysHandler := handlers.NewHolidaysHandler(s.repo)
		r.Get("/holidays", holidaysHandler.List)
		r.Post("/holidays", holidaysHandler.Create)
		r.Delete("/holidays/{id}", holidaysHandler.Delete)

		// Payroll date resolution
		payrollHandler := handlers.NewPayrollHandler(s.services.Transactions)
		r.Post("/payroll/resolve-date", payrollHandler.ResolveDate)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
