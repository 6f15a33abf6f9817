// Package server provides the HTTP chat API and dashboard page for cyborgbench.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/config"
	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/render"
	"github.com/hyperjump/cyborgbench/internal/storage"
)

// PageTitle is shown in the dashboard header.
const PageTitle = "CyborgDB Fraud Detection Chat"

// statsWindow is the number of recent samples per backend summarized by /api/v1/stats.
const statsWindow = 1000

// Pipeline answers chat messages and reports index sizes.
type Pipeline interface {
	Respond(ctx context.Context, message string) (*models.ChatResponse, error)
	Sizes() map[evaluator.Backend]int
}

// Server is the HTTP server for the chat API and dashboard.
type Server struct {
	pipeline  Pipeline
	storage   storage.Storage
	dashboard *evaluator.Dashboard
	page      *render.HTML
	chatLog   render.Renderer
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server

	// cycleMu keeps one chat cycle's log entries and dashboard update together.
	cycleMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline Pipeline,
	store storage.Storage,
	dashboard *evaluator.Dashboard,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline:  pipeline,
		storage:   store,
		dashboard: dashboard,
		config:    cfg,
		logger:    logger,
	}
	s.page = render.NewHTML(render.DefaultLogSize, dashboard.Current())
	s.chatLog = s.page
	return s
}

// Handler builds the router with middleware and every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.config.Server.RateLimit, s.config.Server.Burst))
		r.Post("/chat", s.handleChat)
		r.Post("/get_response", s.handleGetResponse)
	})
	r.Get("/api/v1/dashboard", s.handleDashboard)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Address()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
