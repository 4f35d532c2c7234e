package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/embeddings"
	"github.com/casefind/casefind/internal/llm"
	"github.com/casefind/casefind/internal/vectorindex"
)

// Config holds server configuration.
type Config struct {
	Port       int
	DataDir    string // directory for the SQLite DB
	StorageDir string // directory holding uploaded PDFs
	AllowAll   bool   // allow all CORS origins (dev mode)
}

// Server hosts the casefind HTTP API.
type Server struct {
	cfg         Config
	db          *db.DB
	index       vectorindex.Index
	embedder    embeddings.Embedder
	llmProvider llm.Provider
	router      chi.Router
	httpServer  *http.Server
}

// New creates a server with all shared dependencies. Feature packages
// register their routes on Router.
func New(cfg Config, database *db.DB, index vectorindex.Index, embedder embeddings.Embedder, llmProvider llm.Provider) *Server {
	s := &Server{
		cfg:         cfg,
		db:          database,
		index:       index,
		embedder:    embedder,
		llmProvider: llmProvider,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(180 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes are registered by feature packages via RegisterRoutes.

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Index returns the vector index.
func (s *Server) Index() vectorindex.Index { return s.index }

// Embedder returns the embedder.
func (s *Server) Embedder() embeddings.Embedder { return s.embedder }

// LLMProvider returns the LLM provider.
func (s *Server) LLMProvider() llm.Provider { return s.llmProvider }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("casefind server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
