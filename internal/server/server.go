// Package server is the HTTP boundary: routing, identity, and the JSON
// envelope over the entries service.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/llm"
	"github.com/jguzman/physiolog/internal/models"
	"tailscale.com/client/local"
)

// ImportLogStore reads recorded import runs.
type ImportLogStore interface {
	QueryImportLogs(ctx context.Context, userID, limit int) ([]models.ImportLog, error)
}

// SmokeTester runs the LLM connectivity check.
type SmokeTester interface {
	Run(ctx context.Context) (llm.Result, error)
}

// UserResolver maps a tailnet login to a local user ID.
type UserResolver func(ctx context.Context, login, displayName string) (int, error)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *entries.Service
	logs   ImportLogStore
	smoke  SmokeTester
	log    *slog.Logger
	apiKey string
	router chi.Router

	ts          *local.Client
	resolveUser UserResolver
}

// New creates a Server with all routes configured. smoke may be nil when no
// LLM endpoint is configured; the smoke route then reports that instead of
// failing at startup.
func New(svc *entries.Service, logs ImportLogStore, smoke SmokeTester, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logs:   logs,
		smoke:  smoke,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Get("/entries", s.handleGetEntries)
		r.Post("/entries", s.handleCreateEntry)
		r.Put("/entries", s.handleUpdateEntry)
		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
		r.Get("/llm-smoke", s.handleLLMSmoke)
	})
}

// SetTailscale switches identity from the dev fallback to tailnet WhoIs
// lookups. resolve maps the tailnet login to a stored user.
func (s *Server) SetTailscale(lc *local.Client, resolve UserResolver) {
	s.ts = lc
	s.resolveUser = resolve
}

// Mount attaches an extra handler subtree, e.g. the MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}
