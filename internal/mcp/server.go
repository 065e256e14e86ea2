// Package mcp exposes the entry log to LLM clients over the Model Context
// Protocol: tools for reading, writing and aggregating entries, plus a
// recent-entries resource.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ImportLogStore reads recorded import runs.
type ImportLogStore interface {
	QueryImportLogs(ctx context.Context, userID, limit int) ([]models.ImportLog, error)
}

// New creates an MCP server with all tools and resources registered.
func New(svc *entries.Service, logs ImportLogStore, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PhySioLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Personal health tracking server. Read and record daily entries (weight, body fat, calories, steps, sleep) and query aggregate statistics. All data is scoped to the authenticated user."),
	)

	h := &handlers{svc: svc, logs: logs, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetEntries, Handler: h.getEntries},
		server.ServerTool{Tool: toolGetEntry, Handler: h.getEntry},
		server.ServerTool{Tool: toolLogEntry, Handler: h.logEntry},
		server.ServerTool{Tool: toolUpdateEntry, Handler: h.updateEntry},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolGetImportLogs, Handler: h.getImportLogs},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentEntries, Handler: h.recentEntries},
	)

	return s
}

// HTTPHandler wraps the MCP server in its streamable HTTP transport so it
// can be mounted on the API router.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc  *entries.Service
	logs ImportLogStore
	log  *slog.Logger
}

// --- Resource definitions ---

var resRecentEntries = mcp.NewResource(
	"physiolog://recent_entries",
	"Recent Entries",
	mcp.WithResourceDescription("Health entries from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
