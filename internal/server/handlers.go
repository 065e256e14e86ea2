package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
	"github.com/jguzman/physiolog/internal/parse"
	"github.com/jguzman/physiolog/internal/stats"
)

// handleGetEntries serves GET /api/entries. With ?date it returns a single
// entry; otherwise the list, optionally bounded by ?days or ?window.
func (s *Server) handleGetEntries(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)

	if dateStr := strings.TrimSpace(r.URL.Query().Get("date")); dateStr != "" {
		entry, err := s.svc.Get(r.Context(), userID, dateStr)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "entry": entry.View()})
		return
	}

	days, window, err := windowParams(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.svc.List(r.Context(), userID, days, window)
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]models.EntryView, 0, len(list))
	for _, e := range list {
		views = append(views, e.View())
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": views})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	entry, err := s.svc.Create(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "entry": entry.View()})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	entry, err := s.svc.Update(r.Context(), userIDFromContext(r), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entry": entry.View()})
}

// statsResponse is the GET /api/stats payload: the resolved window alongside
// the computed summary.
type statsResponse struct {
	Success    bool          `json:"success"`
	Window     string        `json:"window"`
	WindowDays int           `json:"window_days"`
	StartDate  *string       `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Stats      stats.Summary `json:"stats"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days, window, err := windowParams(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.svc.Stats(r.Context(), userIDFromContext(r), days, window)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var start *string
	if result.StartDate != nil {
		iso := result.StartDate.Format("2006-01-02")
		start = &iso
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Success:    true,
		Window:     result.Window,
		WindowDays: result.WindowDays,
		StartDate:  start,
		EndDate:    result.EndDate.Format("2006-01-02"),
		Stats:      result.Summary,
	})
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := s.logs.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.ImportLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "import_logs": logs})
}

func (s *Server) handleLLMSmoke(w http.ResponseWriter, r *http.Request) {
	if s.smoke == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "llm api key is not set"})
		return
	}
	result, err := s.smoke.Run(r.Context())
	if err != nil {
		s.log.Error("llm smoke test failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeInput reads a create/update payload, enforcing the JSON content type.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (entries.Input, bool) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		s.fail(w, http.StatusBadRequest, "Content-Type must be application/json")
		return entries.Input{}, false
	}
	var in entries.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON payload")
		return entries.Input{}, false
	}
	return in, true
}

// windowParams reads the shared ?days / ?window query parameters. days must
// be an integer when present; validation of its sign and of the window token
// happens in the service.
func windowParams(r *http.Request) (*int, string, error) {
	window := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("window")))

	var days *int
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "", errors.New("days must be a positive integer")
		}
		days = &n
	}
	return days, window, nil
}

// writeError maps service errors onto HTTP statuses. Unrecognized errors are
// logged and reported as 500 without leaking internals.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parse.ErrMissingField),
		errors.Is(err, parse.ErrInvalidFormat),
		errors.Is(err, stats.ErrInvalidDays):
		s.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.fail(w, http.StatusNotFound, "Entry not found for the given date")
	case errors.Is(err, models.ErrNoData):
		s.fail(w, http.StatusNotFound, "No data available")
	case errors.Is(err, models.ErrDuplicateDate):
		s.fail(w, http.StatusConflict, "Date already exists")
	default:
		s.log.Error("request failed", "error", err)
		s.fail(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
