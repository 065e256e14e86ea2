package mcp

import (
	"context"
	"encoding/json"

	"github.com/jguzman/physiolog/internal/entries"
	"github.com/jguzman/physiolog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetEntries = mcp.NewTool("get_entries",
	mcp.WithDescription("List health entries newest first, optionally bounded to a recent window."),
	mcp.WithString("window", mcp.Description("Window shorthand like 7d, 30d, 3m, 1y. Omit for all entries.")),
	mcp.WithNumber("days", mcp.Description("Explicit day count; takes precedence over window.")),
)

var toolGetEntry = mcp.NewTool("get_entry",
	mcp.WithDescription("Get the single health entry for a date."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Entry date in YYYY-MM-DD format")),
)

var toolLogEntry = mcp.NewTool("log_entry",
	mcp.WithDescription("Record a new health entry for a date. Fails if the date already has one; use update_entry to change it."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Entry date in YYYY-MM-DD format")),
	mcp.WithNumber("weight", mcp.Description("Body weight in kg")),
	mcp.WithNumber("body_fat", mcp.Description("Body fat percentage")),
	mcp.WithNumber("calories", mcp.Description("Calories consumed (kcal)")),
	mcp.WithNumber("training_volume", mcp.Description("Training volume (load metric)")),
	mcp.WithNumber("steps", mcp.Description("Step count")),
	mcp.WithString("sleep_total", mcp.Description("Sleep duration in HH:MM clock format, e.g. 07:30")),
	mcp.WithString("sleep_quality", mcp.Description("Sleep quality note, e.g. 85%")),
	mcp.WithString("observations", mcp.Description("Free-form note for the day")),
)

var toolUpdateEntry = mcp.NewTool("update_entry",
	mcp.WithDescription("Replace all fields of the entry at a date. Omitted fields are cleared, so send the full desired state."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Entry date in YYYY-MM-DD format")),
	mcp.WithNumber("weight", mcp.Description("Body weight in kg")),
	mcp.WithNumber("body_fat", mcp.Description("Body fat percentage")),
	mcp.WithNumber("calories", mcp.Description("Calories consumed (kcal)")),
	mcp.WithNumber("training_volume", mcp.Description("Training volume (load metric)")),
	mcp.WithNumber("steps", mcp.Description("Step count")),
	mcp.WithString("sleep_total", mcp.Description("Sleep duration in HH:MM clock format, e.g. 07:30")),
	mcp.WithString("sleep_quality", mcp.Description("Sleep quality note, e.g. 85%")),
	mcp.WithString("observations", mcp.Description("Free-form note for the day")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Aggregate statistics (per-field averages and entry count) over a window. Fields are averaged independently over the entries that recorded them."),
	mcp.WithString("window", mcp.Description("Window shorthand like 7d, 30d, 3m, 1y. Omit for all time.")),
	mcp.WithNumber("days", mcp.Description("Explicit day count; takes precedence over window.")),
)

var toolGetImportLogs = mcp.NewTool("get_import_logs",
	mcp.WithDescription("List recent bulk-import runs with their row counts and status."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return. Defaults to 50.")),
)

// inputFromArgs builds a create/update payload from tool arguments. Absent
// arguments stay nil, matching the full-replace update semantics.
func inputFromArgs(date string, args map[string]any) entries.Input {
	in := entries.Input{Date: date}
	if v, ok := args["weight"].(float64); ok {
		in.Weight = &v
	}
	if v, ok := args["body_fat"].(float64); ok {
		in.BodyFat = &v
	}
	if v, ok := args["calories"].(float64); ok {
		n := int(v)
		in.Calories = &n
	}
	if v, ok := args["training_volume"].(float64); ok {
		in.TrainingVolume = &v
	}
	if v, ok := args["steps"].(float64); ok {
		n := int(v)
		in.Steps = &n
	}
	if v, ok := args["sleep_total"]; ok {
		in.SleepTotal = v
	}
	if v, ok := args["sleep_quality"].(string); ok && v != "" {
		in.SleepQuality = &v
	}
	if v, ok := args["observations"].(string); ok && v != "" {
		in.Observations = &v
	}
	return in
}

// windowArgs reads the shared window/days tool arguments.
func windowArgs(req mcp.CallToolRequest) (*int, string) {
	window := req.GetString("window", "")
	var days *int
	if v, ok := req.GetArguments()["days"].(float64); ok {
		n := int(v)
		days = &n
	}
	return days, window
}

// --- Tool handlers ---

func (h *handlers) getEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, window := windowArgs(req)

	list, err := h.svc.List(ctx, UserIDFromContext(ctx), days, window)
	if err != nil {
		return mcp.NewToolResultError("listing entries: " + err.Error()), nil
	}

	views := make([]models.EntryView, 0, len(list))
	for _, e := range list {
		views = append(views, e.View())
	}
	result, err := mcp.NewToolResultJSON(views)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}

	entry, err := h.svc.Get(ctx, UserIDFromContext(ctx), date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entry.View())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) logEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}

	in := inputFromArgs(date, req.GetArguments())
	entry, err := h.svc.Create(ctx, UserIDFromContext(ctx), in)
	if err != nil {
		return mcp.NewToolResultError("creating entry: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entry.View())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) updateEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}

	in := inputFromArgs(date, req.GetArguments())
	entry, err := h.svc.Update(ctx, UserIDFromContext(ctx), in)
	if err != nil {
		return mcp.NewToolResultError("updating entry: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entry.View())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, window := windowArgs(req)

	stats, err := h.svc.Stats(ctx, UserIDFromContext(ctx), days, window)
	if err != nil {
		return mcp.NewToolResultError("computing stats: " + err.Error()), nil
	}

	payload := map[string]any{
		"window":      stats.Window,
		"window_days": stats.WindowDays,
		"end_date":    stats.EndDate.Format("2006-01-02"),
		"stats":       stats.Summary,
	}
	if stats.StartDate != nil {
		payload["start_date"] = stats.StartDate.Format("2006-01-02")
	}

	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getImportLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if v, ok := req.GetArguments()["limit"].(float64); ok {
		limit = int(v)
	}

	logs, err := h.logs.QueryImportLogs(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_import_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if logs == nil {
		logs = []models.ImportLog{}
	}

	result, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) recentEntries(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	days := 14
	list, err := h.svc.List(ctx, UserIDFromContext(ctx), &days, "")
	if err != nil {
		return nil, err
	}

	views := make([]models.EntryView, 0, len(list))
	for _, e := range list {
		views = append(views, e.View())
	}
	data, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
