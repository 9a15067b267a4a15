// ABOUTME: MCP tool handler implementations backed by the tracker service
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	svc  *tracker.Service
	user *models.User
	log  *logger.Logger
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *Handlers) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	e := apierr.As(err)
	if e.Status >= 500 {
		h.log.Error("tool failed", "tool", tool, "error", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", apierr.Detail(err), e.Code)), nil
}

func requireID(request mcp.CallToolRequest, key string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := request.RequireString(key)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(key + " argument is required and must be a string")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(key + " must be a UUID")
	}
	return id, nil
}

// stringSlice reads an array argument whose elements must all be strings
func stringSlice(request mcp.CallToolRequest, key string) ([]string, bool) {
	raw, ok := request.GetArguments()[key].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (h *Handlers) CreateTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}
	topic, err := h.svc.CreateTopic(ctx, h.user, tracker.TopicInput{
		Title:       title,
		Description: request.GetString("description", ""),
		Mode:        models.TopicMode(request.GetString("mode", string(models.ModeAutomated))),
	})
	if err != nil {
		return h.toolError("create_topic", err)
	}
	return jsonResult(topic)
}

func (h *Handlers) ListTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topics, err := h.svc.ListTopics(ctx, h.user)
	if err != nil {
		return h.toolError("list_topics", err)
	}
	return jsonResult(map[string]interface{}{"topics": topics, "count": len(topics)})
}

func (h *Handlers) ListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topicID, bad := requireID(request, "topic_id")
	if bad != nil {
		return bad, nil
	}
	sessions, err := h.svc.ListSessions(ctx, h.user, topicID)
	if err != nil {
		return h.toolError("list_sessions", err)
	}
	return jsonResult(map[string]interface{}{"sessions": sessions})
}

func (h *Handlers) AddNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	points, ok := stringSlice(request, "points")
	if !ok {
		return mcp.NewToolResultError("points argument is required and must be an array of strings"), nil
	}
	added, err := h.svc.AddNotes(ctx, h.user, sessionID, points)
	if err != nil {
		return h.toolError("add_notes", err)
	}
	return jsonResult(map[string]interface{}{"session_id": sessionID, "added": len(added)})
}

func (h *Handlers) PreviousSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	session, err := h.svc.PreviousSession(ctx, h.user, sessionID)
	if err != nil {
		return h.toolError("previous_session", err)
	}
	return jsonResult(session)
}

func (h *Handlers) CompareSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	comparison, err := h.svc.CompareSession(ctx, h.user, sessionID)
	if err != nil {
		return h.toolError("compare_session", err)
	}
	return jsonResult(comparison)
}

func (h *Handlers) CompleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.sessionTool(ctx, request, "complete_session", h.svc.CompleteSession)
}

func (h *Handlers) SkipSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.sessionTool(ctx, request, "skip_session", h.svc.SkipSession)
}

func (h *Handlers) sessionTool(ctx context.Context, request mcp.CallToolRequest, tool string,
	fn func(context.Context, *models.User, uuid.UUID) (*models.Session, error)) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	session, err := fn(ctx, h.user, sessionID)
	if err != nil {
		return h.toolError(tool, err)
	}
	return jsonResult(session)
}

func (h *Handlers) RescheduleSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	raw, err := request.RequireString("scheduled_for")
	if err != nil {
		return mcp.NewToolResultError("scheduled_for argument is required and must be a string"), nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scheduled_for: %v", err)), nil
	}
	session, err := h.svc.RescheduleSession(ctx, h.user, sessionID, date)
	if err != nil {
		return h.toolError("reschedule_session", err)
	}
	return jsonResult(session)
}

func (h *Handlers) RecordSoloMetric(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := requireID(request, "session_id")
	if bad != nil {
		return bad, nil
	}
	covered, err := request.RequireFloat("percent_covered")
	if err != nil {
		return mcp.NewToolResultError("percent_covered argument is required and must be a number"), nil
	}
	remembered, err := request.RequireFloat("percent_remembered")
	if err != nil {
		return mcp.NewToolResultError("percent_remembered argument is required and must be a number"), nil
	}
	metric, err := h.svc.AddSoloMetric(ctx, h.user, sessionID, covered, remembered)
	if err != nil {
		return h.toolError("record_solo_metric", err)
	}
	return jsonResult(metric)
}

func (h *Handlers) SoloTrend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topicID, bad := requireID(request, "topic_id")
	if bad != nil {
		return bad, nil
	}
	trend, err := h.svc.SoloTrend(ctx, h.user, topicID)
	if err != nil {
		return h.toolError("solo_trend", err)
	}
	return jsonResult(map[string]interface{}{
		"kind":               trend.Trend.Kind,
		"suggestion":         trend.Trend.Suggestion,
		"average_remembered": trend.Trend.AverageRemembered,
		"samples":            trend.Trend.Samples,
	})
}

func (h *Handlers) DueSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := h.svc.Today()
	if raw := request.GetString("date", ""); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("date: %v", err)), nil
		}
		date = parsed
	}
	sessions, err := h.svc.UserDueSessions(ctx, h.user, date)
	if err != nil {
		return h.toolError("due_sessions", err)
	}
	return jsonResult(map[string]interface{}{"date": date, "sessions": sessions})
}
