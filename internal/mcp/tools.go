// ABOUTME: MCP tool definitions and registration for the recall tracker
// ABOUTME: Exposes topics, sessions, notes, comparisons and solo metrics to LLM agents
package mcp

import (
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func idProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": what + " ID (UUID)",
	}
}

// RegisterTools registers all MCP tools with the server, acting as user
func RegisterTools(server *mcpserver.MCPServer, svc *tracker.Service, user *models.User, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	handlers := &Handlers{svc: svc, user: user, log: log.With("component", "MCP")}

	// 1. create_topic - Start tracking a topic with its day 1/3/7 sessions
	server.AddTool(mcp.Tool{
		Name:        "create_topic",
		Description: "Create a study topic. Three review sessions are scheduled 1, 3 and 7 days from today.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Topic title",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional description",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(models.ModeAutomated), string(models.ModeSolo)},
					"description": "automated compares notes between sessions; solo records self-reported metrics",
					"default":     string(models.ModeAutomated),
				},
			},
			Required: []string{"title"},
		},
	}, handlers.CreateTopic)

	// 2. list_topics - List the user's topics
	server.AddTool(mcp.Tool{
		Name:        "list_topics",
		Description: "List all study topics in creation order.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListTopics)

	// 3. list_sessions - Sessions of one topic
	server.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List a topic's sessions ordered by day index, with dates and status.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"topic_id": idProperty("Topic")},
			Required:   []string{"topic_id"},
		},
	}, handlers.ListSessions)

	// 4. add_notes - Record recalled points for a session
	server.AddTool(mcp.Tool{
		Name:        "add_notes",
		Description: "Add note points (one idea each) to a session. Points are embedded once and kept in order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": idProperty("Session"),
				"points": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Note points to add",
				},
			},
			Required: []string{"session_id", "points"},
		},
	}, handlers.AddNotes)

	// 5. compare_session - Score recall against the previous session
	server.AddTool(mcp.Tool{
		Name:        "compare_session",
		Description: "Compare a session's notes with the previous session's and report the recall score and missed points.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": idProperty("Session")},
			Required:   []string{"session_id"},
		},
	}, handlers.CompareSession)

	// 6. previous_session - Which session a comparison would use
	server.AddTool(mcp.Tool{
		Name:        "previous_session",
		Description: "Show the session a session's notes are compared against: the one with the next lower day index. Day 1 has none.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": idProperty("Session")},
			Required:   []string{"session_id"},
		},
	}, handlers.PreviousSession)

	// 7. complete_session
	server.AddTool(mcp.Tool{
		Name:        "complete_session",
		Description: "Mark a scheduled session completed. Completed or skipped sessions are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": idProperty("Session")},
			Required:   []string{"session_id"},
		},
	}, handlers.CompleteSession)

	// 8. skip_session
	server.AddTool(mcp.Tool{
		Name:        "skip_session",
		Description: "Mark a scheduled session skipped. Completed or skipped sessions are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": idProperty("Session")},
			Required:   []string{"session_id"},
		},
	}, handlers.SkipSession)

	// 9. reschedule_session
	server.AddTool(mcp.Tool{
		Name:        "reschedule_session",
		Description: "Move a session to another date (YYYY-MM-DD). Past dates are rejected.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": idProperty("Session"),
				"scheduled_for": map[string]interface{}{
					"type":        "string",
					"description": "New date, YYYY-MM-DD",
				},
			},
			Required: []string{"session_id", "scheduled_for"},
		},
	}, handlers.RescheduleSession)

	// 10. record_solo_metric
	server.AddTool(mcp.Tool{
		Name:        "record_solo_metric",
		Description: "Record self-reported coverage and retention percentages for a session.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": idProperty("Session"),
				"percent_covered": map[string]interface{}{
					"type":        "number",
					"description": "Share of the material covered, 0-100",
				},
				"percent_remembered": map[string]interface{}{
					"type":        "number",
					"description": "Share of the material remembered, 0-100",
				},
			},
			Required: []string{"session_id", "percent_covered", "percent_remembered"},
		},
	}, handlers.RecordSoloMetric)

	// 11. solo_trend
	server.AddTool(mcp.Tool{
		Name:        "solo_trend",
		Description: "Summarize recent solo metrics for a topic and suggest whether to lengthen or shorten intervals.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"topic_id": idProperty("Topic")},
			Required:   []string{"topic_id"},
		},
	}, handlers.SoloTrend)

	// 12. due_sessions
	server.AddTool(mcp.Tool{
		Name:        "due_sessions",
		Description: "List scheduled sessions due on a date (default today).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Date to check, YYYY-MM-DD (default: today)",
				},
			},
		},
	}, handlers.DueSessions)

	return handlers
}
