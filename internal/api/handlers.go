// ABOUTME: HTTP handlers translating JSON requests into tracker service calls
// ABOUTME: Errors are rendered as {"detail", "code"} with the status carried by apierr
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
)

type Handler struct {
	svc *tracker.Service
	log *logger.Logger
}

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func respondError(c *gin.Context, err error) {
	e := apierr.As(err)
	c.AbortWithStatusJSON(e.Status, errorBody{Detail: apierr.Detail(err), Code: e.Code})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierr.Validation("invalid_id", "Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apierr.Validation("invalid_request", err.Error()))
		return false
	}
	return true
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "123tracker API"})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		h.log.Error("health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

type createTopicRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Mode        models.TopicMode `json:"mode" binding:"required"`
}

func (h *Handler) CreateTopic(c *gin.Context) {
	var req createTopicRequest
	if !bindJSON(c, &req) {
		return
	}
	topic, err := h.svc.CreateTopic(c.Request.Context(), currentUser(c), tracker.TopicInput{
		Title:       req.Title,
		Description: req.Description,
		Mode:        req.Mode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

func (h *Handler) ListTopics(c *gin.Context) {
	topics, err := h.svc.ListTopics(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

func (h *Handler) GetTopic(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	topic, err := h.svc.GetTopic(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

func (h *Handler) DeleteTopic(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTopic(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListSessions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sessions, err := h.svc.ListSessions(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type trendResponse struct {
	Metrics           []models.SoloMetric `json:"metrics"`
	Suggestion        string              `json:"suggestion"`
	Kind              core.TrendKind      `json:"kind"`
	AverageRemembered float64             `json:"average_remembered"`
}

func (h *Handler) SoloTrend(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	trend, err := h.svc.SoloTrend(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics := trend.Metrics
	if metrics == nil {
		metrics = []models.SoloMetric{}
	}
	c.JSON(http.StatusOK, trendResponse{
		Metrics:           metrics,
		Suggestion:        trend.Trend.Suggestion,
		Kind:              trend.Trend.Kind,
		AverageRemembered: trend.Trend.AverageRemembered,
	})
}

func (h *Handler) GetSession(c *gin.Context) {
	h.sessionAction(c, h.svc.GetSession)
}

// PreviousSession returns the session the given one is compared against
func (h *Handler) PreviousSession(c *gin.Context) {
	h.sessionAction(c, h.svc.PreviousSession)
}

func (h *Handler) CompleteSession(c *gin.Context) {
	h.sessionAction(c, h.svc.CompleteSession)
}

func (h *Handler) SkipSession(c *gin.Context) {
	h.sessionAction(c, h.svc.SkipSession)
}

type sessionFunc func(ctx context.Context, user *models.User, id uuid.UUID) (*models.Session, error)

func (h *Handler) sessionAction(c *gin.Context, fn sessionFunc) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	session, err := fn(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type rescheduleRequest struct {
	ScheduledFor *models.Date `json:"scheduled_for" binding:"required"`
}

func (h *Handler) RescheduleSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.svc.RescheduleSession(c.Request.Context(), currentUser(c), id, *req.ScheduledFor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type notesRequest struct {
	Points []string `json:"points"`
}

type notesResponse struct {
	Points []string `json:"points"`
}

func pointTexts(points []models.NotePoint) []string {
	texts := make([]string, len(points))
	for i, p := range points {
		texts[i] = p.Text
	}
	return texts
}

func (h *Handler) AddNotes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req notesRequest
	if !bindJSON(c, &req) {
		return
	}
	points, err := h.svc.AddNotes(c.Request.Context(), currentUser(c), id, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notesResponse{Points: pointTexts(points)})
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	points, err := h.svc.ListNotes(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notesResponse{Points: pointTexts(points)})
}

func (h *Handler) CompareSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	comparison, err := h.svc.CompareSession(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (h *Handler) LatestComparison(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	comparison, err := h.svc.LatestComparison(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

type soloRequest struct {
	PercentCovered    *float64 `json:"percent_covered" binding:"required"`
	PercentRemembered *float64 `json:"percent_remembered" binding:"required"`
}

func (h *Handler) AddSoloMetric(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req soloRequest
	if !bindJSON(c, &req) {
		return
	}
	metric, err := h.svc.AddSoloMetric(c.Request.Context(), currentUser(c), id, *req.PercentCovered, *req.PercentRemembered)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, metric)
}
