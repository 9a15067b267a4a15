// ABOUTME: Gin router exposing the tracker service over HTTP
// ABOUTME: Everything except the root and health routes requires a bearer token
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/harper/recall-tracker/internal/auth"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/tracker"
)

type RouterConfig struct {
	Service     *tracker.Service
	Verifier    auth.Verifier
	Logger      *logger.Logger
	FrontendURL string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{svc: cfg.Service, log: log.With("component", "API")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.FrontendURL))

	r.GET("/", h.Root)
	r.GET("/healthz", h.Health)

	protected := r.Group("/")
	protected.Use(RequireAuth(cfg.Verifier, cfg.Service, log))
	{
		protected.GET("/me", h.Me)

		protected.POST("/topics", h.CreateTopic)
		protected.GET("/topics", h.ListTopics)
		protected.GET("/topics/:id", h.GetTopic)
		protected.DELETE("/topics/:id", h.DeleteTopic)
		protected.GET("/topics/:id/sessions", h.ListSessions)
		protected.GET("/topics/:id/solo/trend", h.SoloTrend)

		protected.GET("/sessions/:id", h.GetSession)
		protected.GET("/sessions/:id/previous", h.PreviousSession)
		protected.PATCH("/sessions/:id/reschedule", h.RescheduleSession)
		protected.POST("/sessions/:id/complete", h.CompleteSession)
		protected.POST("/sessions/:id/skip", h.SkipSession)
		protected.POST("/sessions/:id/notes", h.AddNotes)
		protected.GET("/sessions/:id/notes", h.ListNotes)
		protected.POST("/sessions/:id/compare", h.CompareSession)
		protected.GET("/sessions/:id/comparison", h.LatestComparison)
		protected.POST("/sessions/:id/solo", h.AddSoloMetric)
	}
	return r
}
