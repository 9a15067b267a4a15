// ABOUTME: HTTP middleware: request IDs, request logging, CORS and bearer authentication
// ABOUTME: Authentication resolves the caller to a stored user for the handlers
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/auth"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUser         = "user"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
		}
		if u, ok := c.Get(ctxUser); ok {
			fields = append(fields, "user_id", u.(*models.User).ID.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// CORS allows the configured frontend origin with credentials
func CORS(frontendURL string) gin.HandlerFunc {
	origins := []string{"http://localhost:5173"}
	if frontendURL != "" {
		origins = []string{strings.TrimRight(frontendURL, "/")}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequireAuth verifies the bearer token and loads or creates the caller's user
func RequireAuth(verifier auth.Verifier, svc *tracker.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, apierr.Unauthorized("Not authenticated"))
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.Debug("token rejected", "error", err, "request_id", c.GetString(ctxRequestID))
			respondError(c, authError(err))
			return
		}

		user, err := svc.EnsureUser(c.Request.Context(), id.Subject, id.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func authError(err error) error {
	for _, known := range []error{auth.ErrInvalidHeader, auth.ErrMissingSub, auth.ErrInvalidToken} {
		if errors.Is(err, known) {
			return apierr.Unauthorized(known.Error())
		}
	}
	return apierr.New(http.StatusServiceUnavailable, "auth_unavailable", err)
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(ctxUser).(*models.User)
}
