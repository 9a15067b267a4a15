// ABOUTME: Service layer for topics, sessions, notes, comparisons and solo metrics
// ABOUTME: Enforces ownership and maps storage and core failures onto apierr codes
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/storage"
)

// Embedder embeds a batch of texts, preserving order
type Embedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds the tunables the service applies
type Config struct {
	Threshold   float64
	MaxPoints   int
	Trend       core.TrendConfig
	TrendWindow int
	Location    *time.Location
}

func DefaultConfig() Config {
	return Config{
		Threshold:   core.DefaultThreshold,
		MaxPoints:   200,
		Trend:       core.DefaultTrendConfig(),
		TrendWindow: 10,
		Location:    time.UTC,
	}
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

type Service struct {
	db       *storage.DB
	embedder Embedder
	cfg      Config
	now      func() time.Time
	log      *logger.Logger
}

func New(db *storage.DB, embedder Embedder, cfg Config, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Service{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date in the configured timezone
func (s *Service) Today() models.Date {
	return models.DateOf(s.now().In(s.cfg.Location))
}

// EnsureUser resolves a verified identity to a stored user, creating it on first sight
func (s *Service) EnsureUser(ctx context.Context, sub, email string) (*models.User, error) {
	if sub == "" {
		return nil, apierr.Unauthorized("Token missing sub")
	}
	user, err := s.db.GetOrCreateUser(ctx, sub, email)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return user, nil
}

func (s *Service) ownedTopic(ctx context.Context, user *models.User, topicID uuid.UUID) (*models.Topic, error) {
	topic, err := s.db.GetTopic(ctx, topicID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("topic_not_found", "Topic not found", err)
		}
		return nil, apierr.Internal(err)
	}
	if topic.UserID != user.ID {
		return nil, apierr.Forbidden("Not authorized to access this topic")
	}
	return topic, nil
}

// ownedSession loads a session together with its topic, checking the topic's owner
func (s *Service) ownedSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Session, *models.Topic, error) {
	session, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apierr.NotFound("session_not_found", "Session not found", err)
		}
		return nil, nil, apierr.Internal(err)
	}
	topic, err := s.ownedTopic(ctx, user, session.TopicID)
	if err != nil {
		return nil, nil, err
	}
	return session, topic, nil
}

// Ping checks that the database is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
