// ABOUTME: Topic operations; creating a topic also schedules its three sessions
// ABOUTME: Deleting a topic removes everything recorded under it
package tracker

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/storage"
)

type TopicInput struct {
	Title       string
	Description string
	Mode        models.TopicMode
}

// CreateTopic stores the topic and its day 1/3/7 sessions atomically.
// Sessions are scheduled relative to today in the configured timezone.
func (s *Service) CreateTopic(ctx context.Context, user *models.User, in TopicInput) (*models.Topic, error) {
	topic := &models.Topic{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Mode:        in.Mode,
		CreatedAt:   s.now().UTC(),
	}
	if err := topic.Validate(); err != nil {
		return nil, apierr.Validation("invalid_topic", err.Error())
	}

	sessions := core.NewSessions(topic.ID, s.Today())
	for i := range sessions {
		sessions[i].CreatedAt = topic.CreatedAt
	}
	if err := s.db.CreateTopic(ctx, topic, sessions); err != nil {
		return nil, apierr.Internal(err)
	}
	topic.Sessions = sessions

	s.log.Info("topic created", "topic_id", topic.ID, "user_id", user.ID, "mode", topic.Mode)
	return topic, nil
}

// ListTopics returns the user's topics in creation order
func (s *Service) ListTopics(ctx context.Context, user *models.User) ([]models.Topic, error) {
	topics, err := s.db.ListTopics(ctx, user.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return topics, nil
}

func (s *Service) GetTopic(ctx context.Context, user *models.User, topicID uuid.UUID) (*models.Topic, error) {
	return s.ownedTopic(ctx, user, topicID)
}

func (s *Service) DeleteTopic(ctx context.Context, user *models.User, topicID uuid.UUID) error {
	if _, err := s.ownedTopic(ctx, user, topicID); err != nil {
		return err
	}
	if err := s.db.DeleteTopic(ctx, topicID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apierr.NotFound("topic_not_found", "Topic not found", err)
		}
		return apierr.Internal(err)
	}
	s.log.Info("topic deleted", "topic_id", topicID, "user_id", user.ID)
	return nil
}

// ListSessions returns a topic's sessions ordered by day index
func (s *Service) ListSessions(ctx context.Context, user *models.User, topicID uuid.UUID) ([]models.Session, error) {
	if _, err := s.ownedTopic(ctx, user, topicID); err != nil {
		return nil, err
	}
	sessions, err := s.db.ListSessions(ctx, topicID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return sessions, nil
}
