// ABOUTME: Due-session queries for the reminder sweep and for a single user
// ABOUTME: A session is due when it is scheduled for exactly the given date
package tracker

import (
	"context"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/models"
)

// Reminder is a due session with the topic and user needed to notify about it
type Reminder struct {
	Session models.Session
	Topic   models.Topic
	User    models.User
}

// DueSessions returns every scheduled session due on date
func (s *Service) DueSessions(ctx context.Context, date models.Date) ([]models.Session, error) {
	sessions, err := s.db.ListSessionsOn(ctx, date)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return core.SelectDue(sessions, date), nil
}

// UserDueSessions limits DueSessions to topics the user owns
func (s *Service) UserDueSessions(ctx context.Context, user *models.User, date models.Date) ([]models.Session, error) {
	due, err := s.DueSessions(ctx, date)
	if err != nil {
		return nil, err
	}
	topics, err := s.ListTopics(ctx, user)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(topics))
	for _, t := range topics {
		owned[t.ID] = true
	}
	out := make([]models.Session, 0, len(due))
	for _, session := range due {
		if owned[session.TopicID] {
			out = append(out, session)
		}
	}
	return out, nil
}

// DueReminders resolves each due session's topic and owner.
// Sessions whose topic or user has vanished are skipped.
func (s *Service) DueReminders(ctx context.Context, date models.Date) ([]Reminder, error) {
	due, err := s.DueSessions(ctx, date)
	if err != nil {
		return nil, err
	}
	reminders := make([]Reminder, 0, len(due))
	for _, session := range due {
		topic, err := s.db.GetTopic(ctx, session.TopicID)
		if err != nil {
			s.log.Warn("due session without topic", "session_id", session.ID, "error", err)
			continue
		}
		user, err := s.db.GetUser(ctx, topic.UserID)
		if err != nil {
			s.log.Warn("due topic without user", "topic_id", topic.ID, "error", err)
			continue
		}
		reminders = append(reminders, Reminder{Session: session, Topic: *topic, User: *user})
	}
	return reminders, nil
}

// RecordNotifications appends the sweep's notification records as one batch
func (s *Service) RecordNotifications(ctx context.Context, notes []models.Notification) error {
	if err := s.db.CreateNotifications(ctx, notes); err != nil {
		return apierr.Internal(err)
	}
	return nil
}
