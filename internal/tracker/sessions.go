// ABOUTME: Session transitions: reschedule, complete, skip and previous-session lookup
// ABOUTME: Transitions out of a terminal state leave the session unchanged
package tracker

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/models"
)

func (s *Service) GetSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Session, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	return session, err
}

// RescheduleSession moves a session to date. Ownership is checked before the date, and dates before today are rejected.
func (s *Service) RescheduleSession(ctx context.Context, user *models.User, sessionID uuid.UUID, date models.Date) (*models.Session, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, apierr.Validation("invalid_date", "scheduled_for is required")
	}
	if date.Before(s.Today()) {
		return nil, apierr.Validation("invalid_date", "Cannot reschedule to a past date")
	}
	core.Reschedule(session, date)
	if err := s.db.SaveSession(ctx, session); err != nil {
		return nil, apierr.Internal(err)
	}
	return session, nil
}

func (s *Service) CompleteSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Session, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	if !core.Complete(session, s.now()) {
		s.log.Debug("complete ignored on terminal session", "session_id", session.ID, "status", session.Status)
		return session, nil
	}
	if err := s.db.SaveSession(ctx, session); err != nil {
		return nil, apierr.Internal(err)
	}
	return session, nil
}

func (s *Service) SkipSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Session, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	if !core.Skip(session) {
		s.log.Debug("skip ignored on terminal session", "session_id", session.ID, "status", session.Status)
		return session, nil
	}
	if err := s.db.SaveSession(ctx, session); err != nil {
		return nil, apierr.Internal(err)
	}
	return session, nil
}

// PreviousSession returns the sibling with the greatest day index below the session's
func (s *Service) PreviousSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Session, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	return s.previousOf(ctx, session)
}

func (s *Service) previousOf(ctx context.Context, session *models.Session) (*models.Session, error) {
	siblings, err := s.db.ListSessions(ctx, session.TopicID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	prev, err := core.ResolvePrevious(siblings, session.DayIndex)
	if err != nil {
		if errors.Is(err, core.ErrNoPreviousSession) {
			return nil, apierr.NotFound("no_previous_session", "No previous session", err)
		}
		return nil, apierr.Internal(err)
	}
	return &prev, nil
}
