// ABOUTME: Session lifecycle: creation of the day 1/3/7 schedule and status transitions
// ABOUTME: scheduled is the only non-terminal state; terminal sessions are left untouched
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
)

// NewSessions builds the three sessions of a topic, in day index order
func NewSessions(topicID uuid.UUID, creationDate models.Date) []models.Session {
	sessions := make([]models.Session, 0, len(models.DayIndexes))
	for _, day := range models.DayIndexes {
		sessions = append(sessions, models.Session{
			ID:           uuid.New(),
			TopicID:      topicID,
			DayIndex:     day,
			ScheduledFor: creationDate.AddDays(int(day)),
			Status:       models.StatusScheduled,
		})
	}
	return sessions
}

// Reschedule moves the session to date. Rejecting past dates is the caller's job.
func Reschedule(s *models.Session, date models.Date) {
	s.ScheduledFor = date
}

// Complete marks a scheduled session completed at now (stored in UTC).
// It returns false and leaves s untouched when s is already terminal.
func Complete(s *models.Session, now time.Time) bool {
	if s.Status.Terminal() {
		return false
	}
	completedAt := now.UTC()
	s.Status = models.StatusCompleted
	s.CompletedAt = &completedAt
	return true
}

// Skip marks a scheduled session skipped. Terminal sessions are left untouched.
func Skip(s *models.Session) bool {
	if s.Status.Terminal() {
		return false
	}
	s.Status = models.StatusSkipped
	return true
}

// ResolvePrevious returns the session with the greatest day index below dayIndex.
// Ordering is by day index, never by scheduled date.
func ResolvePrevious(sessions []models.Session, dayIndex models.DayIndex) (models.Session, error) {
	var (
		prev  models.Session
		found bool
	)
	for _, s := range sessions {
		if s.DayIndex >= dayIndex {
			continue
		}
		if !found || s.DayIndex > prev.DayIndex {
			prev = s
			found = true
		}
	}
	if !found {
		return models.Session{}, fmt.Errorf("before %s: %w", dayIndex, ErrNoPreviousSession)
	}
	return prev, nil
}
