// ABOUTME: Due-notification sweep: one reminder email per due session, recorded as one batch
// ABOUTME: Failures are isolated per reminder unless fail-fast is configured
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/email"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
)

const reminderSubject = "Study Reminder"

// Source supplies due reminders and stores the notification records
type Source interface {
	DueReminders(ctx context.Context, date models.Date) ([]tracker.Reminder, error)
	RecordNotifications(ctx context.Context, notes []models.Notification) error
}

// Failure is one reminder that could not be sent
type Failure struct {
	SessionID uuid.UUID
	Err       error
}

// Report summarizes a single sweep
type Report struct {
	Date     models.Date
	Due      int
	Sent     int
	NoEmail  int
	Failures []Failure
}

// Err joins the per-reminder failures, nil when every send succeeded
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("session %s: %w", f.SessionID, f.Err))
	}
	return errors.Join(errs...)
}

type Sweeper struct {
	src      Source
	mailer   email.Mailer
	log      *logger.Logger
	failFast bool
	now      func() time.Time
}

func NewSweeper(src Source, mailer email.Mailer, log *logger.Logger, failFast bool) *Sweeper {
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{
		src:      src,
		mailer:   mailer,
		log:      log.With("component", "ReminderSweep"),
		failFast: failFast,
		now:      time.Now,
	}
}

// ReminderBody is the text of the email sent for a due session
func ReminderBody(session models.Session, topic models.Topic) string {
	return fmt.Sprintf("Your session (%s) for '%s' is due today.", session.DayIndex, topic.Title)
}

// Run sends reminders for sessions due on date. Records for every reminder that
// was sent are committed together, also when fail-fast stops the run early.
func (s *Sweeper) Run(ctx context.Context, date models.Date) (*Report, error) {
	reminders, err := s.src.DueReminders(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading due sessions: %w", err)
	}

	report := &Report{Date: date, Due: len(reminders)}
	notes := make([]models.Notification, 0, len(reminders))
	var abort error

	for _, r := range reminders {
		if err := ctx.Err(); err != nil {
			abort = err
			break
		}
		if r.User.Email == "" {
			report.NoEmail++
			s.log.Debug("user has no email, skipping reminder", "user_id", r.User.ID, "session_id", r.Session.ID)
			continue
		}

		msg := email.Message{
			To:      r.User.Email,
			Subject: reminderSubject,
			Body:    ReminderBody(r.Session, r.Topic),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			report.Failures = append(report.Failures, Failure{SessionID: r.Session.ID, Err: err})
			s.log.Warn("reminder failed", "session_id", r.Session.ID, "error", err)
			if s.failFast {
				abort = err
				break
			}
			continue
		}

		report.Sent++
		notes = append(notes, models.Notification{
			ID:        uuid.New(),
			UserID:    r.User.ID,
			TopicID:   r.Topic.ID,
			SessionID: r.Session.ID,
			Method:    models.NotificationMethodEmail,
			SentAt:    s.now().UTC(),
		})
	}

	if err := s.src.RecordNotifications(ctx, notes); err != nil {
		return report, fmt.Errorf("recording notifications: %w", err)
	}
	if abort != nil {
		return report, fmt.Errorf("sweep aborted: %w", abort)
	}

	s.log.Info("reminder sweep finished",
		"date", date.String(),
		"due", report.Due,
		"sent", report.Sent,
		"without_address", report.NoEmail,
		"failed", len(report.Failures))
	return report, nil
}
