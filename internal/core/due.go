// ABOUTME: Due-session selector used by the daily reminder sweep
// ABOUTME: Pure filter; dispatch and persistence happen elsewhere
package core

import "github.com/harper/recall-tracker/internal/models"

// SelectDue keeps sessions scheduled for today that are still pending, in input order
func SelectDue(sessions []models.Session, today models.Date) []models.Session {
	due := make([]models.Session, 0)
	for _, s := range sessions {
		if s.ScheduledFor == today && s.Status == models.StatusScheduled {
			due = append(due, s)
		}
	}
	return due
}
