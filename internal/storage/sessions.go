// ABOUTME: Session persistence and lookups used by the lifecycle and the sweep
// ABOUTME: Status transitions are decided in core; this layer only saves them
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
)

func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := db.ctx(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// ListSessions returns a topic's sessions ordered by day index
func (db *DB) ListSessions(ctx context.Context, topicID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := db.ctx(ctx).
		Where("topic_id = ?", topicID).
		Order("day_index ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListSessionsOn returns every session scheduled for date regardless of status
func (db *DB) ListSessionsOn(ctx context.Context, date models.Date) ([]models.Session, error) {
	var sessions []models.Session
	err := db.ctx(ctx).
		Where("scheduled_for = ?", date).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for %s: %w", date, err)
	}
	return sessions, nil
}

// SaveSession writes the session's mutable fields
func (db *DB) SaveSession(ctx context.Context, session *models.Session) error {
	err := db.ctx(ctx).
		Model(session).
		Select("scheduled_for", "status", "completed_at").
		Updates(session).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
