// ABOUTME: Note point persistence with embeddings in a pgvector column
// ABOUTME: Points keep insertion order through an explicit position
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
)

// AddNotePoints appends points to a session, numbering them after any existing ones.
// The unique (session_id, position) index rejects a concurrent append that read the same count.
func (db *DB) AddNotePoints(ctx context.Context, sessionID uuid.UUID, points []models.NotePoint) error {
	if len(points) == 0 {
		return nil
	}
	return db.Transaction(ctx, func(tx *DB) error {
		next, err := tx.CountNotePoints(ctx, sessionID)
		if err != nil {
			return err
		}
		for i := range points {
			points[i].SessionID = sessionID
			points[i].Position = next + i
		}
		if err := tx.ctx(ctx).Create(&points).Error; err != nil {
			return fmt.Errorf("failed to save note points: %w", err)
		}
		return nil
	})
}

// ListNotePoints returns a session's points in insertion order
func (db *DB) ListNotePoints(ctx context.Context, sessionID uuid.UUID) ([]models.NotePoint, error) {
	var points []models.NotePoint
	err := db.ctx(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list note points: %w", err)
	}
	return points, nil
}

// CountNotePoints returns how many points a session already holds
func (db *DB) CountNotePoints(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int64
	if err := db.ctx(ctx).Model(&models.NotePoint{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count note points: %w", err)
	}
	return int(n), nil
}
