// ABOUTME: Comparison, solo metric and notification persistence
// ABOUTME: All three are append-only; reads pick the newest rows first
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
)

func (db *DB) SaveComparison(ctx context.Context, c *models.Comparison) error {
	if err := db.ctx(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	return nil
}

// LatestComparison returns the most recently created comparison for a session
func (db *DB) LatestComparison(ctx context.Context, sessionID uuid.UUID) (*models.Comparison, error) {
	var c models.Comparison
	err := db.ctx(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "comparison")
	}
	return &c, nil
}

func (db *DB) AddSoloMetric(ctx context.Context, m *models.SoloMetric) error {
	if err := db.ctx(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to save solo metric: %w", err)
	}
	return nil
}

// RecentSoloMetrics returns up to limit metrics across a topic's sessions, newest first
func (db *DB) RecentSoloMetrics(ctx context.Context, topicID uuid.UUID, limit int) ([]models.SoloMetric, error) {
	var metrics []models.SoloMetric
	err := db.ctx(ctx).
		Joins("JOIN sessions ON sessions.id = solo_metrics.session_id").
		Where("sessions.topic_id = ?", topicID).
		Order("solo_metrics.created_at DESC").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list solo metrics: %w", err)
	}
	return metrics, nil
}

// CreateNotifications appends notification records in one batch
func (db *DB) CreateNotifications(ctx context.Context, notes []models.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	if err := db.ctx(ctx).Create(&notes).Error; err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

// ListNotifications returns the reminders sent for a session, oldest first
func (db *DB) ListNotifications(ctx context.Context, sessionID uuid.UUID) ([]models.Notification, error) {
	var notes []models.Notification
	err := db.ctx(ctx).
		Where("session_id = ?", sessionID).
		Order("sent_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notes, nil
}
