// ABOUTME: Topic persistence; topics are created together with their sessions
// ABOUTME: DeleteTopic cascades explicitly so SQLite and Postgres behave the same
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/models"
)

// CreateTopic inserts topic and its sessions atomically
func (db *DB) CreateTopic(ctx context.Context, topic *models.Topic, sessions []models.Session) error {
	return db.Transaction(ctx, func(tx *DB) error {
		if err := tx.ctx(ctx).Omit("Sessions").Create(topic).Error; err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}
		if len(sessions) == 0 {
			return nil
		}
		if err := tx.ctx(ctx).Create(&sessions).Error; err != nil {
			return fmt.Errorf("failed to create sessions: %w", err)
		}
		topic.Sessions = sessions
		return nil
	})
}

func (db *DB) GetTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var topic models.Topic
	if err := db.ctx(ctx).First(&topic, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "topic")
	}
	return &topic, nil
}

// ListTopics returns a user's topics in creation order
func (db *DB) ListTopics(ctx context.Context, userID uuid.UUID) ([]models.Topic, error) {
	var topics []models.Topic
	err := db.ctx(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// DeleteTopic removes a topic and everything hanging off its sessions
func (db *DB) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	return db.Transaction(ctx, func(tx *DB) error {
		res := tx.ctx(ctx).Delete(&models.Topic{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete topic: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("topic: %w", ErrNotFound)
		}

		sessionIDs := tx.ctx(ctx).Model(&models.Session{}).Select("id").Where("topic_id = ?", id)
		steps := []struct {
			model interface{}
			query string
			args  []interface{}
		}{
			{&models.NotePoint{}, "session_id IN (?)", []interface{}{sessionIDs}},
			{&models.Comparison{}, "session_id IN (?) OR compared_to_session_id IN (?)", []interface{}{sessionIDs, sessionIDs}},
			{&models.SoloMetric{}, "session_id IN (?)", []interface{}{sessionIDs}},
			{&models.Notification{}, "topic_id = ?", []interface{}{id}},
			{&models.Session{}, "topic_id = ?", []interface{}{id}},
		}
		for _, step := range steps {
			if err := tx.ctx(ctx).Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to cascade topic delete: %w", err)
			}
		}
		return nil
	})
}
