// ABOUTME: Comparison, SoloMetric and Notification records
// ABOUTME: Comparisons keep history; the newest one per session is canonical
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MissedPoint is a previous-session point that was not recalled
type MissedPoint struct {
	Text        string     `json:"text"`
	PrevPointID *uuid.UUID `json:"prev_point_id,omitempty"`
}

type Comparison struct {
	ID                  uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID           uuid.UUID                        `gorm:"type:uuid;not null;index" json:"session_id"`
	ComparedToSessionID *uuid.UUID                       `gorm:"type:uuid;index" json:"compared_to_session_id"`
	RecallScore         float64                          `gorm:"not null" json:"recall_score"`
	MissedPoints        datatypes.JSONSlice[MissedPoint] `json:"missed_points"`
	CreatedAt           time.Time                        `gorm:"not null;index" json:"created_at"`
}

// SoloMetric is a self-reported retention pair, nominally 0-100 each
type SoloMetric struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID         uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	PercentCovered    float64   `json:"percent_covered"`
	PercentRemembered float64   `json:"percent_remembered"`
	CreatedAt         time.Time `gorm:"not null;index" json:"created_at"`
}

const NotificationMethodEmail = "email"

// Notification is an append-only record of a dispatched reminder
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Method    string    `gorm:"type:varchar(16);not null;default:email" json:"method"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
}
