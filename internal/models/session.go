// ABOUTME: Session is one spaced-repetition slot (day 1, 3 or 7) of a topic
// ABOUTME: Defines the DayIndex and SessionStatus enumerations
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DayIndex identifies which of a topic's three sessions this is
type DayIndex int

const (
	Day1 DayIndex = 1
	Day3 DayIndex = 3
	Day7 DayIndex = 7
)

// DayIndexes lists every slot in schedule order
var DayIndexes = []DayIndex{Day1, Day3, Day7}

func (d DayIndex) Valid() bool {
	return d == Day1 || d == Day3 || d == Day7
}

func (d DayIndex) String() string {
	return fmt.Sprintf("Day %d", int(d))
}

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusCompleted SessionStatus = "completed"
	StatusSkipped   SessionStatus = "skipped"
)

// Terminal reports whether no further transition is defined from s
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

func (s SessionStatus) Valid() bool {
	return s == StatusScheduled || s.Terminal()
}

type Session struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_topic_day" json:"topic_id"`
	DayIndex     DayIndex      `gorm:"not null;uniqueIndex:idx_sessions_topic_day" json:"day_index"`
	ScheduledFor Date          `gorm:"not null;index" json:"scheduled_for"`
	Status       SessionStatus `gorm:"type:varchar(16);not null;default:scheduled;index" json:"status"`
	CompletedAt  *time.Time    `json:"completed_at"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
}

// Validate checks if the Session has valid data
func (s *Session) Validate() error {
	if s.TopicID == uuid.Nil {
		return errors.New("session topic ID cannot be empty")
	}
	if !s.DayIndex.Valid() {
		return fmt.Errorf("invalid day index %d", s.DayIndex)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("invalid status %q", s.Status)
	}
	if s.ScheduledFor.IsZero() {
		return errors.New("scheduled date cannot be empty")
	}
	if s.CompletedAt != nil && s.Status != StatusCompleted {
		return errors.New("completed_at is only set on completed sessions")
	}
	return nil
}
