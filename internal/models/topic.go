// ABOUTME: User and Topic represent a learner and a subject they study
// ABOUTME: A topic owns exactly three sessions created alongside it
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is keyed by the identity provider's subject
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Auth0Sub  string    `gorm:"column:auth0_sub;uniqueIndex;not null" json:"auth0_sub"`
	Email     string    `gorm:"index" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TopicMode chooses between automated comparison and self-reported metrics
type TopicMode string

const (
	ModeAutomated TopicMode = "automated"
	ModeSolo      TopicMode = "solo"
)

func (m TopicMode) Valid() bool {
	return m == ModeAutomated || m == ModeSolo
}

type Topic struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Mode        TopicMode `gorm:"type:varchar(16);not null" json:"mode"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	Sessions    []Session `gorm:"foreignKey:TopicID" json:"sessions,omitempty"`
}

// Validate checks if the Topic has valid data
func (t *Topic) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if !t.Mode.Valid() {
		return fmt.Errorf("mode must be %q or %q", ModeAutomated, ModeSolo)
	}
	return nil
}
