// ABOUTME: NotePoint is one bullet of a session's notes with its embedding
// ABOUTME: The embedding is computed once at write time and never recomputed
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type NotePoint struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_note_points_session_pos" json:"session_id"`
	Position  int             `gorm:"not null;uniqueIndex:idx_note_points_session_pos" json:"position"`
	Text      string          `gorm:"column:point_text;type:text;not null" json:"text"`
	Embedding pgvector.Vector `gorm:"type:vector" json:"-"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

// Vector returns the stored embedding widened to float64
func (n NotePoint) Vector() []float64 {
	raw := n.Embedding.Slice()
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

// SetVector stores a float64 embedding in the pgvector column
func (n *NotePoint) SetVector(v []float64) {
	raw := make([]float32, len(v))
	for i, f := range v {
		raw[i] = float32(f)
	}
	n.Embedding = pgvector.NewVector(raw)
}
