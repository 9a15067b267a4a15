// ABOUTME: Tests for the tracker's data model types
// ABOUTME: Covers Date arithmetic and serialization plus entity validation
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDate_AddDaysCrossesMonth(t *testing.T) {
	d := NewDate(2024, time.January, 30)

	tests := []struct {
		days int
		want string
	}{
		{1, "2024-01-31"},
		{3, "2024-02-02"},
		{7, "2024-02-06"},
		{-30, "2023-12-31"},
	}
	for _, tt := range tests {
		if got := d.AddDays(tt.days).String(); got != tt.want {
			t.Errorf("AddDays(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.March, 9)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2025-03-09"` {
		t.Errorf("Marshal() = %s, want \"2025-03-09\"", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("Unmarshal() = %v, want %v", back, d)
	}
}

func TestDate_UnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"09/03/2025"`), &d); err == nil {
		t.Error("expected error for non ISO date")
	}
	if err := json.Unmarshal([]byte(`20250309`), &d); err == nil {
		t.Error("expected error for numeric date")
	}
}

func TestDate_Scan(t *testing.T) {
	want := NewDate(2024, time.July, 4)
	inputs := []interface{}{
		"2024-07-04",
		[]byte("2024-07-04"),
		"2024-07-04T00:00:00Z",
		time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d Date
		if err := d.Scan(in); err != nil {
			t.Fatalf("Scan(%v) error = %v", in, err)
		}
		if d != want {
			t.Errorf("Scan(%v) = %v, want %v", in, d, want)
		}
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) expected error")
	}
}

func TestDate_Ordering(t *testing.T) {
	a := NewDate(2024, time.May, 1)
	b := a.AddDays(1)
	if !a.Before(b) || !b.After(a) || a.After(b) {
		t.Errorf("ordering of %v and %v is wrong", a, b)
	}
	if !(Date{}).IsZero() || a.IsZero() {
		t.Error("IsZero() mismatch")
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	instant := time.Date(2024, time.June, 1, 20, 0, 0, 0, time.UTC)

	if got := DateOf(instant.In(tokyo)).String(); got != "2024-06-02" {
		t.Errorf("DateOf(tokyo) = %s, want 2024-06-02", got)
	}
}

func TestSession_Validate(t *testing.T) {
	now := time.Now().UTC()
	valid := Session{
		TopicID:      uuid.New(),
		DayIndex:     Day3,
		ScheduledFor: NewDate(2024, time.January, 4),
		Status:       StatusScheduled,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"nil topic", func(s *Session) { s.TopicID = uuid.Nil }},
		{"day index 2", func(s *Session) { s.DayIndex = 2 }},
		{"unknown status", func(s *Session) { s.Status = "paused" }},
		{"no date", func(s *Session) { s.ScheduledFor = Date{} }},
		{"completed_at while scheduled", func(s *Session) { s.CompletedAt = &now }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestSessionStatus_Terminal(t *testing.T) {
	if StatusScheduled.Terminal() {
		t.Error("scheduled must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusSkipped.Terminal() {
		t.Error("completed and skipped must be terminal")
	}
}

func TestTopic_Validate(t *testing.T) {
	topic := Topic{Title: "Linear algebra", Mode: ModeAutomated}
	if err := topic.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	topic.Title = "   "
	if err := topic.Validate(); err == nil {
		t.Error("Validate() expected error for blank title")
	}

	topic.Title = "Go"
	topic.Mode = "manual"
	if err := topic.Validate(); err == nil {
		t.Error("Validate() expected error for unknown mode")
	}
}

func TestNotePoint_VectorRoundTrip(t *testing.T) {
	var n NotePoint
	n.SetVector([]float64{0.6, 0.8})

	got := n.Vector()
	if len(got) != 2 {
		t.Fatalf("Vector() len = %d, want 2", len(got))
	}
	if diff := got[0] - 0.6; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Vector()[0] = %f, want 0.6", got[0])
	}
}
