// ABOUTME: Service tests over in-memory SQLite and the offline hash encoder
// ABOUTME: Covers scheduling, ownership, transitions, notes, comparison, trend and due queries
package tracker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/embedding"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/storage"
)

// steppingClock advances one second per call so creation order is stable
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T, mutate func(*Config)) *Service {
	t.Helper()
	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	provider := embedding.New(func() (embedding.Encoder, error) {
		return embedding.NewHashEncoder(256), nil
	}, embedding.WithDimension(256))

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := &steppingClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	return New(db, provider, cfg, WithClock(clock.Now))
}

func mustUser(t *testing.T, s *Service, sub string) *models.User {
	t.Helper()
	u, err := s.EnsureUser(context.Background(), sub, sub+"@example.com")
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	return u
}

func mustTopic(t *testing.T, s *Service, u *models.User, mode models.TopicMode) *models.Topic {
	t.Helper()
	topic, err := s.CreateTopic(context.Background(), u, TopicInput{Title: "Cell biology", Mode: mode})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	return topic
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if got := apierr.Status(err); got != status {
		t.Fatalf("status = %d, want %d (err = %v)", got, status, err)
	}
}

func TestCreateTopicSchedulesSessions(t *testing.T) {
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)

	sessions, err := s.ListSessions(context.Background(), u, topic.ID)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	want := []models.Date{
		models.NewDate(2024, 3, 11),
		models.NewDate(2024, 3, 13),
		models.NewDate(2024, 3, 17),
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	for i, session := range sessions {
		if session.DayIndex != models.DayIndexes[i] {
			t.Errorf("session %d day = %d", i, session.DayIndex)
		}
		if session.ScheduledFor != want[i] {
			t.Errorf("session %d scheduled_for = %s, want %s", i, session.ScheduledFor, want[i])
		}
		if session.Status != models.StatusScheduled || session.CompletedAt != nil {
			t.Errorf("session %d = %+v, want fresh scheduled", i, session)
		}
	}
}

func TestCreateTopicUsesConfiguredTimezone(t *testing.T) {
	// 12:00 UTC on the 10th is already the 11th in Auckland
	loc := time.FixedZone("NZDT", 13*3600)
	s := newTestService(t, func(c *Config) { c.Location = loc })
	u := mustUser(t, s, "auth0|nz")
	topic := mustTopic(t, s, u, models.ModeSolo)

	if got := topic.Sessions[0].ScheduledFor; got != models.NewDate(2024, 3, 12) {
		t.Errorf("day 1 scheduled_for = %s, want 2024-03-12", got)
	}
}

func TestCreateTopicValidation(t *testing.T) {
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")

	tests := []struct {
		name string
		in   TopicInput
	}{
		{"blank title", TopicInput{Title: "  ", Mode: models.ModeSolo}},
		{"unknown mode", TopicInput{Title: "Chemistry", Mode: "manual"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTopic(context.Background(), u, tt.in)
			wantStatus(t, err, http.StatusBadRequest)
		})
	}

	topics, _ := s.ListTopics(context.Background(), u)
	if len(topics) != 0 {
		t.Errorf("invalid topics were stored: %d", len(topics))
	}
}

func TestOwnershipAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	owner := mustUser(t, s, "auth0|owner")
	other := mustUser(t, s, "auth0|other")
	topic := mustTopic(t, s, owner, models.ModeAutomated)

	_, err := s.GetTopic(ctx, other, topic.ID)
	wantStatus(t, err, http.StatusForbidden)

	_, err = s.GetSession(ctx, other, topic.Sessions[0].ID)
	wantStatus(t, err, http.StatusForbidden)

	err = s.DeleteTopic(ctx, other, topic.ID)
	wantStatus(t, err, http.StatusForbidden)

	_, err = s.GetTopic(ctx, owner, uuid.New())
	wantStatus(t, err, http.StatusNotFound)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("not-found error should wrap storage.ErrNotFound: %v", err)
	}
	if got := apierr.Detail(err); got != "Topic not found" {
		t.Errorf("Detail() = %q", got)
	}

	_, err = s.GetSession(ctx, owner, uuid.New())
	wantStatus(t, err, http.StatusNotFound)
}

func TestListTopicsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	for _, title := range []string{"first", "second", "third"} {
		if _, err := s.CreateTopic(ctx, u, TopicInput{Title: title, Mode: models.ModeSolo}); err != nil {
			t.Fatalf("CreateTopic() error = %v", err)
		}
	}
	mustTopic(t, s, mustUser(t, s, "auth0|b"), models.ModeSolo)

	topics, err := s.ListTopics(ctx, u)
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(topics) != 3 || topics[0].Title != "first" || topics[2].Title != "third" {
		t.Errorf("ListTopics() = %+v", topics)
	}
}

func TestDeleteTopic(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)
	if _, err := s.AddNotes(ctx, u, topic.Sessions[0].ID, []string{"ribosomes build proteins"}); err != nil {
		t.Fatalf("AddNotes() error = %v", err)
	}

	if err := s.DeleteTopic(ctx, u, topic.ID); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	_, err := s.GetSession(ctx, u, topic.Sessions[0].ID)
	wantStatus(t, err, http.StatusNotFound)
}

func TestRescheduleSession(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)
	id := topic.Sessions[1].ID

	_, err := s.RescheduleSession(ctx, u, id, models.NewDate(2024, 3, 9))
	wantStatus(t, err, http.StatusBadRequest)
	if got := apierr.Detail(err); got != "Cannot reschedule to a past date" {
		t.Errorf("Detail() = %q", got)
	}

	session, err := s.RescheduleSession(ctx, u, id, models.NewDate(2024, 3, 10))
	if err != nil {
		t.Fatalf("RescheduleSession(today) error = %v", err)
	}
	if session.ScheduledFor != models.NewDate(2024, 3, 10) || session.Status != models.StatusScheduled {
		t.Errorf("session = %+v", session)
	}
	stored, _ := s.GetSession(ctx, u, id)
	if stored.ScheduledFor != models.NewDate(2024, 3, 10) {
		t.Errorf("stored scheduled_for = %s", stored.ScheduledFor)
	}
}

func TestRescheduleChecksOwnershipBeforeDate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	owner := mustUser(t, s, "auth0|owner")
	other := mustUser(t, s, "auth0|other")
	topic := mustTopic(t, s, owner, models.ModeAutomated)
	past := models.NewDate(2024, 3, 1)

	_, err := s.RescheduleSession(ctx, owner, uuid.New(), past)
	wantStatus(t, err, http.StatusNotFound)

	_, err = s.RescheduleSession(ctx, other, topic.Sessions[0].ID, past)
	wantStatus(t, err, http.StatusForbidden)

	_, err = s.RescheduleSession(ctx, owner, topic.Sessions[0].ID, past)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestPreviousSession(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)
	day1, day3, day7 := topic.Sessions[0], topic.Sessions[1], topic.Sessions[2]

	prev, err := s.PreviousSession(ctx, u, day3.ID)
	if err != nil {
		t.Fatalf("PreviousSession(day 3) error = %v", err)
	}
	if prev.ID != day1.ID || prev.DayIndex != models.Day1 {
		t.Errorf("PreviousSession(day 3) = day %d, want day 1", prev.DayIndex)
	}

	if _, err := s.SkipSession(ctx, u, day3.ID); err != nil {
		t.Fatalf("SkipSession() error = %v", err)
	}
	prev, err = s.PreviousSession(ctx, u, day7.ID)
	if err != nil {
		t.Fatalf("PreviousSession(day 7) error = %v", err)
	}
	if prev.ID != day3.ID {
		t.Errorf("PreviousSession(day 7) = day %d, want day 3 even when skipped", prev.DayIndex)
	}

	_, err = s.PreviousSession(ctx, u, day1.ID)
	wantStatus(t, err, http.StatusNotFound)
	if got := apierr.As(err).Code; got != "no_previous_session" {
		t.Errorf("Code = %q, want no_previous_session", got)
	}

	_, err = s.PreviousSession(ctx, mustUser(t, s, "auth0|b"), day3.ID)
	wantStatus(t, err, http.StatusForbidden)
}

func TestCompleteAndSkip(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)

	done, err := s.CompleteSession(ctx, u, topic.Sessions[0].ID)
	if err != nil {
		t.Fatalf("CompleteSession() error = %v", err)
	}
	if done.Status != models.StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("completed session = %+v", done)
	}
	completedAt := *done.CompletedAt

	// Terminal sessions stay as they are
	again, err := s.SkipSession(ctx, u, topic.Sessions[0].ID)
	if err != nil {
		t.Fatalf("SkipSession() error = %v", err)
	}
	if again.Status != models.StatusCompleted || !again.CompletedAt.Equal(completedAt) {
		t.Errorf("terminal session changed: %+v", again)
	}

	skipped, err := s.SkipSession(ctx, u, topic.Sessions[1].ID)
	if err != nil {
		t.Fatalf("SkipSession() error = %v", err)
	}
	if skipped.Status != models.StatusSkipped || skipped.CompletedAt != nil {
		t.Errorf("skipped session = %+v", skipped)
	}
	stored, _ := s.GetSession(ctx, u, topic.Sessions[1].ID)
	if stored.Status != models.StatusSkipped {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestAddNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, func(c *Config) { c.MaxPoints = 3 })
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)
	id := topic.Sessions[0].ID

	_, err := s.AddNotes(ctx, u, id, []string{"a", "b", "c", "d"})
	wantStatus(t, err, http.StatusBadRequest)
	if got := apierr.Detail(err); got != "Maximum of 3 points per session" {
		t.Errorf("Detail() = %q", got)
	}

	_, err = s.AddNotes(ctx, u, id, []string{"fine", " "})
	wantStatus(t, err, http.StatusBadRequest)

	if _, err := s.AddNotes(ctx, u, id, []string{"mitochondria make ATP", "nucleus holds DNA"}); err != nil {
		t.Fatalf("AddNotes() error = %v", err)
	}
	if _, err := s.AddNotes(ctx, u, id, []string{"ribosomes build proteins"}); err != nil {
		t.Fatalf("AddNotes() error = %v", err)
	}

	notes, err := s.ListNotes(ctx, u, id)
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	want := []string{"mitochondria make ATP", "nucleus holds DNA", "ribosomes build proteins"}
	if len(notes) != len(want) {
		t.Fatalf("got %d notes, want %d", len(notes), len(want))
	}
	for i, n := range notes {
		if n.Text != want[i] || n.Position != i {
			t.Errorf("note %d = %q at %d", i, n.Text, n.Position)
		}
		if len(n.Vector()) != 256 {
			t.Errorf("note %d embedding dim = %d", i, len(n.Vector()))
		}
	}
}

func TestCompareSession(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)
	day1, day3, day7 := topic.Sessions[0].ID, topic.Sessions[1].ID, topic.Sessions[2].ID

	_, err := s.CompareSession(ctx, u, day3)
	wantStatus(t, err, http.StatusBadRequest)
	if got := apierr.Detail(err); got != "No notes found for current session" {
		t.Errorf("Detail() = %q", got)
	}

	if _, err := s.AddNotes(ctx, u, day1, []string{"mitochondria make ATP", "zebras graze savanna grass"}); err != nil {
		t.Fatalf("AddNotes(day1) error = %v", err)
	}
	_, err = s.CompareSession(ctx, u, day1)
	wantStatus(t, err, http.StatusNotFound)
	if !errors.Is(err, core.ErrNoPreviousSession) {
		t.Errorf("error should wrap ErrNoPreviousSession: %v", err)
	}

	_, err = s.LatestComparison(ctx, u, day3)
	wantStatus(t, err, http.StatusNotFound)

	if _, err := s.AddNotes(ctx, u, day3, []string{"mitochondria make ATP"}); err != nil {
		t.Fatalf("AddNotes(day3) error = %v", err)
	}
	c, err := s.CompareSession(ctx, u, day3)
	if err != nil {
		t.Fatalf("CompareSession() error = %v", err)
	}
	if c.RecallScore != 50 {
		t.Errorf("RecallScore = %v, want 50", c.RecallScore)
	}
	if c.ComparedToSessionID == nil || *c.ComparedToSessionID != day1 {
		t.Errorf("ComparedToSessionID = %v, want %s", c.ComparedToSessionID, day1)
	}
	if len(c.MissedPoints) != 1 || c.MissedPoints[0].Text != "zebras graze savanna grass" {
		t.Fatalf("MissedPoints = %+v", c.MissedPoints)
	}
	day1Notes, _ := s.ListNotes(ctx, u, day1)
	if c.MissedPoints[0].PrevPointID == nil || *c.MissedPoints[0].PrevPointID != day1Notes[1].ID {
		t.Errorf("PrevPointID = %v, want %s", c.MissedPoints[0].PrevPointID, day1Notes[1].ID)
	}

	latest, err := s.LatestComparison(ctx, u, day3)
	if err != nil {
		t.Fatalf("LatestComparison() error = %v", err)
	}
	if latest.ID != c.ID {
		t.Errorf("LatestComparison() = %s, want %s", latest.ID, c.ID)
	}

	// Day 7 compares against day 3 even when day 3 was skipped
	if _, err := s.SkipSession(ctx, u, day3); err != nil {
		t.Fatalf("SkipSession() error = %v", err)
	}
	if _, err := s.AddNotes(ctx, u, day7, []string{"mitochondria make ATP"}); err != nil {
		t.Fatalf("AddNotes(day7) error = %v", err)
	}
	c7, err := s.CompareSession(ctx, u, day7)
	if err != nil {
		t.Fatalf("CompareSession(day7) error = %v", err)
	}
	if *c7.ComparedToSessionID != day3 || c7.RecallScore != 100 || len(c7.MissedPoints) != 0 {
		t.Errorf("day 7 comparison = %+v", c7)
	}
}

func TestCompareSessionRejectsCorruptStoredNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeAutomated)

	blank := models.NotePoint{ID: uuid.New(), Text: "   ", CreatedAt: time.Now().UTC()}
	blank.SetVector(unitVector(256))
	if err := s.db.AddNotePoints(ctx, topic.Sessions[0].ID, []models.NotePoint{blank}); err != nil {
		t.Fatalf("AddNotePoints() error = %v", err)
	}
	if _, err := s.AddNotes(ctx, u, topic.Sessions[1].ID, []string{"ribosomes build proteins"}); err != nil {
		t.Fatalf("AddNotes() error = %v", err)
	}

	_, err := s.CompareSession(ctx, u, topic.Sessions[1].ID)
	wantStatus(t, err, http.StatusInternalServerError)
	if !errors.Is(err, core.ErrEmptyText) {
		t.Errorf("error should wrap core.ErrEmptyText: %v", err)
	}
	if got := apierr.As(err).Code; got != "corrupt_note" {
		t.Errorf("Code = %q, want corrupt_note", got)
	}
}

func TestToPoints(t *testing.T) {
	withVector := models.NotePoint{ID: uuid.New(), Text: "mitochondria make ATP"}
	withVector.SetVector([]float64{1, 0})
	noVector := models.NotePoint{ID: uuid.New(), Text: "nucleus holds DNA"}

	points, err := toPoints([]models.NotePoint{withVector, noVector})
	if err != nil {
		t.Fatalf("toPoints() error = %v", err)
	}
	if len(points) != 2 || points[0].Dim() != 2 || points[1].Dim() != 0 {
		t.Fatalf("toPoints() = %+v", points)
	}
	// The zero Point surfaces as a missing embedding once scored
	if _, err := core.Compare(points[:1], points[1:], 0.8); !errors.Is(err, core.ErrMissingEmbedding) {
		t.Errorf("Compare() error = %v, want ErrMissingEmbedding", err)
	}

	blank := models.NotePoint{ID: uuid.New(), Text: ""}
	blank.SetVector([]float64{1, 0})
	if _, err := toPoints([]models.NotePoint{withVector, blank}); !errors.Is(err, core.ErrEmptyText) {
		t.Errorf("toPoints(blank) error = %v, want ErrEmptyText", err)
	}
}

func unitVector(dim int) []float64 {
	v := make([]float64, dim)
	v[0] = 1
	return v
}

func TestSoloTrend(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, func(c *Config) { c.TrendWindow = 2 })
	u := mustUser(t, s, "auth0|a")
	topic := mustTopic(t, s, u, models.ModeSolo)

	trend, err := s.SoloTrend(ctx, u, topic.ID)
	if err != nil {
		t.Fatalf("SoloTrend() error = %v", err)
	}
	if trend.Trend.Kind != core.TrendNoData || len(trend.Metrics) != 0 {
		t.Errorf("empty trend = %+v", trend)
	}

	// The oldest low score falls outside the window of two
	for i, remembered := range []float64{10, 90, 95} {
		session := topic.Sessions[i].ID
		if _, err := s.AddSoloMetric(ctx, u, session, 80, remembered); err != nil {
			t.Fatalf("AddSoloMetric() error = %v", err)
		}
	}

	trend, err = s.SoloTrend(ctx, u, topic.ID)
	if err != nil {
		t.Fatalf("SoloTrend() error = %v", err)
	}
	if trend.Trend.Kind != core.TrendIncreaseInterval {
		t.Errorf("Kind = %s, want %s", trend.Trend.Kind, core.TrendIncreaseInterval)
	}
	if trend.Trend.AverageRemembered != 92.5 || len(trend.Metrics) != 2 {
		t.Errorf("trend = %+v", trend.Trend)
	}
	if trend.Metrics[0].PercentRemembered != 95 {
		t.Errorf("metrics not newest first: %+v", trend.Metrics)
	}

	_, err = s.SoloTrend(ctx, mustUser(t, s, "auth0|b"), topic.ID)
	wantStatus(t, err, http.StatusForbidden)
}

func TestDueSessionsAndReminders(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	a := mustUser(t, s, "auth0|a")
	b := mustUser(t, s, "auth0|b")
	ta := mustTopic(t, s, a, models.ModeAutomated)
	tb := mustTopic(t, s, b, models.ModeSolo)
	day := models.NewDate(2024, 3, 11)

	due, err := s.DueSessions(ctx, day)
	if err != nil {
		t.Fatalf("DueSessions() error = %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due sessions, want 2", len(due))
	}

	mine, err := s.UserDueSessions(ctx, a, day)
	if err != nil {
		t.Fatalf("UserDueSessions() error = %v", err)
	}
	if len(mine) != 1 || mine[0].ID != ta.Sessions[0].ID {
		t.Errorf("UserDueSessions() = %+v", mine)
	}

	if _, err := s.SkipSession(ctx, b, tb.Sessions[0].ID); err != nil {
		t.Fatalf("SkipSession() error = %v", err)
	}
	reminders, err := s.DueReminders(ctx, day)
	if err != nil {
		t.Fatalf("DueReminders() error = %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders))
	}
	r := reminders[0]
	if r.User.Email != "auth0|a@example.com" || r.Topic.ID != ta.ID || r.Session.DayIndex != models.Day1 {
		t.Errorf("reminder = %+v", r)
	}

	none, _ := s.DueSessions(ctx, models.NewDate(2024, 3, 12))
	if len(none) != 0 {
		t.Errorf("no sessions are due on the 12th, got %d", len(none))
	}
}

func TestEnsureUserRequiresSubject(t *testing.T) {
	s := newTestService(t, nil)
	_, err := s.EnsureUser(context.Background(), "", "x@example.com")
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestCompareTexts(t *testing.T) {
	provider := embedding.New(func() (embedding.Encoder, error) {
		return embedding.NewHashEncoder(256), nil
	})
	ctx := context.Background()

	res, err := CompareTexts(ctx, provider,
		[]string{"photosynthesis uses light", "zebras graze savanna grass"},
		[]string{"photosynthesis uses light"},
		core.DefaultThreshold)
	if err != nil {
		t.Fatalf("CompareTexts() error = %v", err)
	}
	if res.RecallScore != 50 || len(res.MissedPoints) != 1 || res.MissedPoints[0].Index != 1 {
		t.Errorf("CompareTexts() = %+v", res)
	}

	empty, err := CompareTexts(ctx, provider, nil, nil, core.DefaultThreshold)
	if err != nil {
		t.Fatalf("CompareTexts(empty) error = %v", err)
	}
	if empty.RecallScore != 100 || empty.MissedPoints == nil {
		t.Errorf("CompareTexts(empty) = %+v", empty)
	}
}
