// ABOUTME: Tests for application wiring with a temporary SQLite database
// ABOUTME: Checks encoder selection, verifier selection and the sweep path end to end
package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/recall-tracker/internal/auth"
	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/embedding"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/tracker"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "tracker.db")
	cfg.EmbeddingProvider = "hash"
	cfg.VectorDimension = 64
	cfg.AuthDisabled = true
	return cfg
}

func TestNewWiresService(t *testing.T) {
	a, err := New(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.Service.EnsureUser(ctx, "dev|someone", "")
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	topic, err := a.Service.CreateTopic(ctx, user, tracker.TopicInput{Title: "Rust lifetimes", Mode: models.ModeAutomated})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	notes, err := a.Service.AddNotes(ctx, user, topic.Sessions[0].ID, []string{"borrows cannot outlive owners"})
	if err != nil {
		t.Fatalf("AddNotes() error = %v", err)
	}
	if len(notes[0].Vector()) != 64 {
		t.Errorf("embedding dimension = %d, want 64", len(notes[0].Vector()))
	}
}

func TestEncoderFactory(t *testing.T) {
	cfg := testConfig(t)
	enc, err := encoderFactory(cfg)()
	if err != nil {
		t.Fatalf("hash factory error = %v", err)
	}
	if _, ok := enc.(*embedding.HashEncoder); !ok {
		t.Errorf("encoder = %T, want *embedding.HashEncoder", enc)
	}

	cfg.EmbeddingProvider = "openai"
	cfg.OpenAIKey = ""
	if _, err := encoderFactory(cfg)(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("openai factory without key error = %v", err)
	}
}

func TestCharmConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.CharmHost = "charm.internal"
	cfg.CharmDBName = "tracker-cache"
	cfg.CharmAutoSync = true

	got := CharmConfig(cfg)
	if got.Host != "charm.internal" || got.DBName != "tracker-cache" || !got.AutoSync {
		t.Errorf("CharmConfig() = %+v", got)
	}
}

func TestNewVerifier(t *testing.T) {
	cfg := testConfig(t)
	v, err := NewVerifier(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	if _, ok := v.(auth.DevVerifier); !ok {
		t.Errorf("verifier = %T, want DevVerifier", v)
	}

	cfg.AuthDisabled = false
	if _, err := NewVerifier(cfg, logger.Nop()); err == nil {
		t.Error("expected error without AUTH0_DOMAIN")
	}

	cfg.Auth0Domain = "tenant.auth0.com"
	cfg.Auth0Audience = "https://api"
	if v, err := NewVerifier(cfg, logger.Nop()); err != nil || v == nil {
		t.Errorf("NewVerifier() = %v, %v", v, err)
	}
}

func TestSweepThroughApp(t *testing.T) {
	a, err := New(testConfig(t), logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	user, _ := a.Service.EnsureUser(ctx, "dev|learner", "learner@example.com")
	topic, err := a.Service.CreateTopic(ctx, user, tracker.TopicInput{Title: "Kanji", Mode: models.ModeSolo})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	due := topic.Sessions[0].ScheduledFor

	report, err := a.Sweeper().Run(ctx, due)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Sent != 1 {
		t.Errorf("report = %+v", report)
	}
	notes, err := a.DB.ListNotifications(ctx, topic.Sessions[0].ID)
	if err != nil || len(notes) != 1 {
		t.Errorf("notifications = %v, %v", notes, err)
	}

	sched, err := a.Scheduler()
	if err != nil || sched == nil {
		t.Errorf("Scheduler() = %v, %v", sched, err)
	}
}
