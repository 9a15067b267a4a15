// ABOUTME: Tests for the SendGrid mailer against a local fake server
// ABOUTME: Checks the wire payload, retry on 5xx, no retry on 4xx and the dev fallback
package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/recall-tracker/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fakeSendGrid(t *testing.T, handler http.HandlerFunc) *SendGrid {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSendGrid(Config{
		APIKey:     "SG.test",
		BaseURL:    server.URL,
		FromName:   "123tracker",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, logger.Nop())
}

func TestSendGrid_Payload(t *testing.T) {
	var got mailSendRequest
	mailer := fakeSendGrid(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer SG.test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	})

	err := mailer.Send(context.Background(), Message{
		To:      "learner@example.com",
		Subject: "Study Reminder",
		Body:    "Your session (Day 3) for 'Go <generics>' is due today.",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got.From.Email != "no-reply@example.com" || got.From.Name != "123tracker" {
		t.Errorf("From = %+v", got.From)
	}
	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "learner@example.com" {
		t.Errorf("Personalizations = %+v", got.Personalizations)
	}
	if got.Subject != "Study Reminder" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if len(got.Content) != 2 || !strings.Contains(got.Content[1].Value, "&lt;generics&gt;") {
		t.Errorf("Content = %+v, want escaped html part", got.Content)
	}
}

func TestSendGrid_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	mailer := fakeSendGrid(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	if err := mailer.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSendGrid_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	mailer := fakeSendGrid(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid from address"}]}`))
	})

	err := mailer.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Send() error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest || httpErr.Message != "invalid from address" {
		t.Errorf("HTTPError = %+v", httpErr)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSendGrid_RequiresRecipient(t *testing.T) {
	mailer := NewSendGrid(Config{APIKey: "k"}, logger.Nop())
	if err := mailer.Send(context.Background(), Message{Subject: "s"}); err == nil {
		t.Error("Send() expected error without recipient")
	}
}

func TestNew_FallsBackToLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mailer := New(Config{}, logger.FromZap(zap.New(core)))

	if _, ok := mailer.(*LogMailer); !ok {
		t.Fatalf("New() without key = %T, want *LogMailer", mailer)
	}
	if err := mailer.Send(context.Background(), Message{To: "a@b.c", Subject: "Study Reminder", Body: "hi"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if logs.Len() != 1 || !strings.Contains(logs.All()[0].Message, "[DEV] Email -> Study Reminder") {
		t.Errorf("log entries = %v", logs.All())
	}

	if _, ok := New(Config{APIKey: "SG.x"}, logger.Nop()).(*SendGrid); !ok {
		t.Error("New() with key should return *SendGrid")
	}
}
