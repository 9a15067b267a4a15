// ABOUTME: Outbound email through SendGrid's v3 mail send API
// ABOUTME: Falls back to a logging mailer when no API key is configured
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/util"
)

// Message is a single plain reminder email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// New returns a SendGrid mailer, or a logging mailer when cfg has no API key
func New(cfg Config, log *logger.Logger) Mailer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &LogMailer{log: log.With("mailer", "dev")}
	}
	return NewSendGrid(cfg, log)
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info(fmt.Sprintf("[DEV] Email -> %s", msg.Subject), "body", msg.Body)
	return nil
}

type SendGrid struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

func NewSendGrid(cfg Config, log *logger.Logger) *SendGrid {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "no-reply@example.com"
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &SendGrid{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("mailer", "sendgrid"),
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HTTPError is a non-2xx response from SendGrid
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("sendgrid: recipient required")
	}
	wire := mailSendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
		Subject:          msg.Subject,
		Content: []content{
			{Type: "text/plain", Value: msg.Body},
			{Type: "text/html", Value: "<p>" + html.EscapeString(msg.Body) + "</p>"},
		},
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("sendgrid: encoding request: %w", err)
	}

	return util.Retry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay, func(ctx context.Context) error {
		err := s.post(ctx, payload)
		if err != nil {
			s.log.Warn("sendgrid request failed", "error", err)
		}
		return err
	})
}

func (s *SendGrid) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return util.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 {
		httpErr.Message = er.Errors[0].Message
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return httpErr
	}
	return util.Permanent(httpErr)
}
