// ABOUTME: Application wiring from configuration to a ready tracker service
// ABOUTME: Builds storage, the embedding provider, mailer, verifier, router and scheduler
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harper/recall-tracker/internal/api"
	"github.com/harper/recall-tracker/internal/auth"
	"github.com/harper/recall-tracker/internal/charm"
	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/email"
	"github.com/harper/recall-tracker/internal/embedding"
	"github.com/harper/recall-tracker/internal/llm"
	"github.com/harper/recall-tracker/internal/logger"
	"github.com/harper/recall-tracker/internal/scheduler"
	"github.com/harper/recall-tracker/internal/storage"
	"github.com/harper/recall-tracker/internal/tracker"
	"github.com/sashabaranov/go-openai"
)

type App struct {
	Cfg      *config.Config
	Log      *logger.Logger
	DB       *storage.DB
	Embedder *embedding.Provider
	Service  *tracker.Service
	Mailer   email.Mailer

	closers []func() error
}

// New opens the database and wires every service-level dependency.
// The identity verifier is built separately because only the HTTP API needs it.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Cfg: cfg, Log: log}

	db, err := storage.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	provider, closeCache := NewEmbedder(cfg, log)
	a.Embedder = provider
	if closeCache != nil {
		a.closers = append(a.closers, closeCache)
	}

	a.Service = tracker.New(db, provider, ServiceConfig(cfg), tracker.WithLogger(log.With("component", "Tracker")))
	a.Mailer = email.New(email.Config{
		APIKey:     cfg.SendGridAPIKey,
		FromEmail:  cfg.EmailFrom,
		FromName:   cfg.EmailFromName,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, log)

	log.Info("application wired",
		"dialect", db.Dialect(),
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_cache", cfg.EmbeddingCache)
	return a, nil
}

// ServiceConfig maps configuration onto the service's tunables
func ServiceConfig(cfg *config.Config) tracker.Config {
	return tracker.Config{
		Threshold:   cfg.CompareThreshold,
		MaxPoints:   cfg.MaxPoints,
		Trend:       core.TrendConfig{High: cfg.TrendHigh, Low: cfg.TrendLow},
		TrendWindow: cfg.TrendWindow,
		Location:    cfg.Location(),
	}
}

// NewEmbedder builds the lazily-initialized embedding provider. The returned
// closer releases the charm cache and is nil when no cache is in use.
func NewEmbedder(cfg *config.Config, log *logger.Logger) (*embedding.Provider, func() error) {
	opts := []embedding.Option{
		embedding.WithDimension(cfg.VectorDimension),
		embedding.WithModel(cfg.EmbeddingProvider + "/" + cfg.EmbeddingModel),
		embedding.WithConcurrency(cfg.EmbedConcurrency),
		embedding.WithLogger(log.With("component", "Embedding")),
	}

	var closer func() error
	if cfg.EmbeddingCache == "charm" {
		client, err := charm.NewClient(CharmConfig(cfg))
		if err != nil {
			log.Warn("charm cache unavailable, continuing without it", "error", err)
		} else {
			opts = append(opts, embedding.WithCache(client))
			closer = client.Close
		}
	}

	return embedding.New(encoderFactory(cfg), opts...), closer
}

// CharmConfig maps the tracker config onto the charm cache settings
func CharmConfig(cfg *config.Config) *charm.Config {
	return &charm.Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.CharmAutoSync,
	}
}

func encoderFactory(cfg *config.Config) embedding.Factory {
	return func() (embedding.Encoder, error) {
		switch cfg.EmbeddingProvider {
		case "hash":
			return embedding.NewHashEncoder(cfg.VectorDimension), nil
		default:
			if cfg.OpenAIKey == "" {
				return nil, errors.New("OPENAI_API_KEY is required for the openai embedding provider")
			}
			return llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
				APIKey:         cfg.OpenAIKey,
				BaseURL:        cfg.OpenAIBaseURL,
				EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
				Dimensions:     cfg.VectorDimension,
				MaxRetries:     cfg.MaxRetries,
				RetryDelay:     cfg.RetryDelay,
				Timeout:        cfg.Timeout,
			})
		}
	}
}

// NewVerifier returns the Auth0 verifier, or the dev verifier when auth is disabled
func NewVerifier(cfg *config.Config, log *logger.Logger) (auth.Verifier, error) {
	if cfg.AuthDisabled {
		log.Warn("authentication disabled, any bearer token is accepted")
		return auth.DevVerifier{}, nil
	}
	return auth.NewAuth0Verifier(auth.Auth0Config{Domain: cfg.Auth0Domain, Audience: cfg.Auth0Audience})
}

func (a *App) Router(verifier auth.Verifier) *gin.Engine {
	return api.NewRouter(api.RouterConfig{
		Service:     a.Service,
		Verifier:    verifier,
		Logger:      a.Log,
		FrontendURL: a.Cfg.FrontendURL,
	})
}

func (a *App) Sweeper() *scheduler.Sweeper {
	return scheduler.NewSweeper(a.Service, a.Mailer, a.Log, a.Cfg.SweepFailFast)
}

func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(a.Sweeper(), a.Cfg.ReminderSchedule, a.Cfg.Location(), a.Log)
}

// Serve runs the HTTP API and the reminder scheduler until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	verifier, err := NewVerifier(a.Cfg, a.Log)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	sched, err := a.Scheduler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Cfg.HTTPAddr,
		Handler:           a.Router(verifier),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	serverErr := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Log.Info("shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("error during close", "error", err)
		}
	}
	a.closers = nil
	a.Log.Sync()
}
