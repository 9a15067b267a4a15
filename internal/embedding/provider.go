// ABOUTME: Embedding provider mapping text to unit-length vectors of a fixed dimension
// ABOUTME: Builds its encoder once on first use and fans batches out with errgroup
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/harper/recall-tracker/internal/logger"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrZeroVector is returned when an encoder produces a vector that cannot be normalized
	ErrZeroVector = errors.New("encoder returned a zero vector")
	// ErrWrongDimension is returned when an encoder's output length differs from the configured dimension
	ErrWrongDimension = errors.New("encoder returned wrong dimension")
)

// Encoder turns one text into a raw, not necessarily normalized, vector
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float64, error)
}

// EncoderFunc adapts a function to Encoder
type EncoderFunc func(ctx context.Context, text string) ([]float64, error)

func (f EncoderFunc) Encode(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

// Factory constructs the encoder. It runs at most once per Provider.
type Factory func() (Encoder, error)

// Cache stores normalized vectors by <model>:<dim>:<sha256> key. Implementations namespace keys themselves.
type Cache interface {
	Get(key string) ([]float64, bool, error)
	Set(key string, vec []float64) error
}

type Option func(*Provider)

// WithDimension enforces the output length; zero disables the check
func WithDimension(dim int) Option {
	return func(p *Provider) { p.dim = dim }
}

// WithCache stores results under a key derived from the model name and text
func WithCache(c Cache) Option {
	return func(p *Provider) { p.cache = c }
}

// WithModel names the model in cache keys so switching models never reuses vectors
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithConcurrency bounds parallel Encode calls in EmbedAll
func WithConcurrency(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// Provider is safe for concurrent use. The encoder is constructed on the
// first Embed call; a construction error is sticky.
type Provider struct {
	factory     Factory
	once        sync.Once
	encoder     Encoder
	initErr     error
	dim         int
	model       string
	cache       Cache
	concurrency int
	log         *logger.Logger
}

func New(factory Factory, opts ...Option) *Provider {
	p := &Provider{
		factory:     factory,
		model:       "default",
		concurrency: 4,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dimension returns the configured output length, zero if unchecked
func (p *Provider) Dimension() int {
	return p.dim
}

func (p *Provider) init() (Encoder, error) {
	p.once.Do(func() {
		p.encoder, p.initErr = p.factory()
		if p.initErr != nil {
			p.initErr = fmt.Errorf("initializing encoder: %w", p.initErr)
			return
		}
		p.log.Info("embedding encoder ready", "model", p.model, "dimension", p.dim)
	})
	return p.encoder, p.initErr
}

// Embed returns the unit-normalized embedding of text
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	enc, err := p.init()
	if err != nil {
		return nil, err
	}

	key := p.cacheKey(text)
	if p.cache != nil {
		vec, ok, err := p.cache.Get(key)
		if err != nil {
			p.log.Warn("embedding cache read failed", "error", err)
		} else if ok && (p.dim == 0 || len(vec) == p.dim) {
			return vec, nil
		}
	}

	raw, err := enc.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}
	if p.dim > 0 && len(raw) != p.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDimension, len(raw), p.dim)
	}
	vec, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(key, vec); err != nil {
			p.log.Warn("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

// EmbedAll embeds texts in parallel and returns vectors in input order.
// The first failure cancels the rest.
func (p *Provider) EmbedAll(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			out[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Provider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%d:%s", p.model, p.dim, hex.EncodeToString(sum[:]))
}

// Normalize scales v to unit length, returning a new slice
func Normalize(v []float64) ([]float64, error) {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, ErrZeroVector
	}
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out, nil
}
