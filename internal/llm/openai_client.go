// ABOUTME: OpenAI client producing note-point embeddings
// ABOUTME: Uses text-embedding-3-small with a reduced dimension, retrying transient failures
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/recall-tracker/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultDimensions matches the vector column width
	DefaultDimensions = 384
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel openai.EmbeddingModel
	Dimensions     int
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		EmbeddingModel: DefaultEmbeddingModel,
		Dimensions:     DefaultDimensions,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		Timeout:        30 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	dimensions     int
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		embeddingModel: config.EmbeddingModel,
		dimensions:     config.Dimensions,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		timeout:        timeout,
	}, nil
}

// Encode implements embedding.Encoder
func (c *OpenAIClient) Encode(ctx context.Context, text string) ([]float64, error) {
	var embedding64 []float64

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(attemptCtx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      c.embeddingModel,
			Dimensions: c.dimensions,
		})
		if err != nil {
			if isPermanent(err) {
				return util.Permanent(err)
			}
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding64 = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return embedding64, nil
}

// isPermanent treats client errors other than rate limiting as not retryable
func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		code := reqErr.HTTPStatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}
