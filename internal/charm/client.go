// ABOUTME: Charm KV backed cache for note-point embeddings
// ABOUTME: Vectors are stored as JSON under the embedding: prefix, synced to the cloud when AutoSync is on
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// EmbeddingPrefix namespaces cached vectors inside the charm database
const EmbeddingPrefix = "embedding:"

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// store is the subset of *kv.KV the cache needs
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	Sync() error
	Close() error
}

// Client wraps charm KV as an embedding.Cache
type Client struct {
	kv     store
	config *Config
	mu     sync.Mutex
}

// NewClient opens the charm KV database named in cfg
func NewClient(cfg *Config) (*Client, error) {
	// charm reads the host from the environment when opening KV
	os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := newClient(db, cfg)
	// Pull remote data on startup
	if cfg.AutoSync {
		if err := db.Sync(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to sync charm kv: %w", err)
		}
	}
	return c, nil
}

func newClient(s store, cfg *Config) *Client {
	return &Client{kv: s, config: cfg}
}

// Close pushes pending writes when AutoSync is on, then closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return nil
	}
	var syncErr error
	if c.config.AutoSync {
		syncErr = c.kv.Sync()
	}
	err := c.kv.Close()
	c.kv = nil
	return errors.Join(syncErr, err)
}

func namespaced(key string) []byte {
	return []byte(EmbeddingPrefix + key)
}

// Get returns the cached vector for key. A missing key is a miss, not an error.
func (c *Client) Get(key string) ([]float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return nil, false, errors.New("charm cache is closed")
	}

	data, err := c.kv.Get(namespaced(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if data == nil {
		return nil, false, nil
	}

	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached embedding %s: %w", key, err)
	}
	return vec, true, nil
}

// Set stores vec under key. Writes stay local until Close when AutoSync is on.
func (c *Client) Set(key string, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return errors.New("charm cache is closed")
	}
	if err := c.kv.Set(namespaced(key), data); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}
