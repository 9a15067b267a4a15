// ABOUTME: Tests for the charm embedding cache using an in-memory store
// ABOUTME: Checks hit/miss semantics, key namespacing, sync on close and closed-client errors
package charm

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

type memStore struct {
	data  map[string][]byte
	syncs int
	fail  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(key []byte) ([]byte, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, badger.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(key []byte, value []byte) error {
	m.data[string(key)] = value
	return nil
}

func (m *memStore) Sync() error {
	m.syncs++
	return nil
}

func (m *memStore) Close() error { return nil }

func TestClient_MissThenHit(t *testing.T) {
	store := newMemStore()
	c := newClient(store, &Config{})

	if _, ok, err := c.Get("openai/small:2:abc"); ok || err != nil {
		t.Fatalf("Get() on empty = ok %v err %v, want miss", ok, err)
	}

	if err := c.Set("openai/small:2:abc", []float64{0.6, 0.8}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, stored := store.data[EmbeddingPrefix+"openai/small:2:abc"]; !stored {
		t.Errorf("stored keys = %v, want the %q namespace", store.data, EmbeddingPrefix)
	}
	vec, ok, err := c.Get("openai/small:2:abc")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v err %v, want hit", ok, err)
	}
	if len(vec) != 2 || vec[1] != 0.8 {
		t.Errorf("Get() = %v, want [0.6 0.8]", vec)
	}
	if store.syncs != 0 {
		t.Errorf("syncs = %d, want 0 without AutoSync", store.syncs)
	}
}

func TestClient_AutoSyncOnClose(t *testing.T) {
	store := newMemStore()
	c := newClient(store, &Config{AutoSync: true})

	if err := c.Set("k", []float64{1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if store.syncs != 0 {
		t.Errorf("syncs after Set() = %d, want 0", store.syncs)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.syncs != 1 {
		t.Errorf("syncs after Close() = %d, want 1", store.syncs)
	}
}

func TestClient_NoSyncWithoutAutoSync(t *testing.T) {
	store := newMemStore()
	c := newClient(store, &Config{})

	_ = c.Set("k", []float64{1})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.syncs != 0 {
		t.Errorf("syncs = %d, want 0", store.syncs)
	}
}

func TestClient_StoreErrorsSurface(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("disk gone")
	c := newClient(store, &Config{})

	if _, _, err := c.Get("k"); err == nil {
		t.Error("Get() expected error from store")
	}
}

func TestClient_CorruptValue(t *testing.T) {
	store := newMemStore()
	store.data[EmbeddingPrefix+"k"] = []byte("not json")
	c := newClient(store, &Config{})

	if _, _, err := c.Get("k"); err == nil {
		t.Error("Get() expected decode error")
	}
}

func TestClient_Closed(t *testing.T) {
	c := newClient(newMemStore(), &Config{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := c.Set("k", []float64{1}); err == nil {
		t.Error("Set() after Close() expected error")
	}
	if _, _, err := c.Get("k"); err == nil {
		t.Error("Get() after Close() expected error")
	}
}
