package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
)

type memoryKey struct {
	encoded  string
	storedAt time.Time
}

// MemoryKeyStore is an in-memory implementation of the KeyStore interface
type MemoryKeyStore struct {
	keys map[string]map[string]memoryKey
	now  func() time.Time
	mu   sync.RWMutex
}

// NewMemoryKeyStore creates a new in-memory key store
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		keys: make(map[string]map[string]memoryKey),
		now:  time.Now,
	}
}

var _ ports.KeyStore = (*MemoryKeyStore)(nil)

// SetKey stores a key pair under id
func (s *MemoryKeyStore) SetKey(ctx context.Context, networkID, id string, kp core.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	network, ok := s.keys[networkID]
	if !ok {
		network = make(map[string]memoryKey)
		s.keys[networkID] = network
	}
	network[id] = memoryKey{encoded: kp.String(), storedAt: s.now()}
	return nil
}

// GetKey returns the key pair stored under id
func (s *MemoryKeyStore) GetKey(ctx context.Context, networkID, id string) (core.KeyPair, error) {
	s.mu.RLock()
	key, ok := s.keys[networkID][id]
	s.mu.RUnlock()

	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return core.ParseKeyPair(key.encoded)
}

// StoredAt returns when id was last written
func (s *MemoryKeyStore) StoredAt(ctx context.Context, networkID, id string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[networkID][id]
	if !ok {
		return time.Time{}, core.ErrKeyNotFound
	}
	return key.storedAt, nil
}

// RemoveKey deletes the key stored under id
func (s *MemoryKeyStore) RemoveKey(ctx context.Context, networkID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys[networkID], id)
	return nil
}

// ListKeys returns the ids stored for the network in sorted order
func (s *MemoryKeyStore) ListKeys(ctx context.Context, networkID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.keys[networkID]))
	for id := range s.keys[networkID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ScopedNetworks returns the scoped network ids under networkID that hold keys
func (s *MemoryKeyStore) ScopedNetworks(ctx context.Context, networkID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var networks []string
	for network, keys := range s.keys {
		if len(keys) > 0 && strings.HasPrefix(network, networkID+ScopeSeparator) {
			networks = append(networks, network)
		}
	}
	sort.Strings(networks)
	return networks, nil
}

// SetClock replaces the clock used to timestamp writes
func (s *MemoryKeyStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// Clear removes all keys
// This is useful for testing to reset the store between tests
func (s *MemoryKeyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = make(map[string]map[string]memoryKey)
}

// MemoryStorage is an in-memory implementation of the Storage interface
type MemoryStorage struct {
	items map[string]string
	mu    sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string]string),
	}
}

var _ ports.Storage = (*MemoryStorage)(nil)

// GetItem retrieves a value by key
func (s *MemoryStorage) GetItem(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", core.ErrStorageItemNotFound
	}
	return value, nil
}

// SetItem stores a value under key
func (s *MemoryStorage) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

// RemoveItem deletes key
func (s *MemoryStorage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}
