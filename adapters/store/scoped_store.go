package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
)

// ScopeSeparator joins a network id and a scope into the network id a
// ScopedKeyStore writes under.
const ScopeSeparator = "/"

// ScopedNetworkID returns the network id that holds scope's keys for networkID.
func ScopedNetworkID(networkID, scope string) string {
	return networkID + ScopeSeparator + scope
}

// ScopeFunc yields the scope of the caller. When create is set it mints a
// scope if none exists yet; otherwise an empty scope means nothing was stored.
type ScopeFunc func(ctx context.Context, create bool) (string, error)

// FixedScope always yields scope.
func FixedScope(scope string) ScopeFunc {
	return func(context.Context, bool) (string, error) {
		return scope, nil
	}
}

// ScopedKeyStore confines a shared KeyStore to one scope, such as one
// browser. Keys written through it are invisible to every other scope.
type ScopedKeyStore struct {
	inner ports.KeyStore
	scope ScopeFunc
}

// NewScopedKeyStore creates a key store limited to the scope yielded by scope
func NewScopedKeyStore(inner ports.KeyStore, scope ScopeFunc) *ScopedKeyStore {
	return &ScopedKeyStore{inner: inner, scope: scope}
}

var _ ports.KeyStore = (*ScopedKeyStore)(nil)

func (s *ScopedKeyStore) network(ctx context.Context, networkID string, create bool) (string, error) {
	scope, err := s.scope(ctx, create)
	if err != nil || scope == "" {
		return "", err
	}
	return ScopedNetworkID(networkID, scope), nil
}

// SetKey stores a key pair under id, minting the scope if needed
func (s *ScopedKeyStore) SetKey(ctx context.Context, networkID, id string, kp core.KeyPair) error {
	network, err := s.network(ctx, networkID, true)
	if err != nil {
		return err
	}
	if network == "" {
		return fmt.Errorf("no scope to store key %s in", id)
	}
	return s.inner.SetKey(ctx, network, id, kp)
}

// GetKey returns the key pair stored under id in this scope
func (s *ScopedKeyStore) GetKey(ctx context.Context, networkID, id string) (core.KeyPair, error) {
	network, err := s.network(ctx, networkID, false)
	if err != nil {
		return nil, err
	}
	if network == "" {
		return nil, core.ErrKeyNotFound
	}
	return s.inner.GetKey(ctx, network, id)
}

// RemoveKey deletes the key stored under id in this scope
func (s *ScopedKeyStore) RemoveKey(ctx context.Context, networkID, id string) error {
	network, err := s.network(ctx, networkID, false)
	if err != nil || network == "" {
		return err
	}
	return s.inner.RemoveKey(ctx, network, id)
}

// ListKeys returns the ids stored in this scope
func (s *ScopedKeyStore) ListKeys(ctx context.Context, networkID string) ([]string, error) {
	network, err := s.network(ctx, networkID, false)
	if err != nil || network == "" {
		return nil, err
	}
	return s.inner.ListKeys(ctx, network)
}

// StoredAt returns when id was last written in this scope
func (s *ScopedKeyStore) StoredAt(ctx context.Context, networkID, id string) (time.Time, error) {
	network, err := s.network(ctx, networkID, false)
	if err != nil {
		return time.Time{}, err
	}
	if network == "" {
		return time.Time{}, core.ErrKeyNotFound
	}
	return s.inner.StoredAt(ctx, network, id)
}
