package ports

import (
	"context"
	"time"

	"github.com/layer-3/walletredirect/core"
)

// KeyStore persists key pairs scoped by network id
type KeyStore interface {
	// SetKey stores kp under id, replacing any previous key.
	SetKey(ctx context.Context, networkID, id string, kp core.KeyPair) error

	// GetKey returns the key stored under id or core.ErrKeyNotFound.
	GetKey(ctx context.Context, networkID, id string) (core.KeyPair, error)

	// RemoveKey deletes id. Removing an absent id is not an error.
	RemoveKey(ctx context.Context, networkID, id string) error

	// ListKeys returns every id stored for the network.
	ListKeys(ctx context.Context, networkID string) ([]string, error)

	// StoredAt returns when id was last written, or core.ErrKeyNotFound.
	// Records written without a timestamp report the zero time.
	StoredAt(ctx context.Context, networkID, id string) (time.Time, error)
}

// Storage is durable string storage for the app's session record
type Storage interface {
	// GetItem returns the value or core.ErrStorageItemNotFound.
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
