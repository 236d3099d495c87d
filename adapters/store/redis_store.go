package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every redis key written by this package.
const DefaultPrefix = "walletredirect:"

// RedisKeyStore is a Redis implementation of the KeyStore interface.
// Each network is one hash of id -> encoded key pair, shadowed by a hash of
// id -> unix time of the last write.
type RedisKeyStore struct {
	client      *redis.Client
	prefix      string
	timesPrefix string
	now         func() time.Time
}

// NewRedisKeyStore creates a new Redis key store
func NewRedisKeyStore(client *redis.Client, prefix string) *RedisKeyStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisKeyStore{
		client:      client,
		prefix:      prefix + "keys:",
		timesPrefix: prefix + "key_times:",
		now:         time.Now,
	}
}

var _ ports.KeyStore = (*RedisKeyStore)(nil)

func (s *RedisKeyStore) hashKey(networkID string) string {
	return s.prefix + networkID
}

func (s *RedisKeyStore) timesKey(networkID string) string {
	return s.timesPrefix + networkID
}

// SetKey stores a key pair under id
func (s *RedisKeyStore) SetKey(ctx context.Context, networkID, id string, kp core.KeyPair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hashKey(networkID), id, kp.String())
		pipe.HSet(ctx, s.timesKey(networkID), id, s.now().Unix())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// GetKey returns the key pair stored under id
func (s *RedisKeyStore) GetKey(ctx context.Context, networkID, id string) (core.KeyPair, error) {
	encoded, err := s.client.HGet(ctx, s.hashKey(networkID), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return core.ParseKeyPair(encoded)
}

// StoredAt returns when id was last written
func (s *RedisKeyStore) StoredAt(ctx context.Context, networkID, id string) (time.Time, error) {
	exists, err := s.client.HExists(ctx, s.hashKey(networkID), id).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to check key: %w", err)
	}
	if !exists {
		return time.Time{}, core.ErrKeyNotFound
	}

	raw, err := s.client.HGet(ctx, s.timesKey(networkID), id).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get key time: %w", err)
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(unix, 0), nil
}

// RemoveKey deletes the key stored under id
func (s *RedisKeyStore) RemoveKey(ctx context.Context, networkID, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.hashKey(networkID), id)
		pipe.HDel(ctx, s.timesKey(networkID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove key: %w", err)
	}
	return nil
}

// ListKeys returns the ids stored for the network in sorted order
func (s *RedisKeyStore) ListKeys(ctx context.Context, networkID string) ([]string, error) {
	ids, err := s.client.HKeys(ctx, s.hashKey(networkID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// ScopedNetworks returns the scoped network ids under networkID that hold keys
func (s *RedisKeyStore) ScopedNetworks(ctx context.Context, networkID string) ([]string, error) {
	var networks []string
	iter := s.client.Scan(ctx, 0, s.hashKey(networkID+ScopeSeparator)+"*", 100).Iterator()
	for iter.Next(ctx) {
		networks = append(networks, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan networks: %w", err)
	}
	sort.Strings(networks)
	return networks, nil
}

// RedisStorage is a Redis implementation of the Storage interface
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage creates a new Redis storage
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStorage{
		client: client,
		prefix: prefix + "storage:",
	}
}

var _ ports.Storage = (*RedisStorage)(nil)

// GetItem retrieves a value by key
func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", core.ErrStorageItemNotFound
		}
		return "", fmt.Errorf("failed to get item: %w", err)
	}
	return value, nil
}

// SetItem stores a value under key with no expiry
func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set item: %w", err)
	}
	return nil
}

// RemoveItem deletes key
func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}
