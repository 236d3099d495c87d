package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

// KeyStoreSuite runs the same checks against every KeyStore and Storage.
type KeyStoreSuite struct {
	suite.Suite

	ctx      context.Context
	keyStore ports.KeyStore
	storage  ports.Storage
	redis    *miniredis.Miniredis // nil for the memory implementation
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &KeyStoreSuite{
		keyStore: NewMemoryKeyStore(),
		storage:  NewMemoryStorage(),
	})
}

func TestRedisStoreSuite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &KeyStoreSuite{
		keyStore: NewRedisKeyStore(client, "test:"),
		storage:  NewRedisStorage(client, "test:"),
		redis:    mr,
	})
}

func (s *KeyStoreSuite) SetupTest() {
	s.ctx = context.Background()
	if s.redis != nil {
		s.redis.FlushAll()
	}
	if mem, ok := s.keyStore.(*MemoryKeyStore); ok {
		mem.Clear()
	}
}

func (s *KeyStoreSuite) setClock(now time.Time) {
	clock := func() time.Time { return now }
	switch ks := s.keyStore.(type) {
	case *MemoryKeyStore:
		ks.SetClock(clock)
	case *RedisKeyStore:
		ks.now = clock
	}
}

func (s *KeyStoreSuite) newKeyPair(keyType core.KeyType) core.KeyPair {
	kp, err := core.GenerateKeyPair(keyType)
	s.Require().NoError(err)
	return kp
}

func (s *KeyStoreSuite) TestSetGetRemove() {
	for _, keyType := range []core.KeyType{core.KeyTypeED25519, core.KeyTypeSECP256K1} {
		kp := s.newKeyPair(keyType)

		s.Require().NoError(s.keyStore.SetKey(s.ctx, "testnet", "alice.testnet", kp))

		got, err := s.keyStore.GetKey(s.ctx, "testnet", "alice.testnet")
		s.Require().NoError(err)
		s.Equal(kp.String(), got.String())
		s.True(kp.PublicKey().Equal(got.PublicKey()))

		s.Require().NoError(s.keyStore.RemoveKey(s.ctx, "testnet", "alice.testnet"))
		_, err = s.keyStore.GetKey(s.ctx, "testnet", "alice.testnet")
		s.ErrorIs(err, core.ErrKeyNotFound)
	}
}

func (s *KeyStoreSuite) TestRemoveMissingKey() {
	s.NoError(s.keyStore.RemoveKey(s.ctx, "testnet", "nobody.testnet"))
}

func (s *KeyStoreSuite) TestNetworksAreSeparate() {
	kp := s.newKeyPair(core.KeyTypeED25519)
	s.Require().NoError(s.keyStore.SetKey(s.ctx, "mainnet", "alice.near", kp))

	_, err := s.keyStore.GetKey(s.ctx, "testnet", "alice.near")
	s.ErrorIs(err, core.ErrKeyNotFound)

	ids, err := s.keyStore.ListKeys(s.ctx, "testnet")
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *KeyStoreSuite) TestListKeysSorted() {
	for _, id := range []string{"pending_key:ed25519:b", "carol.testnet", "alice.testnet"} {
		s.Require().NoError(s.keyStore.SetKey(s.ctx, "testnet", id, s.newKeyPair(core.KeyTypeED25519)))
	}

	ids, err := s.keyStore.ListKeys(s.ctx, "testnet")
	s.Require().NoError(err)
	s.Equal([]string{"alice.testnet", "carol.testnet", "pending_key:ed25519:b"}, ids)
}

func (s *KeyStoreSuite) TestStorageItems() {
	_, err := s.storage.GetItem(s.ctx, "default_wallet_auth_key")
	s.ErrorIs(err, core.ErrStorageItemNotFound)

	s.Require().NoError(s.storage.SetItem(s.ctx, "default_wallet_auth_key", `{"accountId":"alice.testnet"}`))
	value, err := s.storage.GetItem(s.ctx, "default_wallet_auth_key")
	s.Require().NoError(err)
	s.Equal(`{"accountId":"alice.testnet"}`, value)

	s.Require().NoError(s.storage.RemoveItem(s.ctx, "default_wallet_auth_key"))
	_, err = s.storage.GetItem(s.ctx, "default_wallet_auth_key")
	s.ErrorIs(err, core.ErrStorageItemNotFound)
}

func (s *KeyStoreSuite) TestRedisLayout() {
	if s.redis == nil {
		s.T().Skip("redis only")
	}
	kp := s.newKeyPair(core.KeyTypeED25519)
	s.Require().NoError(s.keyStore.SetKey(s.ctx, "testnet", "alice.testnet", kp))
	s.Require().NoError(s.storage.SetItem(s.ctx, "k", "v"))

	s.Equal(kp.String(), s.redis.HGet("test:keys:testnet", "alice.testnet"))
	s.NotEmpty(s.redis.HGet("test:key_times:testnet", "alice.testnet"))
	value, err := s.redis.Get("test:storage:k")
	s.Require().NoError(err)
	s.Equal("v", value)
}

func (s *KeyStoreSuite) TestStoredAt() {
	stashed := time.Unix(1_700_000_000, 0)
	s.setClock(stashed)
	defer s.setClock(time.Now())

	s.Require().NoError(s.keyStore.SetKey(s.ctx, "testnet", "pending_key:ed25519:a", s.newKeyPair(core.KeyTypeED25519)))

	at, err := s.keyStore.StoredAt(s.ctx, "testnet", "pending_key:ed25519:a")
	s.Require().NoError(err)
	s.True(stashed.Equal(at))

	_, err = s.keyStore.StoredAt(s.ctx, "testnet", "pending_key:ed25519:b")
	s.ErrorIs(err, core.ErrKeyNotFound)

	s.Require().NoError(s.keyStore.RemoveKey(s.ctx, "testnet", "pending_key:ed25519:a"))
	_, err = s.keyStore.StoredAt(s.ctx, "testnet", "pending_key:ed25519:a")
	s.ErrorIs(err, core.ErrKeyNotFound)
}

func (s *KeyStoreSuite) TestScopedStoresAreIsolated() {
	browserA := NewScopedKeyStore(s.keyStore, FixedScope("a"))
	browserB := NewScopedKeyStore(s.keyStore, FixedScope("b"))
	kp := s.newKeyPair(core.KeyTypeED25519)

	s.Require().NoError(browserA.SetKey(s.ctx, "testnet", "alice.testnet", kp))

	got, err := browserA.GetKey(s.ctx, "testnet", "alice.testnet")
	s.Require().NoError(err)
	s.Equal(kp.String(), got.String())

	_, err = browserB.GetKey(s.ctx, "testnet", "alice.testnet")
	s.ErrorIs(err, core.ErrKeyNotFound)
	_, err = s.keyStore.GetKey(s.ctx, "testnet", "alice.testnet")
	s.ErrorIs(err, core.ErrKeyNotFound)

	ids, err := browserB.ListKeys(s.ctx, "testnet")
	s.Require().NoError(err)
	s.Empty(ids)

	s.Require().NoError(browserB.RemoveKey(s.ctx, "testnet", "alice.testnet"))
	_, err = browserA.GetKey(s.ctx, "testnet", "alice.testnet")
	s.NoError(err)
}

func (s *KeyStoreSuite) TestScopedNetworks() {
	lister, ok := s.keyStore.(interface {
		ScopedNetworks(ctx context.Context, networkID string) ([]string, error)
	})
	s.Require().True(ok)

	for _, scope := range []string{"b", "a"} {
		scoped := NewScopedKeyStore(s.keyStore, FixedScope(scope))
		s.Require().NoError(scoped.SetKey(s.ctx, "testnet", "alice.testnet", s.newKeyPair(core.KeyTypeED25519)))
	}
	s.Require().NoError(NewScopedKeyStore(s.keyStore, FixedScope("c")).SetKey(s.ctx, "mainnet", "alice.near", s.newKeyPair(core.KeyTypeED25519)))
	s.Require().NoError(s.keyStore.SetKey(s.ctx, "testnet", "carol.testnet", s.newKeyPair(core.KeyTypeED25519)))

	networks, err := lister.ScopedNetworks(s.ctx, "testnet")
	s.Require().NoError(err)
	s.Equal([]string{ScopedNetworkID("testnet", "a"), ScopedNetworkID("testnet", "b")}, networks)
}

func TestScopedKeyStoreWithoutScope(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryKeyStore()
	minted := ""
	scoped := NewScopedKeyStore(inner, func(ctx context.Context, create bool) (string, error) {
		if create && minted == "" {
			minted = "fresh"
		}
		return minted, nil
	})

	_, err := scoped.GetKey(ctx, "testnet", "alice.testnet")
	if !errors.Is(err, core.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if ids, err := scoped.ListKeys(ctx, "testnet"); err != nil || len(ids) != 0 {
		t.Fatalf("expected no keys, got %v %v", ids, err)
	}
	if minted != "" {
		t.Fatalf("reads must not mint a scope")
	}

	kp, err := core.GenerateKeyPair(core.KeyTypeED25519)
	if err != nil {
		t.Fatal(err)
	}
	if err := scoped.SetKey(ctx, "testnet", "alice.testnet", kp); err != nil {
		t.Fatal(err)
	}
	if minted != "fresh" {
		t.Fatalf("write should mint a scope")
	}
	if _, err := inner.GetKey(ctx, ScopedNetworkID("testnet", "fresh"), "alice.testnet"); err != nil {
		t.Fatalf("key not stored under scoped network: %v", err)
	}
}
