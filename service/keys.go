package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/rs/zerolog"
)

// PendingKeyPrefix marks a key generated for sign-in that the wallet has not
// yet confirmed.
const PendingKeyPrefix = "pending_key:"

// PendingKeyID is the key store id of the pending record for publicKey.
func PendingKeyID(publicKey string) string {
	return PendingKeyPrefix + publicKey
}

// KeyLifecycle moves access keys from pending to permanent in one network's
// key store.
//
// Promotion is three separate store calls (get, set, remove) with no
// transaction around them. A failure between set and remove leaves both the
// pending and the permanent record; a failure before set leaves only the
// pending record. Neither loses the key. Leftover pending records are removed
// by SweepPendingKeys once they are old enough that no wallet round trip can
// still be in flight.
type KeyLifecycle struct {
	keyStore  ports.KeyStore
	networkID string
	logger    zerolog.Logger
	now       func() time.Time
}

// PendingKey is a stashed key awaiting promotion
type PendingKey struct {
	PublicKey string
	StashedAt time.Time // zero when the store kept no timestamp
}

// NewKeyLifecycle creates a KeyLifecycle for networkID.
func NewKeyLifecycle(keyStore ports.KeyStore, networkID string, logger zerolog.Logger) *KeyLifecycle {
	return &KeyLifecycle{
		keyStore:  keyStore,
		networkID: networkID,
		logger:    logger,
		now:       time.Now,
	}
}

// StashPendingKey stores kp as pending under its own public key. Stashing the
// same key twice overwrites it with identical material.
func (k *KeyLifecycle) StashPendingKey(ctx context.Context, kp core.KeyPair) error {
	publicKey := kp.PublicKey().String()
	if err := k.keyStore.SetKey(ctx, k.networkID, PendingKeyID(publicKey), kp); err != nil {
		return fmt.Errorf("failed to stash pending key: %w", err)
	}
	k.logger.Debug().Str("public_key", publicKey).Msg("stashed pending key")
	return nil
}

// PromoteKey moves the pending key for publicKey to accountID. It returns an
// error wrapping core.ErrKeyNotFound when no pending record exists.
func (k *KeyLifecycle) PromoteKey(ctx context.Context, accountID, publicKey string) error {
	pendingID := PendingKeyID(publicKey)

	kp, err := k.keyStore.GetKey(ctx, k.networkID, pendingID)
	if err != nil {
		return fmt.Errorf("failed to load pending key %s: %w", publicKey, err)
	}
	if kp == nil {
		return fmt.Errorf("pending record %s is empty: %w", pendingID, core.ErrKeyNotFound)
	}
	if got := kp.PublicKey().String(); got != publicKey {
		return fmt.Errorf("pending record %s holds key %s: %w", pendingID, got, core.ErrKeyNotFound)
	}

	if err := k.keyStore.SetKey(ctx, k.networkID, accountID, kp); err != nil {
		return fmt.Errorf("failed to store key for %s: %w", accountID, err)
	}

	if err := k.keyStore.RemoveKey(ctx, k.networkID, pendingID); err != nil {
		return fmt.Errorf("failed to remove pending key %s: %w", publicKey, err)
	}

	k.logger.Info().
		Str("account_id", accountID).
		Str("public_key", publicKey).
		Msg("promoted pending key")
	return nil
}

// PendingKeys lists the pending records of the network.
func (k *KeyLifecycle) PendingKeys(ctx context.Context) ([]PendingKey, error) {
	ids, err := k.keyStore.ListKeys(ctx, k.networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var pending []PendingKey
	for _, id := range ids {
		publicKey, ok := strings.CutPrefix(id, PendingKeyPrefix)
		if !ok {
			continue
		}
		stashedAt, err := k.keyStore.StoredAt(ctx, k.networkID, id)
		if errors.Is(err, core.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stash time of %s: %w", id, err)
		}
		pending = append(pending, PendingKey{PublicKey: publicKey, StashedAt: stashedAt})
	}
	return pending, nil
}

// SweepPendingKeys removes pending records stashed at least olderThan ago
// whose public key keep rejects, and returns the removed public keys. A nil
// keep rejects every key. Records without a stash time count as old.
// Removal continues past individual failures; the joined error is returned.
func (k *KeyLifecycle) SweepPendingKeys(ctx context.Context, olderThan time.Duration, keep func(publicKey string) bool) ([]string, error) {
	pending, err := k.PendingKeys(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := k.now().Add(-olderThan)
	var removed []string
	var errs []error
	for _, p := range pending {
		if p.StashedAt.After(cutoff) || (keep != nil && keep(p.PublicKey)) {
			continue
		}
		id := PendingKeyID(p.PublicKey)
		if err := k.keyStore.RemoveKey(ctx, k.networkID, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", id, err))
			continue
		}
		removed = append(removed, p.PublicKey)
	}

	if len(removed) > 0 {
		k.logger.Info().
			Int("count", len(removed)).
			Dur("older_than", olderThan).
			Msg("swept orphaned pending keys")
	}
	return removed, errors.Join(errs...)
}
