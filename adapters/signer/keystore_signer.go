package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
)

// KeyStoreSigner implements the LocalSigner interface with keys from a KeyStore
type KeyStoreSigner struct {
	keyStore  ports.KeyStore
	provider  ports.Provider
	networkID string
}

// NewKeyStoreSigner creates a signer for accounts on networkID
func NewKeyStoreSigner(keyStore ports.KeyStore, provider ports.Provider, networkID string) *KeyStoreSigner {
	return &KeyStoreSigner{
		keyStore:  keyStore,
		provider:  provider,
		networkID: networkID,
	}
}

var _ ports.LocalSigner = (*KeyStoreSigner)(nil)

// PublicKey returns the account's stored key, or the zero key when none is stored
func (s *KeyStoreSigner) PublicKey(ctx context.Context, accountID, networkID string) (core.PublicKey, error) {
	kp, err := s.keyStore.GetKey(ctx, networkID, accountID)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return core.PublicKey{}, nil
		}
		return core.PublicKey{}, err
	}
	if kp == nil {
		return core.PublicKey{}, nil
	}
	return kp.PublicKey(), nil
}

// SignAndSendTransaction signs with the stored key and broadcasts
func (s *KeyStoreSigner) SignAndSendTransaction(ctx context.Context, accountID, receiverID string, actions []core.Action) (*core.TransactionOutcome, error) {
	kp, err := s.keyStore.GetKey(ctx, s.networkID, accountID)
	if err != nil {
		return nil, fmt.Errorf("no local key for %s: %w", accountID, err)
	}
	if kp == nil {
		return nil, fmt.Errorf("no local key for %s: %w", accountID, core.ErrKeyNotFound)
	}
	publicKey := kp.PublicKey()

	accessKey, err := s.provider.ViewAccessKey(ctx, accountID, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access key: %w", err)
	}

	block, err := s.provider.Block(ctx, core.FinalityFinal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch final block: %w", err)
	}
	blockHash, err := block.HashBytes()
	if err != nil {
		return nil, err
	}

	tx := core.NewTransaction(accountID, publicKey, receiverID, accessKey.Nonce+1, actions, blockHash)
	signed, err := tx.Sign(kp)
	if err != nil {
		return nil, err
	}

	return s.provider.SendTransaction(ctx, signed)
}
