package service

import (
	"context"
	"fmt"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
)

// ProviderAccessKeyResolver resolves access keys from the chain, limited to
// keys the wallet reported for the signed-in session.
type ProviderAccessKeyResolver struct {
	provider   ports.Provider
	walletKeys func() []string
}

// NewProviderAccessKeyResolver creates a resolver. walletKeys returns the keys
// the wallet reported as authorized; it is read on every call.
func NewProviderAccessKeyResolver(provider ports.Provider, walletKeys func() []string) *ProviderAccessKeyResolver {
	return &ProviderAccessKeyResolver{
		provider:   provider,
		walletKeys: walletKeys,
	}
}

// AccessKeyForTransaction implements ports.AccessKeyResolver.
func (r *ProviderAccessKeyResolver) AccessKeyForTransaction(
	ctx context.Context,
	accountID, receiverID string,
	actions []core.Action,
	localKey core.PublicKey,
) (*core.AccessKeyInfo, error) {
	keys, err := r.provider.ViewAccessKeyList(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access keys for %s: %w", accountID, err)
	}

	if !localKey.IsZero() {
		local := localKey.String()
		for i := range keys {
			if keys[i].PublicKey == local && keys[i].MatchesTransaction(receiverID, actions) {
				return &keys[i], nil
			}
		}
	}

	wallet := &core.AuthSession{AllKeys: r.walletKeys()}
	for i := range keys {
		if wallet.HasKey(keys[i].PublicKey) && keys[i].MatchesTransaction(receiverID, actions) {
			return &keys[i], nil
		}
	}

	return nil, nil
}
