package ports

import (
	"context"

	"github.com/layer-3/walletredirect/core"
)

// AccessKeyResolver picks the authorized access key that can sign a transaction
type AccessKeyResolver interface {
	// AccessKeyForTransaction returns the best key for the transaction, or nil
	// when none can sign it. A non-zero localKey is preferred when it matches.
	AccessKeyForTransaction(ctx context.Context, accountID, receiverID string, actions []core.Action, localKey core.PublicKey) (*core.AccessKeyInfo, error)
}
