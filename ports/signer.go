package ports

import (
	"context"

	"github.com/layer-3/walletredirect/core"
)

// LocalSigner signs with keys held by this app
type LocalSigner interface {
	// PublicKey returns the local key for the account, or the zero PublicKey
	// when none is held.
	PublicKey(ctx context.Context, accountID, networkID string) (core.PublicKey, error)

	// SignAndSendTransaction signs with the local key and broadcasts.
	// Errors wrap core.ErrNotEnoughAllowance when the key's allowance is spent.
	SignAndSendTransaction(ctx context.Context, accountID, receiverID string, actions []core.Action) (*core.TransactionOutcome, error)
}
