package ports

import (
	"context"

	"github.com/layer-3/walletredirect/core"
)

// Provider answers chain queries and accepts signed transactions
type Provider interface {
	// ViewAccount returns the account state or core.ErrAccountNotFound.
	ViewAccount(ctx context.Context, accountID string) (*core.AccountView, error)
	ViewAccessKey(ctx context.Context, accountID string, publicKey core.PublicKey) (*core.AccessKey, error)
	ViewAccessKeyList(ctx context.Context, accountID string) ([]core.AccessKeyInfo, error)
	Block(ctx context.Context, finality core.Finality) (*core.Block, error)

	// SendTransaction broadcasts and waits for the outcome. An allowance
	// failure is reported as core.ErrNotEnoughAllowance.
	SendTransaction(ctx context.Context, tx *core.SignedTransaction) (*core.TransactionOutcome, error)
}
