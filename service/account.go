package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/redirect"
)

// SigningState is a step of the signing decision for one request
type SigningState int

const (
	StateEvaluating SigningState = iota
	StateLocalSign
	StateDelegateRedirect
	StateFailed
)

func (s SigningState) String() string {
	switch s {
	case StateEvaluating:
		return "evaluating"
	case StateLocalSign:
		return "local_sign"
	case StateDelegateRedirect:
		return "delegate_redirect"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("SigningState(%d)", int(s))
	}
}

// decideSigning picks the next state from the resolved access key. A local
// key that is itself the match signs locally; any other match goes to the
// wallet.
func decideSigning(localKey core.PublicKey, match *core.AccessKeyInfo) SigningState {
	switch {
	case match == nil:
		return StateFailed
	case !localKey.IsZero() && localKey.String() == match.PublicKey:
		return StateLocalSign
	default:
		return StateDelegateRedirect
	}
}

// SignTransactionRequest is one transaction the app wants signed and sent
type SignTransactionRequest struct {
	ReceiverID        string
	Actions           []core.Action
	WalletMeta        string // Passed through to the wallet as meta
	WalletCallbackURL string // Defaults to the current page
}

// ConnectedAccount signs for the signed-in account, locally when a usable
// key is held and through the wallet otherwise.
type ConnectedAccount struct {
	conn      *WalletConnection
	accountID string
}

// AccountID returns the account this signs for.
func (a *ConnectedAccount) AccountID() string {
	return a.accountID
}

// SignAndSendTransaction signs and sends req.
//
// When the wallet has to sign, the page is navigated away and the call
// returns core.ErrRedirectTimeout once the redirect timeout elapses, or the
// context error if ctx ends first. A real host never observes either.
// Concurrent calls each navigate independently; nonces are the chain nonce
// plus one with no reservation.
func (a *ConnectedAccount) SignAndSendTransaction(ctx context.Context, req SignTransactionRequest) (*core.TransactionOutcome, error) {
	c := a.conn
	logger := c.logger.With().Str("account_id", a.accountID).Str("receiver_id", req.ReceiverID).Logger()

	localKey, err := c.deps.Signer.PublicKey(ctx, a.accountID, c.cfg.NetworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local key: %w", err)
	}

	match, err := c.resolver.AccessKeyForTransaction(ctx, a.accountID, req.ReceiverID, req.Actions, localKey)
	if err != nil {
		return nil, err
	}

	state := decideSigning(localKey, match)
	logger.Debug().Stringer("state", state).Msg("signing decision")

	if state == StateLocalSign {
		outcome, err := c.deps.Signer.SignAndSendTransaction(ctx, a.accountID, req.ReceiverID, req.Actions)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, core.ErrNotEnoughAllowance) {
			return nil, err
		}

		logger.Info().Msg("local key allowance exceeded, delegating to wallet")
		match, err = c.resolver.AccessKeyForTransaction(ctx, a.accountID, req.ReceiverID, req.Actions, core.PublicKey{})
		if err != nil {
			return nil, err
		}
		state = StateDelegateRedirect
		if match == nil {
			state = StateFailed
		}
	}

	if state == StateFailed {
		return nil, &core.NoMatchingKeyError{ReceiverID: req.ReceiverID}
	}

	tx, err := a.delegatedTransaction(ctx, match, req)
	if err != nil {
		return nil, err
	}

	err = c.RequestSignTransactions(ctx, redirect.SignTransactionsOptions{
		Transactions: []*core.Transaction{tx},
		Meta:         req.WalletMeta,
		CallbackURL:  req.WalletCallbackURL,
	})
	if err != nil {
		return nil, err
	}

	return nil, awaitNavigation(ctx, c.cfg.RedirectTimeout)
}

func (a *ConnectedAccount) delegatedTransaction(ctx context.Context, match *core.AccessKeyInfo, req SignTransactionRequest) (*core.Transaction, error) {
	block, err := a.conn.deps.Provider.Block(ctx, core.FinalityFinal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch final block: %w", err)
	}
	blockHash, err := block.HashBytes()
	if err != nil {
		return nil, err
	}

	publicKey, err := core.ParsePublicKey(match.PublicKey)
	if err != nil {
		return nil, err
	}

	nonce := match.AccessKey.Nonce + 1
	return core.NewTransaction(a.accountID, publicKey, req.ReceiverID, nonce, req.Actions, blockHash), nil
}

// awaitNavigation waits for a navigation that should already have unloaded
// the page and fails once timeout elapses.
func awaitNavigation(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return core.ErrRedirectTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
