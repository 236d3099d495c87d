package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/redirect"
	"github.com/rs/zerolog"
)

// CompletionResult describes what a page load carried back from the wallet
type CompletionResult struct {
	Params      core.CallbackParams
	Session     *core.AuthSession // nil unless the URL carried an account
	PromotedKey string            // public key moved from pending to permanent
	PromoteErr  error             // why promotion was skipped, if it was attempted
	WalletErr   error             // failure reported by the wallet, if any
}

// CompletionHandler finishes a sign-in when the page returns from the wallet
type CompletionHandler struct {
	page        ports.Page
	storage     ports.Storage
	keys        *KeyLifecycle
	events      ports.EventPublisher
	authDataKey string
	networkID   string
	logger      zerolog.Logger
}

// NewCompletionHandler creates a handler persisting sessions under authDataKey.
func NewCompletionHandler(
	page ports.Page,
	storage ports.Storage,
	keys *KeyLifecycle,
	events ports.EventPublisher,
	authDataKey, networkID string,
	logger zerolog.Logger,
) *CompletionHandler {
	return &CompletionHandler{
		page:        page,
		storage:     storage,
		keys:        keys,
		events:      events,
		authDataKey: authDataKey,
		networkID:   networkID,
		logger:      logger,
	}
}

// Complete reads the callback parameters, persists the session when an
// account came back, promotes the pending key and strips the parameters
// from the page URL. Key promotion failures are recorded on the result and
// never returned as an error.
func (h *CompletionHandler) Complete(ctx context.Context) (*CompletionResult, error) {
	currentURL := h.page.CurrentURL()

	params, err := redirect.ParseCallbackParams(currentURL)
	if err != nil {
		return nil, err
	}
	result := &CompletionResult{Params: params}

	if params.AccountID != "" {
		session := &core.AuthSession{AccountID: params.AccountID, AllKeys: params.AllKeys}
		if err := saveSession(ctx, h.storage, h.authDataKey, session); err != nil {
			return nil, err
		}
		result.Session = session

		if err := h.events.PublishSignIn(ctx, session.AccountID, session.AllKeys); err != nil {
			h.logger.Warn().Err(err).Str("account_id", session.AccountID).Msg("failed to publish sign-in event")
		}

		if params.PublicKey != "" {
			h.promote(ctx, result)
		}
	} else if walletErr := params.Err(); walletErr != nil {
		result.WalletErr = walletErr
		h.logger.Warn().Err(walletErr).Msg("wallet reported sign-in failure")
		if err := h.events.PublishSignInFailed(ctx, params.ErrorCode, params.ErrorMessage); err != nil {
			h.logger.Warn().Err(err).Msg("failed to publish sign-in failure event")
		}
	}

	stripped, err := redirect.StripCallbackParams(currentURL)
	if err != nil {
		return nil, err
	}
	h.page.ReplaceURL(stripped)

	return result, nil
}

func (h *CompletionHandler) promote(ctx context.Context, result *CompletionResult) {
	accountID, publicKey := result.Params.AccountID, result.Params.PublicKey

	if err := h.keys.PromoteKey(ctx, accountID, publicKey); err != nil {
		result.PromoteErr = err
		h.logger.Warn().
			Err(err).
			Str("account_id", accountID).
			Str("public_key", publicKey).
			Msg("signed in without promoting pending key")
		return
	}
	result.PromotedKey = publicKey

	if err := h.events.PublishKeyPromoted(ctx, h.networkID, accountID, publicKey); err != nil {
		h.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to publish key promotion event")
	}
}

func loadSession(ctx context.Context, storage ports.Storage, key string) (*core.AuthSession, error) {
	raw, err := storage.GetItem(ctx, key)
	if err != nil {
		return nil, err
	}
	var session core.AuthSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return &session, nil
}

func saveSession(ctx context.Context, storage ports.Storage, key string, session *core.AuthSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := storage.SetItem(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}
