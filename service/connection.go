package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/redirect"
	"github.com/rs/zerolog"
)

const (
	// DefaultRedirectTimeout bounds how long a signing call waits after
	// navigating before it gives up.
	DefaultRedirectTimeout = time.Second

	authDataKeySuffix   = "_wallet_auth_key"
	defaultAppKeyPrefix = "default"
)

// Redirect kinds passed to EventPublisher.PublishRedirect.
const (
	RedirectSignIn           = "sign_in"
	RedirectSignTransactions = "sign_transactions"
)

// Config configures a WalletConnection
type Config struct {
	NetworkID       string
	WalletBaseURL   string
	AppKeyPrefix    string        // Namespaces the session record; defaults to "default"
	RedirectTimeout time.Duration // Defaults to DefaultRedirectTimeout
	KeyType         core.KeyType  // Curve of generated access keys
}

// Dependencies are the capabilities a WalletConnection calls
type Dependencies struct {
	KeyStore ports.KeyStore
	Storage  ports.Storage
	Provider ports.Provider
	Signer   ports.LocalSigner
	Page     ports.Page

	// Optional.
	Events   ports.EventPublisher
	Resolver ports.AccessKeyResolver
	Logger   *zerolog.Logger
}

// SignInOptions configures RequestSignIn
type SignInOptions struct {
	ContractID  string
	MethodNames []string
	SuccessURL  string
	FailureURL  string
}

// WalletConnection connects an app to a wallet reachable only by page
// navigation. It lives for a single page load: anything that must outlast
// a navigation goes through the key store or the session storage.
type WalletConnection struct {
	cfg         Config
	deps        Dependencies
	keys        *KeyLifecycle
	resolver    ports.AccessKeyResolver
	events      ports.EventPublisher
	logger      zerolog.Logger
	authDataKey string

	session    *core.AuthSession
	completion *CompletionResult
	account    *ConnectedAccount
}

// NewWalletConnection loads the stored session and, when not signed in,
// completes a sign-in the page may have just returned from.
func NewWalletConnection(ctx context.Context, cfg Config, deps Dependencies) (*WalletConnection, error) {
	if cfg.NetworkID == "" {
		return nil, errors.New("network id is required")
	}
	if cfg.WalletBaseURL == "" {
		return nil, core.ErrInvalidWalletBaseURL
	}
	if cfg.AppKeyPrefix == "" {
		cfg.AppKeyPrefix = defaultAppKeyPrefix
	}
	if cfg.RedirectTimeout <= 0 {
		cfg.RedirectTimeout = DefaultRedirectTimeout
	}

	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = deps.Logger.With().Str("component", "wallet_connection").Logger()
	}
	events := deps.Events
	if events == nil {
		events = nopPublisher{}
	}

	c := &WalletConnection{
		cfg:         cfg,
		deps:        deps,
		keys:        NewKeyLifecycle(deps.KeyStore, cfg.NetworkID, logger),
		events:      events,
		logger:      logger,
		authDataKey: cfg.AppKeyPrefix + authDataKeySuffix,
		session:     &core.AuthSession{},
	}
	c.resolver = deps.Resolver
	if c.resolver == nil {
		c.resolver = NewProviderAccessKeyResolver(deps.Provider, func() []string { return c.session.AllKeys })
	}

	session, err := loadSession(ctx, deps.Storage, c.authDataKey)
	switch {
	case err == nil:
		c.session = session
	case errors.Is(err, core.ErrStorageItemNotFound):
	default:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if !c.IsSignedIn() {
		handler := NewCompletionHandler(deps.Page, deps.Storage, c.keys, events, c.authDataKey, cfg.NetworkID, logger)
		result, err := handler.Complete(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to complete sign-in: %w", err)
		}
		c.completion = result
		if result.Session != nil {
			c.session = result.Session
		}
	}

	return c, nil
}

// IsSignedIn reports whether an account is signed in.
func (c *WalletConnection) IsSignedIn() bool {
	return c.session.SignedIn()
}

// AccountID returns the signed-in account, or "".
func (c *WalletConnection) AccountID() string {
	return c.session.AccountID
}

// Session returns a copy of the current session.
func (c *WalletConnection) Session() core.AuthSession {
	return core.AuthSession{
		AccountID: c.session.AccountID,
		AllKeys:   append([]string(nil), c.session.AllKeys...),
	}
}

// Completion returns what the constructor found in the page URL, or nil when
// the connection was already signed in.
func (c *WalletConnection) Completion() *CompletionResult {
	return c.completion
}

// KeyLifecycle exposes the pending key manager for maintenance tasks.
func (c *WalletConnection) KeyLifecycle() *KeyLifecycle {
	return c.keys
}

// RequestSignIn navigates to the wallet login page. With a contract id it
// first checks the contract account exists, then generates and stashes a
// pending access key for the wallet to authorize.
func (c *WalletConnection) RequestSignIn(ctx context.Context, opts SignInOptions) error {
	urlOpts := redirect.SignInOptions{
		ContractID:  opts.ContractID,
		MethodNames: opts.MethodNames,
		SuccessURL:  opts.SuccessURL,
		FailureURL:  opts.FailureURL,
	}

	if opts.ContractID != "" {
		if _, err := c.deps.Provider.ViewAccount(ctx, opts.ContractID); err != nil {
			return fmt.Errorf("contract account %s: %w", opts.ContractID, err)
		}

		kp, err := core.GenerateKeyPair(c.cfg.KeyType)
		if err != nil {
			return err
		}
		urlOpts.PublicKey = kp.PublicKey().String()

		if err := c.keys.StashPendingKey(ctx, kp); err != nil {
			return err
		}
	}

	target, err := redirect.BuildSignInURL(c.cfg.WalletBaseURL, c.deps.Page.CurrentURL(), urlOpts)
	if err != nil {
		return err
	}
	return c.navigate(ctx, RedirectSignIn, target)
}

// RequestSignTransactions navigates to the wallet to sign and send txs.
func (c *WalletConnection) RequestSignTransactions(ctx context.Context, opts redirect.SignTransactionsOptions) error {
	target, err := redirect.BuildSignTransactionsURL(c.cfg.WalletBaseURL, c.deps.Page.CurrentURL(), opts)
	if err != nil {
		return err
	}
	return c.navigate(ctx, RedirectSignTransactions, target)
}

// SignOut forgets the session. Keys stay in the key store.
func (c *WalletConnection) SignOut(ctx context.Context) error {
	accountID := c.session.AccountID
	c.session = &core.AuthSession{}
	c.account = nil

	if err := c.deps.Storage.RemoveItem(ctx, c.authDataKey); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	if err := c.events.PublishSignOut(ctx, accountID); err != nil {
		c.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to publish sign-out event")
	}
	return nil
}

// Account returns the signed-in account.
func (c *WalletConnection) Account() (*ConnectedAccount, error) {
	if !c.IsSignedIn() {
		return nil, core.ErrNotSignedIn
	}
	if c.account == nil {
		c.account = &ConnectedAccount{conn: c, accountID: c.session.AccountID}
	}
	return c.account, nil
}

func (c *WalletConnection) navigate(ctx context.Context, kind, target string) error {
	if err := c.events.PublishRedirect(ctx, kind, target); err != nil {
		c.logger.Warn().Err(err).Str("kind", kind).Msg("failed to publish redirect event")
	}
	c.logger.Info().Str("kind", kind).Msg("redirecting to wallet")

	if err := c.deps.Page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to navigate to wallet: %w", err)
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishSignIn(context.Context, string, []string) error            { return nil }
func (nopPublisher) PublishSignInFailed(context.Context, string, string) error        { return nil }
func (nopPublisher) PublishKeyPromoted(context.Context, string, string, string) error { return nil }
func (nopPublisher) PublishRedirect(context.Context, string, string) error            { return nil }
func (nopPublisher) PublishSignOut(context.Context, string) error                     { return nil }
