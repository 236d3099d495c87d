package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/service"
	"github.com/rs/zerolog"
)

// ConnectionFactory opens a wallet connection on the page and storage of one
// request. keyStore is confined to the requesting browser and must back both
// the connection and its local signer.
type ConnectionFactory func(ctx context.Context, page ports.Page, storage ports.Storage, keyStore ports.KeyStore) (*service.WalletConnection, error)

// CookieOptions configures the storage cookie
type CookieOptions struct {
	Name   string
	MaxAge int // seconds
	Secure bool
}

// Options configures the HTTP handlers
type Options struct {
	Factory   ConnectionFactory
	KeyStore  ports.KeyStore // Shared store; each browser sees only its own scope
	Tokenizer ports.Tokenizer
	Cookie    CookieOptions
	PublicURL string // Scheme and host the browser sees, e.g. https://app.example
	Logger    zerolog.Logger
}

// Handlers contains HTTP handlers for the wallet redirect flow
type Handlers struct {
	opts Options
}

// NewHandlers creates new handlers
func NewHandlers(opts Options) *Handlers {
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "walletredirect"
	}
	return &Handlers{opts: opts}
}

// Index handles a plain page load
func (h *Handlers) Index(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(connectionFrom(c)))
}

// Session returns the current wallet session
func (h *Handlers) Session(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(connectionFrom(c)))
}

// Login redirects to the wallet sign-in page
func (h *Handlers) Login(c *gin.Context) {
	conn := connectionFrom(c)
	page := pageFrom(c)

	opts := service.SignInOptions{
		ContractID:  c.Query("contract_id"),
		MethodNames: c.QueryArray("methodNames"),
		SuccessURL:  c.Query("success_url"),
		FailureURL:  c.Query("failure_url"),
	}

	if err := conn.RequestSignIn(c.Request.Context(), opts); err != nil {
		if page.navigated {
			return
		}
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to start sign-in"

		switch {
		case errors.Is(err, core.ErrAccountNotFound):
			statusCode = http.StatusBadRequest
			errorMsg = "Contract account does not exist"
		case errors.Is(err, core.ErrInvalidWalletBaseURL):
			errorMsg = "Wallet is misconfigured"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	if !page.navigated {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in did not redirect"})
	}
}

// Sign signs and sends a transaction, locally or by redirecting to the wallet
func (h *Handlers) Sign(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	actions, err := req.toActions()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn := connectionFrom(c)
	page := pageFrom(c)

	account, err := conn.Account()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
		return
	}

	// Navigating ends this request the way it would end a page.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	page.onNavigate = cancel

	outcome, err := account.SignAndSendTransaction(ctx, service.SignTransactionRequest{
		ReceiverID:        req.ReceiverID,
		Actions:           actions,
		WalletMeta:        req.Meta,
		WalletCallbackURL: req.CallbackURL,
	})
	if page.navigated {
		return
	}
	if err != nil {
		statusCode := http.StatusBadGateway
		errorMsg := "Failed to sign transaction"

		var noKey *core.NoMatchingKeyError
		switch {
		case errors.As(err, &noKey):
			statusCode = http.StatusForbidden
			errorMsg = noKey.Error()
		case errors.Is(err, core.ErrRedirectTimeout):
			statusCode = http.StatusGatewayTimeout
			errorMsg = "Redirect to wallet did not happen"
		}

		h.opts.Logger.Warn().Err(err).Str("receiver_id", req.ReceiverID).Msg("sign request failed")
		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Logout forgets the wallet session
func (h *Handlers) Logout(c *gin.Context) {
	if err := connectionFrom(c).SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func newSessionResponse(conn *service.WalletConnection) sessionResponse {
	session := conn.Session()
	return sessionResponse{
		SignedIn:  conn.IsSignedIn(),
		AccountID: session.AccountID,
		AllKeys:   session.AllKeys,
	}
}
