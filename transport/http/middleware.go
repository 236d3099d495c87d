package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/walletredirect/adapters/store"
	"github.com/layer-3/walletredirect/service"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestId"
	connectionKey   = "walletConnection"
	pageKey         = "walletPage"
)

// RequestLogger tags each request with an id and logs it once it completes
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// ConnectionMiddleware opens a wallet connection for the request, which
// completes any sign-in the request URL carries back from the wallet
func ConnectionMiddleware(h *Handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := h.opts.Logger.With().Str("request_id", c.GetString(requestIDKey)).Logger()

		page := newRequestPage(c, h.opts.PublicURL)
		storage := newCookieStorage(c, h.opts.Tokenizer, h.opts.Cookie, logger)
		keyStore := store.NewScopedKeyStore(h.opts.KeyStore, storage.browserScope)

		conn, err := h.opts.Factory(c.Request.Context(), page, storage, keyStore)
		if err != nil {
			logger.Error().Err(err).Msg("failed to open wallet connection")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to open wallet connection"})
			return
		}

		// The wallet callback parameters were consumed; send the browser to the clean URL.
		if page.replaced() && c.Request.Method == http.MethodGet {
			c.Redirect(http.StatusSeeOther, page.CurrentURL())
			c.Abort()
			return
		}

		c.Set(connectionKey, conn)
		c.Set(pageKey, page)
		c.Next()
	}
}

// RequireSignedIn rejects requests without a signed-in wallet session
func RequireSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn := connectionFrom(c)
		if conn == nil || !conn.IsSignedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			return
		}
		c.Next()
	}
}

func connectionFrom(c *gin.Context) *service.WalletConnection {
	v, ok := c.Get(connectionKey)
	if !ok {
		return nil
	}
	conn, _ := v.(*service.WalletConnection)
	return conn
}

func pageFrom(c *gin.Context) *requestPage {
	v, ok := c.Get(pageKey)
	if !ok {
		return nil
	}
	page, _ := v.(*requestPage)
	return page
}
