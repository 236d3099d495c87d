package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/ports"
	"github.com/rs/zerolog"
)

// browserIDItem holds the random id that scopes the browser's keys.
const browserIDItem = "browser_id"

// cookieStorage keeps the page's durable items in one signed cookie, the
// server-side stand-in for browser local storage.
type cookieStorage struct {
	c         *gin.Context
	tokenizer ports.Tokenizer
	opts      CookieOptions
	items     map[string]string
}

func newCookieStorage(c *gin.Context, tokenizer ports.Tokenizer, opts CookieOptions, logger zerolog.Logger) *cookieStorage {
	s := &cookieStorage{c: c, tokenizer: tokenizer, opts: opts, items: map[string]string{}}

	token, err := c.Cookie(opts.Name)
	if err != nil || token == "" {
		return s
	}
	items, err := tokenizer.TokenToItems(token)
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring invalid storage cookie")
		return s
	}
	s.items = items
	return s
}

var _ ports.Storage = (*cookieStorage)(nil)

func (s *cookieStorage) GetItem(ctx context.Context, key string) (string, error) {
	v, ok := s.items[key]
	if !ok {
		return "", core.ErrStorageItemNotFound
	}
	return v, nil
}

func (s *cookieStorage) SetItem(ctx context.Context, key, value string) error {
	s.items[key] = value
	return s.flush()
}

func (s *cookieStorage) RemoveItem(ctx context.Context, key string) error {
	delete(s.items, key)
	return s.flush()
}

// browserScope returns the browser's key scope, minting it on first write.
// The id lives in the signed cookie, so a client cannot pick another's.
func (s *cookieStorage) browserScope(ctx context.Context, create bool) (string, error) {
	if id := s.items[browserIDItem]; id != "" || !create {
		return id, nil
	}
	id := uuid.NewString()
	if err := s.SetItem(ctx, browserIDItem, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *cookieStorage) flush() error {
	if len(s.items) == 0 {
		s.c.SetSameSite(http.SameSiteLaxMode)
		s.c.SetCookie(s.opts.Name, "", -1, "/", "", s.opts.Secure, true)
		return nil
	}

	token, err := s.tokenizer.ItemsToToken(s.items)
	if err != nil {
		return err
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.opts.Name, token, s.opts.MaxAge, "/", "", s.opts.Secure, true)
	return nil
}
