package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletredirect/adapters/events"
	"github.com/layer-3/walletredirect/adapters/tokenizer"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/service"
	transport "github.com/layer-3/walletredirect/transport/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wallet redirect flow over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.cfg

	var eventPub ports.EventPublisher
	if cfg.Redis.Stream {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: rt.redis,
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return fmt.Errorf("failed to create redis publisher: %w", err)
		}
		defer publisher.Close()
		eventPub = events.NewWatermillPublisher(publisher)
	}

	if cfg.Cookie.Secret == "" {
		return fmt.Errorf("cookie.secret is required to serve")
	}
	tok, err := tokenizer.NewJWTTokenizer([]byte(cfg.Cookie.Secret), cfg.CookieTTLDuration())
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	handlers := transport.NewHandlers(transport.Options{
		Factory: func(ctx context.Context, page ports.Page, storage ports.Storage, keyStore ports.KeyStore) (*service.WalletConnection, error) {
			return rt.connect(ctx, page, storage, keyStore, eventPub)
		},
		KeyStore:  rt.keyStore,
		Tokenizer: tok,
		Cookie: transport.CookieOptions{
			Name:   cfg.Cookie.Name,
			MaxAge: int(cfg.CookieTTLDuration().Seconds()),
			Secure: cfg.Cookie.Secure,
		},
		PublicURL: cfg.Server.PublicURL,
		Logger:    rt.logger,
	})
	router := transport.SetupRouter(handlers)

	rt.logger.Info().Str("addr", cfg.Server.Addr).Str("network_id", cfg.NetworkID).Msg("starting server")
	if err := router.Run(cfg.Server.Addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
