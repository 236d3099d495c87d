package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/layer-3/walletredirect/adapters/provider"
	"github.com/layer-3/walletredirect/adapters/signer"
	"github.com/layer-3/walletredirect/adapters/store"
	"github.com/layer-3/walletredirect/core"
	"github.com/layer-3/walletredirect/internal/config"
	"github.com/layer-3/walletredirect/internal/logging"
	"github.com/layer-3/walletredirect/ports"
	"github.com/layer-3/walletredirect/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "walletredirect",
	Short:        "Connect apps to a redirect-based wallet",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the TOML config file")
	rootCmd.AddCommand(serveCmd, sweepCmd, signInURLCmd, completeCmd)
}

// runtime holds the dependencies every command shares
type runtime struct {
	cfg      *config.Config
	logger   zerolog.Logger
	redis    *redis.Client
	keyStore *store.RedisKeyStore
	provider *provider.RPCProvider
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		redis:    client,
		keyStore: store.NewRedisKeyStore(client, cfg.Redis.KeyPrefix),
		provider: provider.NewRPCProvider(cfg.NodeURL, &http.Client{}),
	}, nil
}

func (r *runtime) connectionConfig() (service.Config, error) {
	keyType, err := core.ParseKeyType(r.cfg.KeyType)
	if err != nil {
		return service.Config{}, err
	}
	return service.Config{
		NetworkID:       r.cfg.NetworkID,
		WalletBaseURL:   r.cfg.WalletURL,
		AppKeyPrefix:    r.cfg.AppKeyPrefix,
		RedirectTimeout: r.cfg.RedirectTimeoutDuration(),
		KeyType:         keyType,
	}, nil
}

// connect opens a wallet connection on page with session items kept in
// storage. Local keys are read from and written to keyStore only.
func (r *runtime) connect(ctx context.Context, page ports.Page, storage ports.Storage, keyStore ports.KeyStore, events ports.EventPublisher) (*service.WalletConnection, error) {
	cfg, err := r.connectionConfig()
	if err != nil {
		return nil, err
	}
	return service.NewWalletConnection(ctx, cfg, service.Dependencies{
		KeyStore: keyStore,
		Storage:  storage,
		Provider: r.provider,
		Signer:   signer.NewKeyStoreSigner(keyStore, r.provider, cfg.NetworkID),
		Page:     page,
		Events:   events,
		Logger:   &r.logger,
	})
}

func (r *runtime) Close() error {
	return r.redis.Close()
}
