package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fillScope/internal/attribution"
	"fillScope/internal/chain"
	"fillScope/internal/config"
	"fillScope/internal/engine"
	"fillScope/internal/events"
	"fillScope/internal/indexer"
	"fillScope/internal/orders"
	"fillScope/internal/pools"
	"fillScope/internal/pricing"
	"fillScope/internal/storage"
	"fillScope/internal/storage/postgres"
	"fillScope/internal/storage/redis"
	"fillScope/internal/tokens"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	wrapped, err := indexer.ParseAddress(cfg.WrappedNative)
	if err != nil {
		return fmt.Errorf("wrapped native: %w", err)
	}
	vaultFactory, err := indexer.ParseAddress(cfg.NftxVaultFactory)
	if err != nil {
		return fmt.Errorf("nftx vault factory: %w", err)
	}
	ammFactory, err := indexer.ParseAddress(cfg.NftxAmmFactory)
	if err != nil {
		return fmt.Errorf("nftx amm factory: %w", err)
	}
	omnibus, err := indexer.ParseAddress(cfg.ZoraOfferOmnibus)
	if err != nil {
		return fmt.Errorf("zora offer omnibus: %w", err)
	}
	routers, err := indexer.ParseSources(cfg.Sources)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	registry, err := events.NewRegistry(events.Config{
		ChainID:   chainClient.ChainID(),
		Contracts: contractOverrides(omnibus),
	})
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}

	var layers []pools.Layer
	if cfg.RedisAddr != "" {
		cache, err := redis.NewPoolCache(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   fmt.Sprintf("fillscope:%d", chainClient.ChainID()),
		}, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		layers = append(layers, cache)
	}

	errorSink := storage.NewJsonlStorage(cfg.Errors)
	deps := indexer.Deps{Source: chainClient, DecodeErrors: errorSink}

	var (
		priceSource pricing.USDPriceSource
		orderStore  orders.Store
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		layers = append(layers, store)
		priceSource = store
		orderStore = store
		deps.Sink = store
		if cfg.CheckpointEnabled {
			deps.Checkpoint = indexer.NewStateCheckpoint(store, fmt.Sprintf("sync:%d", chainClient.ChainID()))
		}
	} else {
		static := pricing.NewStaticSource()
		if cfg.NativeUSDPrice != "" {
			price, err := decimal.NewFromString(cfg.NativeUSDPrice)
			if err != nil {
				return fmt.Errorf("native usd price: %w", err)
			}
			static.Set(pricing.NativeCurrency, 0, price.Shift(pricing.USDDecimals).BigInt())
		}
		priceSource = static
		orderStore = orders.NewMemory()
		deps.Sink = storage.NewJsonlStorage(cfg.Out)
		deps.Checkpoint = indexer.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	}

	proc, err := engine.New(engine.Config{Concurrency: cfg.Concurrency}, engine.Deps{
		Registry: registry,
		Fetcher:  chainClient,
		Pools: pools.NewProvider(pools.Config{
			VaultFactory: vaultFactory,
			AmmFactory:   ammFactory,
		}, chainClient, logger, layers...),
		Prices: pricing.NewOracle(pricing.Config{WrappedNative: wrapped},
			priceSource, tokens.NewCache(chainClient, logger), logger),
		Attribution: attribution.NewResolver(attribution.Config{Routers: routers}),
		Orders:      orderStore,
	}, logger)
	if err != nil {
		return err
	}
	defer proc.Close()
	deps.Processor = proc

	topic0 := registry.Topics()
	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:     cfg.FromBlock,
		ToBlock:       cfg.ToBlock,
		Confirmations: cfg.Confirmations,
		Addresses:     addresses,
		Topic0:        topic0,
		BatchSize:     cfg.BatchSize,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, deps, logger)

	logger.Info("sync start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainClient.ChainID()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("concurrency", cfg.Concurrency),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("redis", cfg.RedisAddr),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}

// contractOverrides returns the registry overrides for configured addresses.
func contractOverrides(omnibus common.Address) map[string][]common.Address {
	if omnibus == (common.Address{}) {
		return nil
	}
	return map[string][]common.Address{events.ContractZoraOfferOmnibus: {omnibus}}
}
