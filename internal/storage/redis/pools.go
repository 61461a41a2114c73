// Package redis shares resolved pool metadata between indexer processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fillScope/internal/model"
	"fillScope/internal/pools"
)

var _ pools.Layer = (*PoolCache)(nil)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys, typically per chain.
	Prefix string
}

// PoolCache stores pool metadata as JSON values without expiry. Pool
// identity never changes once deployed.
type PoolCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewPoolCache connects and pings the server.
func NewPoolCache(ctx context.Context, opts Options, logger *zap.Logger) (*PoolCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &PoolCache{client: client, prefix: opts.Prefix, logger: logger}, nil
}

func (c *PoolCache) Close() error {
	return c.client.Close()
}

func (c *PoolCache) key(kind string, address common.Address) string {
	key := kind + ":" + strings.ToLower(address.Hex())
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *PoolCache) LoadNftPool(ctx context.Context, address common.Address) (model.NftPool, bool, error) {
	var pool model.NftPool
	ok, err := c.load(ctx, c.key("nft-pool", address), &pool)
	return pool, ok, err
}

func (c *PoolCache) SaveNftPool(ctx context.Context, pool model.NftPool) error {
	return c.save(ctx, c.key("nft-pool", pool.Address), pool)
}

func (c *PoolCache) LoadFtPool(ctx context.Context, address common.Address) (model.FtPool, bool, error) {
	var pool model.FtPool
	ok, err := c.load(ctx, c.key("ft-pool", address), &pool)
	return pool, ok, err
}

func (c *PoolCache) SaveFtPool(ctx context.Context, pool model.FtPool) error {
	return c.save(ctx, c.key("ft-pool", pool.Address), pool)
}

func (c *PoolCache) load(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *PoolCache) save(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
