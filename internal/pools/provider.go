// Package pools resolves NFT vaults and AMM pairs. Pool identity is immutable
// once deployed, so positive results are cached for the life of the process.
package pools

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

// Layer is a shared cache or store consulted before the chain. Layers are
// best effort: their errors are logged and treated as misses.
type Layer interface {
	LoadNftPool(ctx context.Context, address common.Address) (model.NftPool, bool, error)
	SaveNftPool(ctx context.Context, pool model.NftPool) error
	LoadFtPool(ctx context.Context, address common.Address) (model.FtPool, bool, error)
	SaveFtPool(ctx context.Context, pool model.FtPool) error
}

// Config holds the factories used to reject impostor contracts.
// A zero address disables the corresponding check.
type Config struct {
	VaultFactory common.Address
	AmmFactory   common.Address
}

// Provider implements getPoolDetails for both pool variants.
type Provider struct {
	cfg    Config
	caller Caller
	layers []Layer
	logger *zap.Logger

	nft   *xsync.Map[common.Address, model.NftPool]
	ft    *xsync.Map[common.Address, model.FtPool]
	group singleflight.Group
}

// NewProvider builds a provider. Layers are consulted in order.
func NewProvider(cfg Config, caller Caller, logger *zap.Logger, layers ...Layer) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		caller: caller,
		layers: layers,
		logger: logger,
		nft:    xsync.NewMap[common.Address, model.NftPool](),
		ft:     xsync.NewMap[common.Address, model.FtPool](),
	}
}

// Details returns whichever pool variant lives at address.
func (p *Provider) Details(ctx context.Context, address common.Address) (model.PoolState, error) {
	nftPool, err := p.NftPool(ctx, address)
	if err == nil {
		return nftPool, nil
	}
	if !errors.Is(err, failure.ErrNotFound) {
		return nil, err
	}
	ftPool, err := p.FtPool(ctx, address)
	if err != nil {
		return nil, err
	}
	return ftPool, nil
}

// NftPool resolves a vault. It returns failure.ErrNotFound when address is
// not a vault created by the configured factory. Not-found results are not
// cached, so a later successful lookup always wins.
func (p *Provider) NftPool(ctx context.Context, address common.Address) (model.NftPool, error) {
	if pool, ok := p.nft.Load(address); ok {
		return pool, nil
	}

	v, err, _ := p.group.Do("nft:"+address.Hex(), func() (interface{}, error) {
		for i, layer := range p.layers {
			pool, ok, err := layer.LoadNftPool(ctx, address)
			if err != nil {
				p.logger.Debug("nft pool layer load failed", zap.String("pool", address.Hex()), zap.Error(err))
				continue
			}
			if ok {
				p.nft.Store(address, pool)
				p.saveNft(ctx, p.layers[:i], pool)
				return pool, nil
			}
		}

		pool, err := p.fetchNftPool(ctx, address)
		if err != nil {
			return nil, err
		}
		p.nft.Store(address, pool)
		p.saveNft(ctx, p.layers, pool)
		return pool, nil
	})
	if err != nil {
		return model.NftPool{}, err
	}
	return v.(model.NftPool), nil
}

// FtPool resolves an AMM pair, returning failure.ErrNotFound when address is
// not a pair of the configured factory.
func (p *Provider) FtPool(ctx context.Context, address common.Address) (model.FtPool, error) {
	if pool, ok := p.ft.Load(address); ok {
		return pool, nil
	}

	v, err, _ := p.group.Do("ft:"+address.Hex(), func() (interface{}, error) {
		for i, layer := range p.layers {
			pool, ok, err := layer.LoadFtPool(ctx, address)
			if err != nil {
				p.logger.Debug("ft pool layer load failed", zap.String("pool", address.Hex()), zap.Error(err))
				continue
			}
			if ok {
				p.ft.Store(address, pool)
				p.saveFt(ctx, p.layers[:i], pool)
				return pool, nil
			}
		}

		pool, err := p.fetchFtPool(ctx, address)
		if err != nil {
			return nil, err
		}
		p.ft.Store(address, pool)
		p.saveFt(ctx, p.layers, pool)
		return pool, nil
	})
	if err != nil {
		return model.FtPool{}, err
	}
	return v.(model.FtPool), nil
}

func (p *Provider) fetchNftPool(ctx context.Context, address common.Address) (model.NftPool, error) {
	if p.caller == nil {
		return model.NftPool{}, fmt.Errorf("chain caller is nil")
	}
	vaultABI, err := VaultABI()
	if err != nil {
		return model.NftPool{}, fmt.Errorf("parse vault abi: %w", err)
	}

	vaultID, err := callBigInt(ctx, p.caller, address, vaultABI, "vaultId")
	if err != nil {
		return model.NftPool{}, err
	}
	nft, err := callAddress(ctx, p.caller, address, vaultABI, "assetAddress")
	if err != nil {
		return model.NftPool{}, err
	}
	if nft == (common.Address{}) {
		return model.NftPool{}, fmt.Errorf("vault %s has no asset: %w", address.Hex(), failure.ErrNotFound)
	}

	if p.cfg.VaultFactory != (common.Address{}) {
		factoryABI, err := VaultFactoryABI()
		if err != nil {
			return model.NftPool{}, fmt.Errorf("parse vault factory abi: %w", err)
		}
		registered, err := callAddress(ctx, p.caller, p.cfg.VaultFactory, factoryABI, "vault", vaultID)
		if err != nil {
			return model.NftPool{}, err
		}
		if registered != address {
			return model.NftPool{}, fmt.Errorf("vault %s not registered by factory: %w", address.Hex(), failure.ErrNotFound)
		}
	}

	return model.NftPool{Address: address, Nft: nft, VaultID: vaultID}, nil
}

func (p *Provider) fetchFtPool(ctx context.Context, address common.Address) (model.FtPool, error) {
	if p.caller == nil {
		return model.FtPool{}, fmt.Errorf("chain caller is nil")
	}
	pairABI, err := PairABI()
	if err != nil {
		return model.FtPool{}, fmt.Errorf("parse pair abi: %w", err)
	}

	if p.cfg.AmmFactory != (common.Address{}) {
		factory, err := callAddress(ctx, p.caller, address, pairABI, "factory")
		if err != nil {
			return model.FtPool{}, err
		}
		if factory != p.cfg.AmmFactory {
			return model.FtPool{}, fmt.Errorf("pair %s from foreign factory %s: %w", address.Hex(), factory.Hex(), failure.ErrNotFound)
		}
	}

	token0, err := callAddress(ctx, p.caller, address, pairABI, "token0")
	if err != nil {
		return model.FtPool{}, err
	}
	token1, err := callAddress(ctx, p.caller, address, pairABI, "token1")
	if err != nil {
		return model.FtPool{}, err
	}

	return model.FtPool{Address: address, Token0: token0, Token1: token1}, nil
}

func (p *Provider) saveNft(ctx context.Context, layers []Layer, pool model.NftPool) {
	for _, layer := range layers {
		if err := layer.SaveNftPool(ctx, pool); err != nil {
			p.logger.Debug("nft pool layer save failed", zap.String("pool", pool.Address.Hex()), zap.Error(err))
		}
	}
}

func (p *Provider) saveFt(ctx context.Context, layers []Layer, pool model.FtPool) {
	for _, layer := range layers {
		if err := layer.SaveFtPool(ctx, pool); err != nil {
			p.logger.Debug("ft pool layer save failed", zap.String("pool", pool.Address.Hex()), zap.Error(err))
		}
	}
}
