// Package attribution resolves which marketplace or aggregator sourced a fill.
package attribution

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

// TxLookup returns the sender and recipient of a transaction.
type TxLookup interface {
	Transaction(ctx context.Context, txHash common.Hash) (model.TxInfo, error)
}

// DefaultOrderSources maps order kinds to the marketplace that hosts them.
var DefaultOrderSources = map[model.OrderKind]string{
	model.OrderKindNftxV3: "nftx.io",
	model.OrderKindZoraV3: "zora.co",
}

// Config is the static source registry.
type Config struct {
	// OrderSources overrides DefaultOrderSources per kind.
	OrderSources map[model.OrderKind]string
	// Routers maps aggregator and router contracts to their source id.
	Routers map[common.Address]string
}

// Resolver implements extractAttributionData.
type Resolver struct {
	orderSources map[model.OrderKind]string
	routers      map[common.Address]string
}

func NewResolver(cfg Config) *Resolver {
	sources := make(map[model.OrderKind]string, len(DefaultOrderSources)+len(cfg.OrderSources))
	for kind, source := range DefaultOrderSources {
		sources[kind] = source
	}
	for kind, source := range cfg.OrderSources {
		sources[kind] = source
	}
	routers := make(map[common.Address]string, len(cfg.Routers))
	for addr, source := range cfg.Routers {
		routers[addr] = source
	}
	return &Resolver{orderSources: sources, routers: routers}
}

// Extract attributes a fill of kind in txHash. Fields that cannot be
// determined stay empty. Only transport errors from txs are returned.
func (r *Resolver) Extract(ctx context.Context, txs TxLookup, txHash common.Hash, kind model.OrderKind) (model.Attribution, error) {
	var out model.Attribution
	out.OrderSource = r.orderSources[kind]

	tx, err := txs.Transaction(ctx, txHash)
	if errors.Is(err, failure.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return model.Attribution{}, fmt.Errorf("attribution %s: %w", txHash.Hex(), err)
	}

	if router, ok := r.routers[tx.To]; ok && tx.To != (common.Address{}) {
		out.AggregatorSource = router
		out.FillSource = router
		return out, nil
	}
	out.FillSource = out.OrderSource
	return out, nil
}
