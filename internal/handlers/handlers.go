// Package handlers turns decoded protocol events into order and fill write
// intents. Every registered sub kind has exactly one handler.
//
// Handlers absorb per-log anomalies: an unresolvable pool, price or currency
// leg drops that emission and returns nil. Only transport failures from the
// collaborators in Env are returned, and those are retryable.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fillScope/internal/attribution"
	"fillScope/internal/events"
	"fillScope/internal/failure"
	"fillScope/internal/model"
	"fillScope/internal/onchain"
	"fillScope/internal/orders"
	"fillScope/internal/pricing"
)

// TxContext is the per-batch transaction context. *txctx.Provider implements it.
type TxContext interface {
	LogsOfTransaction(ctx context.Context, txHash common.Hash) ([]model.RawLog, error)
	Transaction(ctx context.Context, txHash common.Hash) (model.TxInfo, error)
}

// Pools implements getPoolDetails. Lookups that are definitively negative
// return failure.ErrNotFound. *pools.Provider implements it.
type Pools interface {
	NftPool(ctx context.Context, address common.Address) (model.NftPool, error)
	FtPool(ctx context.Context, address common.Address) (model.FtPool, error)
}

// Prices implements getUSDAndNativePrices. *pricing.Oracle implements it.
type Prices interface {
	USDAndNativePrices(ctx context.Context, currency common.Address, amount *big.Int, timestamp uint64) (pricing.Prices, error)
}

// Attribution implements extractAttributionData. *attribution.Resolver implements it.
type Attribution interface {
	Extract(ctx context.Context, txs attribution.TxLookup, txHash common.Hash, kind model.OrderKind) (model.Attribution, error)
}

// Env carries the collaborators of one processing pass. Tx must be scoped
// to the pass; the rest may be shared across passes.
type Env struct {
	Registry    *events.Registry
	Tx          TxContext
	Pools       Pools
	Prices      Prices
	Attribution Attribution
	Orders      orders.Store
	Logger      *zap.Logger
}

// Handler processes one decoded event, appending records to data. It must
// not retain data after returning.
type Handler func(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error

var handlers = map[model.SubKind]Handler{
	model.SubKindNftxV3Minted:              handleNftxMinted,
	model.SubKindNftxV3Redeemed:            handleNftxRedeemed,
	model.SubKindNftxV3Swapped:             handleNftxPoolUpdate,
	model.SubKindNftxV3VaultInit:           handleNftxPoolUpdate,
	model.SubKindNftxV3VaultShutdown:       handleNftxPoolUpdate,
	model.SubKindNftxV3EligibilityDeployed: handleNftxPoolUpdate,
	model.SubKindNftxV3EnableMintUpdated:   handleNftxPoolUpdate,
	model.SubKindNftxV3Swap:                handleNftxPairUpdate,
	model.SubKindNftxV3Mint:                handleNftxPairUpdate,
	model.SubKindNftxV3Burn:                handleNftxPairUpdate,

	model.SubKindZoraAskCreated:         handleZoraAsk,
	model.SubKindZoraAskPriceUpdated:    handleZoraAsk,
	model.SubKindZoraAskCancelled:       handleZoraAsk,
	model.SubKindZoraAskFilled:          handleZoraAskFilled,
	model.SubKindZoraOfferCreated:       handleZoraOffer,
	model.SubKindZoraOfferUpdated:       handleZoraOffer,
	model.SubKindZoraOfferCanceled:      handleZoraOffer,
	model.SubKindZoraOfferFilled:        handleZoraOfferFilled,
	model.SubKindZoraAuctionEnded:       handleZoraAuctionEnded,
	model.SubKindZoraSalesConfigChanged: ignore,
	model.SubKindZoraUpdatedToken:       ignore,
	model.SubKindZoraMintComment:        ignore,
	model.SubKindZoraCustomMintComment:  ignore,
}

// For returns the handler registered for subKind.
func For(subKind model.SubKind) (Handler, bool) {
	h, ok := handlers[subKind]
	return h, ok
}

// Handle dispatches event to its handler.
func Handle(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	h, ok := handlers[event.SubKind]
	if !ok {
		return fmt.Errorf("no handler for %s", event.SubKind)
	}
	return h(ctx, env, event, data)
}

func ignore(context.Context, *Env, *model.DecodedEvent, *onchain.Data) error {
	return nil
}

func (env *Env) logger() *zap.Logger {
	if env.Logger == nil {
		return zap.NewNop()
	}
	return env.Logger
}

// skip logs why an event produced no records.
func (env *Env) skip(event *model.DecodedEvent, reason string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("sub_kind", string(event.SubKind)),
		zap.String("tx_hash", event.Base.TxHash.Hex()),
		zap.Uint64("log_index", event.Base.LogIndex),
		zap.String("address", event.Base.Address.Hex()),
	)
	env.logger().Debug(reason, fields...)
}

// malformed logs a decoded event whose fields do not have the expected shape.
func (env *Env) malformed(event *model.DecodedEvent, err error) error {
	env.logger().Warn("malformed event",
		zap.String("sub_kind", string(event.SubKind)),
		zap.String("tx_hash", event.Base.TxHash.Hex()),
		zap.Uint64("log_index", event.Base.LogIndex),
		zap.Error(err),
	)
	return nil
}

func (env *Env) nftPool(ctx context.Context, address common.Address) (model.NftPool, bool, error) {
	pool, err := env.Pools.NftPool(ctx, address)
	if errors.Is(err, failure.ErrNotFound) {
		return model.NftPool{}, false, nil
	}
	if err != nil {
		return model.NftPool{}, false, err
	}
	return pool, true, nil
}

func (env *Env) ftPool(ctx context.Context, address common.Address) (model.FtPool, bool, error) {
	pool, err := env.Pools.FtPool(ctx, address)
	if errors.Is(err, failure.ErrNotFound) {
		return model.FtPool{}, false, nil
	}
	if err != nil {
		return model.FtPool{}, false, err
	}
	return pool, true, nil
}

// taker is the transaction sender, so trades routed through a zap or router
// contract are attributed to the user who sent them. ok is false when the
// node reports no sender.
func (env *Env) taker(ctx context.Context, txHash common.Hash) (common.Address, bool, error) {
	tx, err := env.Tx.Transaction(ctx, txHash)
	if errors.Is(err, failure.ErrNotFound) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	return tx.From, true, nil
}

func (env *Env) lookupOrders(ctx context.Context, orderIDs []string) (map[string]model.StoredOrder, error) {
	found, err := env.Orders.OrdersByIDs(ctx, orderIDs)
	if err != nil {
		return nil, failure.Retryable(fmt.Errorf("lookup orders: %w", err))
	}
	return orders.Index(found), nil
}
