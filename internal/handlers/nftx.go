package handlers

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fillScope/internal/ids"
	"fillScope/internal/model"
	"fillScope/internal/onchain"
)

var refreshMetadata = map[string]string{"action": "refresh"}

// poolRefresh asks the persistence layer to recompute both books of a vault.
// It is keyed by the vault's bid book, which every vault has.
func poolRefresh(vault common.Address, base model.BaseEventParams) model.NormalizedOrderEvent {
	orderID := ids.OrderID(model.OrderKindNftxV3, vault, model.SideBuy, nil)
	return orderEvent(model.OrderKindNftxV3, orderID, vault, base, refreshMetadata)
}

// handleNftxMinted reconciles a buy from a vault: the user minted vault
// tokens with NFTs in one leg and sold them to an AMM pair in a later leg.
func handleNftxMinted(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	tokenIDs, err := event.Fields.BigInts("nftIds")
	if err != nil {
		return env.malformed(event, err)
	}
	rawAmounts, err := event.Fields.BigInts("amounts")
	if err != nil {
		return env.malformed(event, err)
	}
	amounts := normalizeAmounts(tokenIDs, rawAmounts)

	vault, ok, err := env.nftPool(ctx, event.Base.Address)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown vault")
		return nil
	}

	data.AddOrder(poolRefresh(vault.Address, event.Base))
	if len(tokenIDs) == 0 {
		return nil
	}

	view, err := scanTransaction(ctx, env, event.Base.TxHash, vault.Address)
	if err != nil {
		return err
	}
	if view.ambiguous(view.mints) {
		env.skip(event, "ambiguous transaction, using stored orders",
			zap.Int("mints", view.mints), zap.Int("swaps", len(view.swaps)))
		orderID := ids.OrderID(model.OrderKindNftxV3, vault.Address, model.SideBuy, nil)
		orderIDs := make([]string, len(tokenIDs))
		for i := range tokenIDs {
			orderIDs[i] = orderID
		}
		return fillStoredOrders(ctx, env, event, vault, model.SideBuy, tokenIDs, amounts, orderIDs, data)
	}

	nftCount := sum(amounts)
	if nftCount.Sign() <= 0 {
		env.skip(event, "no units minted")
		return nil
	}

	currency, currencyPrice, ok := reconcile(mintLegs(view.swaps, vault.Address, event.Base.LogIndex, nftCount))
	if !ok {
		env.skip(event, "no consistent swap legs")
		return nil
	}

	prices, err := env.Prices.USDAndNativePrices(ctx, currency, currencyPrice, event.Base.Timestamp)
	if err != nil {
		return err
	}
	if !prices.HasNative() {
		env.skip(event, "missing native price", zap.String("currency", currency.Hex()))
		return nil
	}

	attr, err := env.Attribution.Extract(ctx, env.Tx, event.Base.TxHash, model.OrderKindNftxV3)
	if err != nil {
		return err
	}
	taker, ok, err := env.taker(ctx, event.Base.TxHash)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown transaction sender")
		return nil
	}

	orderID := ids.OrderID(model.OrderKindNftxV3, vault.Address, model.SideBuy, nil)
	for i, tokenID := range tokenIDs {
		emitFill(data, fill{
			kind:          model.OrderKindNftxV3,
			side:          model.SideBuy,
			orderID:       orderID,
			maker:         vault.Address,
			taker:         taker,
			currency:      currency,
			currencyPrice: currencyPrice,
			prices:        prices,
			contract:      vault.Nft,
			tokenID:       tokenID,
			amount:        amounts[i],
			attribution:   attr,
			base:          event.Base.WithBatchIndex(i + 1),
			partial:       true,
		})
	}
	return nil
}

// handleNftxRedeemed reconciles a sell into a vault: the user bought vault
// tokens from an AMM pair in an earlier leg and redeemed them for NFTs.
func handleNftxRedeemed(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	tokenIDs, err := event.Fields.BigInts("nftIds")
	if err != nil {
		return env.malformed(event, err)
	}

	vault, ok, err := env.nftPool(ctx, event.Base.Address)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown vault")
		return nil
	}

	data.AddOrder(poolRefresh(vault.Address, event.Base))
	if len(tokenIDs) == 0 {
		return nil
	}

	units := make([]*big.Int, len(tokenIDs))
	orderIDs := make([]string, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		units[i] = big.NewInt(1)
		orderIDs[i] = ids.OrderID(model.OrderKindNftxV3, vault.Address, model.SideSell, tokenID)
	}

	view, err := scanTransaction(ctx, env, event.Base.TxHash, vault.Address)
	if err != nil {
		return err
	}
	if view.ambiguous(view.redeems) {
		env.skip(event, "ambiguous transaction, using stored orders",
			zap.Int("redeems", view.redeems), zap.Int("swaps", len(view.swaps)))
		return fillStoredOrders(ctx, env, event, vault, model.SideSell, tokenIDs, units, orderIDs, data)
	}

	nftCount := big.NewInt(int64(len(tokenIDs)))
	currency, currencyPrice, ok := reconcile(redeemLegs(view.swaps, vault.Address, event.Base.LogIndex, nftCount))
	if !ok {
		env.skip(event, "no consistent swap legs")
		return nil
	}

	prices, err := env.Prices.USDAndNativePrices(ctx, currency, currencyPrice, event.Base.Timestamp)
	if err != nil {
		return err
	}
	if !prices.HasNative() {
		env.skip(event, "missing native price", zap.String("currency", currency.Hex()))
		return nil
	}

	attr, err := env.Attribution.Extract(ctx, env.Tx, event.Base.TxHash, model.OrderKindNftxV3)
	if err != nil {
		return err
	}
	taker, ok, err := env.taker(ctx, event.Base.TxHash)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown transaction sender")
		return nil
	}

	for i, tokenID := range tokenIDs {
		emitFill(data, fill{
			kind:          model.OrderKindNftxV3,
			side:          model.SideSell,
			orderID:       orderIDs[i],
			maker:         vault.Address,
			taker:         taker,
			currency:      currency,
			currencyPrice: currencyPrice,
			prices:        prices,
			contract:      vault.Nft,
			tokenID:       tokenID,
			amount:        units[i],
			attribution:   attr,
			base:          event.Base.WithBatchIndex(i + 1),
		})
	}
	return nil
}

// fillStoredOrders prices each token from the order the persistence layer
// already holds for it. Orders updated at or after the event are skipped so
// a redelivered old event never overrides newer state. The stored
// StoredOrder.Price is taken as the currency price in Currency base units;
// only its native and USD equivalents come from the oracle.
func fillStoredOrders(
	ctx context.Context,
	env *Env,
	event *model.DecodedEvent,
	vault model.NftPool,
	side model.Side,
	tokenIDs []*big.Int,
	amounts []*big.Int,
	orderIDs []string,
	data *onchain.Data,
) error {
	stored, err := env.lookupOrders(ctx, orderIDs)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		env.skip(event, "no stored orders")
		return nil
	}

	attr, err := env.Attribution.Extract(ctx, env.Tx, event.Base.TxHash, model.OrderKindNftxV3)
	if err != nil {
		return err
	}
	taker, ok, err := env.taker(ctx, event.Base.TxHash)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown transaction sender")
		return nil
	}

	for i, tokenID := range tokenIDs {
		order, ok := stored[orderIDs[i]]
		if !ok {
			continue
		}
		if order.UpdatedAt >= event.Base.Timestamp {
			env.skip(event, "stored order is newer than event",
				zap.String("order_id", order.ID), zap.Uint64("updated_at", order.UpdatedAt))
			continue
		}
		currencyPrice, ok := new(big.Int).SetString(order.Price, 10)
		if !ok {
			env.skip(event, "stored order has invalid price", zap.String("order_id", order.ID))
			continue
		}

		prices, err := env.Prices.USDAndNativePrices(ctx, order.Currency, currencyPrice, event.Base.Timestamp)
		if err != nil {
			return err
		}
		if !prices.HasNative() {
			env.skip(event, "missing native price", zap.String("currency", order.Currency.Hex()))
			continue
		}

		emitFill(data, fill{
			kind:          model.OrderKindNftxV3,
			side:          side,
			orderID:       order.ID,
			maker:         vault.Address,
			taker:         taker,
			currency:      order.Currency,
			currencyPrice: currencyPrice,
			prices:        prices,
			contract:      vault.Nft,
			tokenID:       tokenID,
			amount:        amounts[i],
			attribution:   attr,
			base:          event.Base.WithBatchIndex(i + 1),
		})
	}
	return nil
}

// handleNftxPoolUpdate covers vault events that change the book without a fill.
func handleNftxPoolUpdate(_ context.Context, _ *Env, event *model.DecodedEvent, data *onchain.Data) error {
	data.AddOrder(poolRefresh(event.Base.Address, event.Base))
	return nil
}

// handleNftxPairUpdate refreshes every vault traded by an AMM pair whose
// reserves changed. Either leg of the pair may or may not be a vault token.
func handleNftxPairUpdate(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	pair, ok, err := env.ftPool(ctx, event.Base.Address)
	if err != nil {
		return err
	}
	if !ok {
		env.skip(event, "unknown pair")
		return nil
	}

	for _, token := range []common.Address{pair.Token0, pair.Token1} {
		vault, ok, err := env.nftPool(ctx, token)
		if err != nil {
			return err
		}
		if ok {
			data.AddOrder(poolRefresh(vault.Address, event.Base))
		}
	}
	return nil
}
