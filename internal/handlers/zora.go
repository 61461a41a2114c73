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

type zoraToken struct {
	contract common.Address
	tokenID  *big.Int
}

func zoraTokenOf(event *model.DecodedEvent) (zoraToken, error) {
	contract, err := event.Fields.Address("tokenContract")
	if err != nil {
		return zoraToken{}, err
	}
	tokenID, err := event.Fields.BigInt("tokenId")
	if err != nil {
		return zoraToken{}, err
	}
	return zoraToken{contract: contract, tokenID: tokenID}, nil
}

type zoraAsk struct {
	seller   common.Address
	currency common.Address
	price    *big.Int
}

func zoraAskOf(event *model.DecodedEvent) (zoraAsk, error) {
	seller, err := event.Fields.Address("ask.seller")
	if err != nil {
		return zoraAsk{}, err
	}
	currency, err := event.Fields.Address("ask.askCurrency")
	if err != nil {
		return zoraAsk{}, err
	}
	price, err := event.Fields.BigInt("ask.askPrice")
	if err != nil {
		return zoraAsk{}, err
	}
	return zoraAsk{seller: seller, currency: currency, price: price}, nil
}

type zoraOffer struct {
	id       *big.Int
	maker    common.Address
	currency common.Address
	amount   *big.Int
}

func zoraOfferOf(event *model.DecodedEvent) (zoraOffer, error) {
	id, err := event.Fields.BigInt("id")
	if err != nil {
		return zoraOffer{}, err
	}
	maker, err := event.Fields.Address("offer.maker")
	if err != nil {
		return zoraOffer{}, err
	}
	currency, err := event.Fields.Address("offer.currency")
	if err != nil {
		return zoraOffer{}, err
	}
	amount, err := event.Fields.BigInt("offer.amount")
	if err != nil {
		return zoraOffer{}, err
	}
	return zoraOffer{id: id, maker: maker, currency: currency, amount: amount}, nil
}

// An ask is unique per token on the exchange, so the token keys it.
func zoraAskOrderID(token zoraToken) string {
	return ids.OrderID(model.OrderKindZoraV3, token.contract, model.SideSell, token.tokenID)
}

func zoraOfferOrderID(omnibus common.Address, offerID *big.Int) string {
	return ids.OrderID(model.OrderKindZoraV3, omnibus, model.SideBuy, offerID)
}

func zoraStatus(subKind model.SubKind) string {
	switch subKind {
	case model.SubKindZoraAskCancelled, model.SubKindZoraOfferCanceled:
		return "cancelled"
	default:
		return "active"
	}
}

func handleZoraAsk(_ context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	token, err := zoraTokenOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	ask, err := zoraAskOf(event)
	if err != nil {
		return env.malformed(event, err)
	}

	data.AddOrder(orderEvent(model.OrderKindZoraV3, zoraAskOrderID(token), event.Base.Address, event.Base, map[string]string{
		"side":           string(model.SideSell),
		"maker":          ask.seller.Hex(),
		"currency":       ask.currency.Hex(),
		"price":          ask.price.String(),
		"token_contract": token.contract.Hex(),
		"token_id":       token.tokenID.String(),
		"status":         zoraStatus(event.SubKind),
	}))
	return nil
}

func handleZoraOffer(_ context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	token, err := zoraTokenOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	offer, err := zoraOfferOf(event)
	if err != nil {
		return env.malformed(event, err)
	}

	data.AddOrder(orderEvent(model.OrderKindZoraV3, zoraOfferOrderID(event.Base.Address, offer.id), event.Base.Address, event.Base, map[string]string{
		"side":           string(model.SideBuy),
		"maker":          offer.maker.Hex(),
		"currency":       offer.currency.Hex(),
		"price":          offer.amount.String(),
		"token_contract": token.contract.Hex(),
		"token_id":       token.tokenID.String(),
		"status":         zoraStatus(event.SubKind),
	}))
	return nil
}

func handleZoraAskFilled(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	token, err := zoraTokenOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	ask, err := zoraAskOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	buyer, err := event.Fields.Address("buyer")
	if err != nil {
		return env.malformed(event, err)
	}

	return emitZoraFill(ctx, env, event, data, fill{
		side:          model.SideSell,
		orderID:       zoraAskOrderID(token),
		maker:         ask.seller,
		taker:         buyer,
		currency:      ask.currency,
		currencyPrice: ask.price,
		contract:      token.contract,
		tokenID:       token.tokenID,
	})
}

func handleZoraOfferFilled(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	token, err := zoraTokenOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	offer, err := zoraOfferOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	taker, err := event.Fields.Address("taker")
	if err != nil {
		return env.malformed(event, err)
	}

	return emitZoraFill(ctx, env, event, data, fill{
		side:          model.SideBuy,
		orderID:       zoraOfferOrderID(event.Base.Address, offer.id),
		maker:         offer.maker,
		taker:         taker,
		currency:      offer.currency,
		currencyPrice: offer.amount,
		contract:      token.contract,
		tokenID:       token.tokenID,
	})
}

func handleZoraAuctionEnded(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data) error {
	token, err := zoraTokenOf(event)
	if err != nil {
		return env.malformed(event, err)
	}
	auctionID, err := event.Fields.BigInt("auctionId")
	if err != nil {
		return env.malformed(event, err)
	}
	owner, err := event.Fields.Address("tokenOwner")
	if err != nil {
		return env.malformed(event, err)
	}
	winner, err := event.Fields.Address("winner")
	if err != nil {
		return env.malformed(event, err)
	}
	amount, err := event.Fields.BigInt("amount")
	if err != nil {
		return env.malformed(event, err)
	}
	currency, err := event.Fields.Address("auctionCurrency")
	if err != nil {
		return env.malformed(event, err)
	}

	return emitZoraFill(ctx, env, event, data, fill{
		side:          model.SideSell,
		orderID:       ids.OrderID(model.OrderKindZoraV3, event.Base.Address, model.SideSell, auctionID),
		maker:         owner,
		taker:         winner,
		currency:      currency,
		currencyPrice: amount,
		contract:      token.contract,
		tokenID:       token.tokenID,
	})
}

// emitZoraFill completes f with prices and attribution. Zora fills are
// single-token, so the batch index stays unset.
func emitZoraFill(ctx context.Context, env *Env, event *model.DecodedEvent, data *onchain.Data, f fill) error {
	prices, err := env.Prices.USDAndNativePrices(ctx, f.currency, f.currencyPrice, event.Base.Timestamp)
	if err != nil {
		return err
	}
	if !prices.HasNative() {
		env.skip(event, "missing native price", zap.String("currency", f.currency.Hex()))
		return nil
	}
	attr, err := env.Attribution.Extract(ctx, env.Tx, event.Base.TxHash, model.OrderKindZoraV3)
	if err != nil {
		return err
	}

	f.kind = model.OrderKindZoraV3
	f.prices = prices
	f.attribution = attr
	f.amount = big.NewInt(1)
	f.base = event.Base
	emitFill(data, f)
	return nil
}
