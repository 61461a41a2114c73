package handlers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fillScope/internal/ids"
	"fillScope/internal/model"
	"fillScope/internal/onchain"
	"fillScope/internal/pricing"
)

// fill is everything needed to emit one FillEvent with its FillInfo and
// OrderInfo echoes.
type fill struct {
	kind          model.OrderKind
	side          model.Side
	orderID       string
	maker         common.Address
	taker         common.Address
	currency      common.Address
	currencyPrice *big.Int
	prices        pricing.Prices
	contract      common.Address
	tokenID       *big.Int
	amount        *big.Int
	attribution   model.Attribution
	base          model.BaseEventParams
	// partial fills settle inside the transaction and need no order lookup.
	partial bool
}

// emitFill appends the fill. f.prices must carry a native price.
func emitFill(data *onchain.Data, f fill) {
	tokenID := f.tokenID.String()
	amount := "1"
	if f.amount != nil {
		amount = f.amount.String()
	}
	native := f.prices.Native.String()

	event := model.FillEvent{
		OrderKind:     f.kind,
		OrderSide:     f.side,
		OrderID:       f.orderID,
		Maker:         f.maker,
		Taker:         f.taker,
		Price:         native,
		CurrencyPrice: f.currencyPrice.String(),
		USDPrice:      optionalString(f.prices.USD),
		Currency:      f.currency,
		Contract:      f.contract,
		TokenID:       tokenID,
		Amount:        amount,
		Attribution:   f.attribution,
		Base:          f.base,
	}
	if f.partial {
		data.AddPartialFill(event)
	} else {
		data.AddOnChainFill(event)
	}

	data.AddFillInfo(model.FillInfo{
		Context:   ids.FillContext(string(f.kind), f.contract, tokenID, f.base.TxHash),
		OrderID:   f.orderID,
		OrderSide: f.side,
		Contract:  f.contract,
		TokenID:   tokenID,
		Amount:    amount,
		Price:     native,
		Timestamp: f.base.Timestamp,
		Maker:     f.maker,
		Taker:     f.taker,
	})

	data.AddOrderInfo(saleTrigger(f.orderID, f.base))
}

func saleTrigger(orderID string, base model.BaseEventParams) model.OrderInfo {
	return model.OrderInfo{
		Context: ids.OrderInfoContext(orderID, base.TxHash),
		ID:      orderID,
		Trigger: model.OrderTrigger{
			Kind:        model.TriggerKindSale,
			TxHash:      base.TxHash,
			TxTimestamp: base.Timestamp,
		},
	}
}

func orderEvent(kind model.OrderKind, orderID string, pool common.Address, base model.BaseEventParams, metadata map[string]string) model.NormalizedOrderEvent {
	return model.NormalizedOrderEvent{
		Kind:        kind,
		OrderID:     orderID,
		PoolAddress: pool,
		TxHash:      base.TxHash,
		TxTimestamp: base.Timestamp,
		TxBlock:     base.Block,
		LogIndex:    base.LogIndex,
		Metadata:    metadata,
	}
}

func optionalString(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}
