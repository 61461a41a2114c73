package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// Attribution names the sources of an order and of its fill. Empty means unknown.
type Attribution struct {
	OrderSource      string `json:"order_source_id,omitempty"`
	AggregatorSource string `json:"aggregator_source_id,omitempty"`
	FillSource       string `json:"fill_source_id,omitempty"`
}

// FillEvent asserts that an order side was satisfied for one token.
// Price is always in the chain's native unit; amounts are base-10 integers.
type FillEvent struct {
	OrderKind     OrderKind       `json:"order_kind"`
	OrderSide     Side            `json:"order_side"`
	OrderID       string          `json:"order_id"`
	Maker         common.Address  `json:"maker"`
	Taker         common.Address  `json:"taker"`
	Price         string          `json:"price"`
	CurrencyPrice string          `json:"currency_price"`
	USDPrice      string          `json:"usd_price,omitempty"`
	Currency      common.Address  `json:"currency"`
	Contract      common.Address  `json:"contract"`
	TokenID       string          `json:"token_id"`
	Amount        string          `json:"amount"`
	Attribution   Attribution     `json:"attribution"`
	Base          BaseEventParams `json:"base"`
}

// FillInfo is the context-keyed echo of a fill used as a dedup signal downstream.
type FillInfo struct {
	Context   string         `json:"context"`
	OrderID   string         `json:"order_id,omitempty"`
	OrderSide Side           `json:"order_side"`
	Contract  common.Address `json:"contract"`
	TokenID   string         `json:"token_id"`
	Amount    string         `json:"amount"`
	Price     string         `json:"price"`
	Timestamp uint64         `json:"timestamp"`
	Maker     common.Address `json:"maker"`
	Taker     common.Address `json:"taker"`
}
