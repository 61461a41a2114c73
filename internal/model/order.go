package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// NormalizedOrderEvent asks the persistence layer to upsert an order or to
// refresh a pool's book.
type NormalizedOrderEvent struct {
	Kind        OrderKind         `json:"kind"`
	OrderID     string            `json:"order_id"`
	PoolAddress common.Address    `json:"pool_address"`
	TxHash      common.Hash       `json:"tx_hash"`
	TxTimestamp uint64            `json:"tx_timestamp"`
	TxBlock     uint64            `json:"tx_block"`
	LogIndex    uint64            `json:"log_index"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

const TriggerKindSale = "sale"

// OrderTrigger describes why an order changed state.
type OrderTrigger struct {
	Kind        string      `json:"kind"`
	TxHash      common.Hash `json:"tx_hash"`
	TxTimestamp uint64      `json:"tx_timestamp"`
}

// OrderInfo informs the persistence layer that order ID transitioned in a transaction.
type OrderInfo struct {
	Context string       `json:"context"`
	ID      string       `json:"id"`
	Trigger OrderTrigger `json:"trigger"`
}

// StoredOrder is the subset of a persisted order needed to price a fill.
// Price is the per-unit amount in Currency base units, not native units.
// UpdatedAt is in unix seconds.
type StoredOrder struct {
	ID        string         `json:"id"`
	Currency  common.Address `json:"currency"`
	Price     string         `json:"price"`
	UpdatedAt uint64         `json:"updated_at"`
}
