package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// BaseEventParams carries everything needed to derive ids and ordering
// without re-reading the raw log.
type BaseEventParams struct {
	Address    common.Address `json:"address"`
	TxHash     common.Hash    `json:"tx_hash"`
	TxIndex    uint64         `json:"tx_index"`
	Block      uint64         `json:"block"`
	BlockHash  common.Hash    `json:"block_hash"`
	LogIndex   uint64         `json:"log_index"`
	Timestamp  uint64         `json:"timestamp"`
	BatchIndex uint64         `json:"batch_index,omitempty"`
}

// WithBatchIndex returns a copy tagged with the 1-based position of a fill inside its log.
func (b BaseEventParams) WithBatchIndex(i int) BaseEventParams {
	b.BatchIndex = uint64(i)
	return b
}

// DecodedEvent is a raw log decoded against its event definition.
type DecodedEvent struct {
	Kind    Kind            `json:"kind"`
	SubKind SubKind         `json:"sub_kind"`
	Base    BaseEventParams `json:"base"`
	Fields  Fields          `json:"fields"`
}
