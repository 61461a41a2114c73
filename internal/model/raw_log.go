package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RawLog is a chain log as delivered by the node. It is never mutated after ingestion.
type RawLog struct {
	ChainID     uint64         `json:"chain_id"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   common.Hash    `json:"block_hash"`
	TxHash      common.Hash    `json:"tx_hash"`
	TxIndex     uint64         `json:"tx_index"`
	LogIndex    uint64         `json:"log_index"`
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	Removed     bool           `json:"removed"`
	Timestamp   uint64         `json:"timestamp"`
}

// Topic0 returns the event signature topic, or the zero hash for anonymous logs.
func (l RawLog) Topic0() common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return l.Topics[0]
}

// Base returns the event parameters shared by every record derived from this log.
func (l RawLog) Base() BaseEventParams {
	return BaseEventParams{
		Address:   l.Address,
		TxHash:    l.TxHash,
		TxIndex:   l.TxIndex,
		Block:     l.BlockNumber,
		BlockHash: l.BlockHash,
		LogIndex:  l.LogIndex,
		Timestamp: l.Timestamp,
	}
}
