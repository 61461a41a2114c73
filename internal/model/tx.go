package model

import "github.com/ethereum/go-ethereum/common"

// TxInfo is the part of a transaction the handlers care about.
// To is the zero address for contract creations.
type TxInfo struct {
	Hash common.Hash    `json:"hash"`
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
}
