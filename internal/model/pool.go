package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolState is implemented by both pool variants.
type PoolState interface {
	PoolAddress() common.Address
}

// NftPool is a vault holding NFTs of one collection. The vault address is
// also the address of its fungible vault token.
type NftPool struct {
	Address common.Address `json:"address"`
	Nft     common.Address `json:"nft"`
	VaultID *big.Int       `json:"vault_id"`
}

func (p NftPool) PoolAddress() common.Address { return p.Address }

// FtPool is an AMM pair of two fungible tokens.
type FtPool struct {
	Address common.Address `json:"address"`
	Token0  common.Address `json:"token0"`
	Token1  common.Address `json:"token1"`
}

func (p FtPool) PoolAddress() common.Address { return p.Address }

// Includes reports whether token is one of the pair's legs.
func (p FtPool) Includes(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}
