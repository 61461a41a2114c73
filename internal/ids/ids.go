// Package ids derives deterministic identifiers so that reprocessing the same
// logs always produces the same upsert keys.
package ids

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"fillScope/internal/model"
)

// OrderID returns keccak256(kind ‖ pool ‖ side [‖ uint256(tokenID)]) in packed
// encoding, hex encoded with a 0x prefix. A nil tokenID identifies the pool's
// whole book for that side.
func OrderID(kind model.OrderKind, pool common.Address, side model.Side, tokenID *big.Int) string {
	packed := make([]byte, 0, len(kind)+common.AddressLength+len(side)+32)
	packed = append(packed, string(kind)...)
	packed = append(packed, pool.Bytes()...)
	packed = append(packed, string(side)...)
	if tokenID != nil {
		packed = append(packed, common.LeftPadBytes(tokenID.Bytes(), 32)...)
	}
	return hexutil.Encode(crypto.Keccak256(packed))
}

// FillContext is the natural key of a fill info: one per protocol, token and transaction.
func FillContext(protocol string, contract common.Address, tokenID string, txHash common.Hash) string {
	return fmt.Sprintf("%s-%s-%s-%s", protocol, strings.ToLower(contract.Hex()), tokenID, txHash.Hex())
}

// OrderInfoContext is the natural key of a sale trigger for orderID in txHash.
func OrderInfoContext(orderID string, txHash common.Hash) string {
	return fmt.Sprintf("filled-%s-%s", orderID, txHash.Hex())
}
