// Package tokens loads ERC20 metadata for payment currencies.
package tokens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"fillScope/internal/failure"
)

// Caller performs eth_call. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Meta is the subset of ERC20 metadata needed to scale amounts.
type Meta struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
}

// Cache resolves token metadata once per process. Metadata of a deployed
// token never changes, so entries are not invalidated.
type Cache struct {
	caller Caller
	logger *zap.Logger
	data   *xsync.Map[common.Address, Meta]
}

func NewCache(caller Caller, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		caller: caller,
		logger: logger,
		data:   xsync.NewMap[common.Address, Meta](),
	}
}

// Set seeds the cache, e.g. with the native currency which has no contract.
func (c *Cache) Set(meta Meta) {
	c.data.Store(meta.Address, meta)
}

// Get returns metadata for token, fetching it from chain on first use.
// Tokens without a working decimals() are reported as failure.ErrNotFound.
func (c *Cache) Get(ctx context.Context, token common.Address) (Meta, error) {
	if meta, ok := c.data.Load(token); ok {
		return meta, nil
	}
	meta, err := FetchMeta(ctx, c.caller, token, c.logger)
	if err != nil {
		return Meta{}, err
	}
	c.data.Store(token, meta)
	return meta, nil
}

// FetchMeta loads token metadata via ERC20 calls. Symbol is best effort.
func FetchMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (Meta, error) {
	meta := Meta{Address: token}
	if caller == nil {
		return meta, fmt.Errorf("chain caller is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			var rpcErr rpc.Error
			if errors.As(err, &rpcErr) {
				return nil, fmt.Errorf("call %s on %s: %v: %w", method, token.Hex(), err, failure.ErrNotFound)
			}
			return nil, failure.Retryable(fmt.Errorf("call %s on %s: %w", method, token.Hex(), err))
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil || len(values) == 0 {
			return nil, fmt.Errorf("unpack %s on %s: %v: %w", method, token.Hex(), err, failure.ErrNotFound)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("decimals: unsupported type %T: %w", values[0], failure.ErrNotFound)
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
