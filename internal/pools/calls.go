package pools

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"fillScope/internal/failure"
)

// Caller performs eth_call. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// callMethod calls a view method. Reverts, empty return data and undecodable
// results mean the target is not the contract we expected: they are reported
// as failure.ErrNotFound. Anything else is a retryable transport failure.
func callMethod(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, fmt.Errorf("call %s on %s: %v: %w", method, to.Hex(), err, failure.ErrNotFound)
		}
		return nil, failure.Retryable(fmt.Errorf("call %s on %s: %w", method, to.Hex(), err))
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s on %s: empty result: %w", method, to.Hex(), failure.ErrNotFound)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("unpack %s on %s: %v: %w", method, to.Hex(), err, failure.ErrNotFound)
	}
	return values, nil
}

func callAddress(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) (common.Address, error) {
	values, err := callMethod(ctx, caller, to, parsed, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unsupported address type %T: %w", method, values[0], failure.ErrNotFound)
	}
	return addr, nil
}

func callBigInt(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	values, err := callMethod(ctx, caller, to, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported int type %T: %w", method, values[0], failure.ErrNotFound)
	}
	return n, nil
}
