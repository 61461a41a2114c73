package model

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fields holds decoded event arguments keyed by ABI name. Tuple members are
// flattened as "<tuple>.<member>".
type Fields map[string]interface{}

// Address returns an address argument.
func (f Fields) Address(name string) (common.Address, error) {
	value, ok := f[name]
	if !ok {
		return common.Address{}, fmt.Errorf("missing field %s", name)
	}
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("field %s: unsupported address type %T", name, value)
	}
}

// BigInt returns an integer argument of any width.
func (f Fields) BigInt(name string) (*big.Int, error) {
	value, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("missing field %s", name)
	}
	n, err := asBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return n, nil
}

// BigInts returns an integer array argument.
func (f Fields) BigInts(name string) ([]*big.Int, error) {
	value, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("missing field %s", name)
	}
	items, ok := value.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("field %s: unsupported array type %T", name, value)
	}
	out := make([]*big.Int, len(items))
	for i, item := range items {
		out[i] = new(big.Int).Set(item)
	}
	return out, nil
}

// Bool returns a boolean argument.
func (f Fields) Bool(name string) (bool, error) {
	value, ok := f[name].(bool)
	if !ok {
		return false, fmt.Errorf("field %s: not a bool", name)
	}
	return value, nil
}

// MarshalJSON renders integers as decimal strings so large values survive JSON consumers.
func (f Fields) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(f))
	for key, value := range f {
		switch v := value.(type) {
		case *big.Int:
			out[key] = v.String()
		case []*big.Int:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = item.String()
			}
			out[key] = items
		default:
			if n, err := asBigInt(value); err == nil {
				out[key] = n.String()
				continue
			}
			out[key] = value
		}
	}
	return json.Marshal(out)
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
