package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseAddress converts an optional address. Empty input is the zero address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParseSources converts router=source pairs into a lookup map.
func ParseSources(inputs map[string]string) (map[common.Address]string, error) {
	sources := make(map[common.Address]string, len(inputs))
	for router, source := range inputs {
		addr, err := ParseAddress(router)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", source, err)
		}
		if addr == (common.Address{}) || strings.TrimSpace(source) == "" {
			return nil, fmt.Errorf("invalid source mapping %q=%q", router, source)
		}
		sources[addr] = strings.TrimSpace(source)
	}
	return sources, nil
}
