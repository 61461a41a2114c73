package events

import (
	"github.com/ethereum/go-ethereum/common"
)

// Contract roles that carry an address allowlist.
const (
	ContractZoraExchange     = "zora-exchange"
	ContractZoraAuctionHouse = "zora-auction-house"
	ContractZoraOfferOmnibus = "zora-offer-omnibus"
)

var knownContracts = map[uint64]map[string][]common.Address{
	1: {
		ContractZoraExchange:     {common.HexToAddress("0x6170b3c3a54c3d8c854934cbc314ed479b2b29a3")},
		ContractZoraAuctionHouse: {common.HexToAddress("0xe468ce99444174bd3bbbed09209577d25d1ad673")},
	},
	5: {
		ContractZoraExchange: {common.HexToAddress("0xd8be3e8a8648c4547f06e607174bac36f5684756")},
	},
	137: {
		ContractZoraExchange: {common.HexToAddress("0x3634e984ba0373cfa178986fd19f03ba4dd8e469")},
	},
}

func contractsFor(chainID uint64, overrides map[string][]common.Address) map[string][]common.Address {
	out := make(map[string][]common.Address)
	for role, addrs := range knownContracts[chainID] {
		out[role] = append([]common.Address(nil), addrs...)
	}
	for role, addrs := range overrides {
		out[role] = append([]common.Address(nil), addrs...)
	}
	return out
}
