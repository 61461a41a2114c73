package events

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const nftxVaultABIJSON = `[
  {"anonymous": false, "name": "Minted", "type": "event", "inputs": [
    {"indexed": false, "name": "nftIds", "type": "uint256[]"},
    {"indexed": false, "name": "amounts", "type": "uint256[]"},
    {"indexed": false, "name": "to", "type": "address"},
    {"indexed": false, "name": "depositor", "type": "address"}
  ]},
  {"anonymous": false, "name": "Redeemed", "type": "event", "inputs": [
    {"indexed": false, "name": "nftIds", "type": "uint256[]"},
    {"indexed": false, "name": "to", "type": "address"}
  ]},
  {"anonymous": false, "name": "Swapped", "type": "event", "inputs": [
    {"indexed": false, "name": "nftIds", "type": "uint256[]"},
    {"indexed": false, "name": "amounts", "type": "uint256[]"},
    {"indexed": false, "name": "specificIds", "type": "uint256[]"},
    {"indexed": false, "name": "to", "type": "address"}
  ]},
  {"anonymous": false, "name": "VaultInit", "type": "event", "inputs": [
    {"indexed": true, "name": "vaultId", "type": "uint256"},
    {"indexed": false, "name": "assetAddress", "type": "address"},
    {"indexed": false, "name": "is1155", "type": "bool"},
    {"indexed": false, "name": "allowAllItems", "type": "bool"}
  ]},
  {"anonymous": false, "name": "VaultShutdown", "type": "event", "inputs": [
    {"indexed": false, "name": "assetAddress", "type": "address"},
    {"indexed": false, "name": "numItems", "type": "uint256"},
    {"indexed": false, "name": "recipient", "type": "address"}
  ]},
  {"anonymous": false, "name": "EligibilityDeployed", "type": "event", "inputs": [
    {"indexed": false, "name": "moduleIndex", "type": "uint256"},
    {"indexed": false, "name": "eligibilityAddr", "type": "address"}
  ]},
  {"anonymous": false, "name": "EnableMintUpdated", "type": "event", "inputs": [
    {"indexed": false, "name": "enabledMint", "type": "bool"}
  ]}
]`

const ammPairABIJSON = `[
  {"anonymous": false, "name": "Swap", "type": "event", "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0In", "type": "uint256"},
    {"indexed": false, "name": "amount1In", "type": "uint256"},
    {"indexed": false, "name": "amount0Out", "type": "uint256"},
    {"indexed": false, "name": "amount1Out", "type": "uint256"},
    {"indexed": true, "name": "to", "type": "address"}
  ]},
  {"anonymous": false, "name": "Mint", "type": "event", "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"}
  ]},
  {"anonymous": false, "name": "Burn", "type": "event", "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": false, "name": "amount0", "type": "uint256"},
    {"indexed": false, "name": "amount1", "type": "uint256"},
    {"indexed": true, "name": "to", "type": "address"}
  ]}
]`

const zoraAskComponents = `[
  {"name": "seller", "type": "address"},
  {"name": "sellerFundsRecipient", "type": "address"},
  {"name": "askCurrency", "type": "address"},
  {"name": "findersFeeBps", "type": "uint16"},
  {"name": "askPrice", "type": "uint256"}
]`

const zoraOfferComponents = `[
  {"name": "amount", "type": "uint256"},
  {"name": "maker", "type": "address"},
  {"name": "expiry", "type": "uint96"},
  {"name": "currency", "type": "address"},
  {"name": "findersFeeBps", "type": "uint16"},
  {"name": "listingFeeBps", "type": "uint16"},
  {"name": "listingFeeRecipient", "type": "address"}
]`

const zoraAsksABIJSON = `[
  {"anonymous": false, "name": "AskFilled", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "buyer", "type": "address"},
    {"indexed": false, "name": "finder", "type": "address"},
    {"indexed": false, "name": "ask", "type": "tuple", "components": ` + zoraAskComponents + `}
  ]},
  {"anonymous": false, "name": "AskCreated", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": false, "name": "ask", "type": "tuple", "components": ` + zoraAskComponents + `}
  ]},
  {"anonymous": false, "name": "AskPriceUpdated", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": false, "name": "ask", "type": "tuple", "components": ` + zoraAskComponents + `}
  ]},
  {"anonymous": false, "name": "AskCanceled", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": false, "name": "ask", "type": "tuple", "components": ` + zoraAskComponents + `}
  ]}
]`

const zoraAuctionHouseABIJSON = `[
  {"anonymous": false, "name": "AuctionEnded", "type": "event", "inputs": [
    {"indexed": true, "name": "auctionId", "type": "uint256"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": false, "name": "tokenOwner", "type": "address"},
    {"indexed": false, "name": "curator", "type": "address"},
    {"indexed": false, "name": "winner", "type": "address"},
    {"indexed": false, "name": "amount", "type": "uint256"},
    {"indexed": false, "name": "curatorFee", "type": "uint256"},
    {"indexed": false, "name": "auctionCurrency", "type": "address"}
  ]}
]`

const zoraOffersABIJSON = `[
  {"anonymous": false, "name": "OfferCreated", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "offer", "type": "tuple", "components": ` + zoraOfferComponents + `}
  ]},
  {"anonymous": false, "name": "OfferUpdated", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "offer", "type": "tuple", "components": ` + zoraOfferComponents + `}
  ]},
  {"anonymous": false, "name": "OfferCanceled", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "offer", "type": "tuple", "components": ` + zoraOfferComponents + `}
  ]},
  {"anonymous": false, "name": "OfferFilled", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": true, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "taker", "type": "address"},
    {"indexed": false, "name": "finder", "type": "address"},
    {"indexed": false, "name": "offer", "type": "tuple", "components": ` + zoraOfferComponents + `}
  ]}
]`

const zoraTokenABIJSON = `[
  {"anonymous": false, "name": "SalesConfigChanged", "type": "event", "inputs": [
    {"indexed": true, "name": "changedBy", "type": "address"}
  ]},
  {"anonymous": false, "name": "UpdatedToken", "type": "event", "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": false, "name": "tokenData", "type": "tuple", "components": [
      {"name": "uri", "type": "string"},
      {"name": "maxSupply", "type": "uint256"},
      {"name": "totalMinted", "type": "uint256"}
    ]}
  ]},
  {"anonymous": false, "name": "MintComment", "type": "event", "inputs": [
    {"indexed": true, "name": "sender", "type": "address"},
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"},
    {"indexed": false, "name": "quantity", "type": "uint256"},
    {"indexed": false, "name": "comment", "type": "string"}
  ]}
]`

// The custom comment event shares its name with MintComment, so it lives in its own ABI.
const zoraCustomMintCommentABIJSON = `[
  {"anonymous": false, "name": "MintComment", "type": "event", "inputs": [
    {"indexed": true, "name": "tokenContract", "type": "address"},
    {"indexed": false, "name": "quantity", "type": "uint256"},
    {"indexed": false, "name": "comment", "type": "string"}
  ]}
]`

func parseABI(raw string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}
