package model

// Kind identifies the protocol family an event definition belongs to.
type Kind string

const (
	KindNftxV3 Kind = "nftx-v3"
	KindZora   Kind = "zora"
)

// SubKind identifies one event variant. The set is closed: every value below
// is registered in the event registry and has exactly one handler.
type SubKind string

const (
	SubKindNftxV3Minted              SubKind = "nftx-v3-minted"
	SubKindNftxV3Redeemed            SubKind = "nftx-v3-redeemed"
	SubKindNftxV3Swapped             SubKind = "nftx-v3-swapped"
	SubKindNftxV3VaultInit           SubKind = "nftx-v3-vault-init"
	SubKindNftxV3VaultShutdown       SubKind = "nftx-v3-vault-shutdown"
	SubKindNftxV3EligibilityDeployed SubKind = "nftx-v3-eligibility-deployed"
	SubKindNftxV3EnableMintUpdated   SubKind = "nftx-v3-enable-mint-updated"
	SubKindNftxV3Swap                SubKind = "nftx-v3-swap"
	SubKindNftxV3Mint                SubKind = "nftx-v3-mint"
	SubKindNftxV3Burn                SubKind = "nftx-v3-burn"

	SubKindZoraAskFilled          SubKind = "zora-ask-filled"
	SubKindZoraAskCreated         SubKind = "zora-ask-created"
	SubKindZoraAskPriceUpdated    SubKind = "zora-ask-price-updated"
	SubKindZoraAskCancelled       SubKind = "zora-ask-cancelled"
	SubKindZoraAuctionEnded       SubKind = "zora-auction-ended"
	SubKindZoraOfferCreated       SubKind = "zora-offer-created"
	SubKindZoraOfferUpdated       SubKind = "zora-offer-updated"
	SubKindZoraOfferCanceled      SubKind = "zora-offer-canceled"
	SubKindZoraOfferFilled        SubKind = "zora-offer-filled"
	SubKindZoraSalesConfigChanged SubKind = "zora-sales-config-changed"
	SubKindZoraUpdatedToken       SubKind = "zora-updated-token"
	SubKindZoraMintComment        SubKind = "zora-mint-comment"
	SubKindZoraCustomMintComment  SubKind = "zora-custom-mint-comment"
)

// OrderKind names the order book a fill or order event belongs to.
type OrderKind string

const (
	OrderKindNftxV3 OrderKind = "nftx-v3"
	OrderKindZoraV3 OrderKind = "zora-v3"
)

// Side distinguishes the two books a pool maintains.
type Side string

const (
	// SideBuy is the pool's bid: it pays currency and receives NFTs.
	SideBuy Side = "buy"
	// SideSell is the pool's ask: it sells NFTs for currency.
	SideSell Side = "sell"
)
