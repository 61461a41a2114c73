package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"fillScope/internal/model"
)

// Definition describes how to recognise and decode one event variant.
type Definition struct {
	Kind      model.Kind
	SubKind   model.SubKind
	Event     abi.Event
	NumTopics int
	// Addresses is nil for events accepted from any contract. A non-nil empty
	// set means the contract is not deployed on this chain.
	Addresses map[common.Address]struct{}
}

// Topic returns the event signature hash.
func (d *Definition) Topic() common.Hash {
	return d.Event.ID
}

// Accepts reports whether a log from address may match this definition.
func (d *Definition) Accepts(address common.Address) bool {
	if d.Addresses == nil {
		return true
	}
	_, ok := d.Addresses[address]
	return ok
}

// Config selects the chain-specific contract allowlists.
type Config struct {
	ChainID uint64
	// Contracts overrides the built-in addresses per contract role.
	Contracts map[string][]common.Address
}

// Registry maps (address, topic0) to event definitions. It is immutable once built.
type Registry struct {
	definitions []*Definition
	byTopic     map[common.Hash][]*Definition
	bySubKind   map[model.SubKind]*Definition
}

type entry struct {
	kind      model.Kind
	subKind   model.SubKind
	abiJSON   string
	event     string
	numTopics int
	contract  string
}

var builtin = []entry{
	{model.KindNftxV3, model.SubKindNftxV3Minted, nftxVaultABIJSON, "Minted", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3Redeemed, nftxVaultABIJSON, "Redeemed", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3Swapped, nftxVaultABIJSON, "Swapped", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3VaultInit, nftxVaultABIJSON, "VaultInit", 2, ""},
	{model.KindNftxV3, model.SubKindNftxV3VaultShutdown, nftxVaultABIJSON, "VaultShutdown", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3EligibilityDeployed, nftxVaultABIJSON, "EligibilityDeployed", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3EnableMintUpdated, nftxVaultABIJSON, "EnableMintUpdated", 1, ""},
	{model.KindNftxV3, model.SubKindNftxV3Swap, ammPairABIJSON, "Swap", 3, ""},
	{model.KindNftxV3, model.SubKindNftxV3Mint, ammPairABIJSON, "Mint", 2, ""},
	{model.KindNftxV3, model.SubKindNftxV3Burn, ammPairABIJSON, "Burn", 3, ""},

	{model.KindZora, model.SubKindZoraAskFilled, zoraAsksABIJSON, "AskFilled", 4, ContractZoraExchange},
	{model.KindZora, model.SubKindZoraAskCreated, zoraAsksABIJSON, "AskCreated", 3, ContractZoraExchange},
	{model.KindZora, model.SubKindZoraAskPriceUpdated, zoraAsksABIJSON, "AskPriceUpdated", 3, ContractZoraExchange},
	{model.KindZora, model.SubKindZoraAskCancelled, zoraAsksABIJSON, "AskCanceled", 3, ContractZoraExchange},
	{model.KindZora, model.SubKindZoraAuctionEnded, zoraAuctionHouseABIJSON, "AuctionEnded", 4, ContractZoraAuctionHouse},
	{model.KindZora, model.SubKindZoraOfferCreated, zoraOffersABIJSON, "OfferCreated", 4, ContractZoraOfferOmnibus},
	{model.KindZora, model.SubKindZoraOfferUpdated, zoraOffersABIJSON, "OfferUpdated", 4, ContractZoraOfferOmnibus},
	{model.KindZora, model.SubKindZoraOfferCanceled, zoraOffersABIJSON, "OfferCanceled", 4, ContractZoraOfferOmnibus},
	{model.KindZora, model.SubKindZoraOfferFilled, zoraOffersABIJSON, "OfferFilled", 4, ContractZoraOfferOmnibus},
	{model.KindZora, model.SubKindZoraSalesConfigChanged, zoraTokenABIJSON, "SalesConfigChanged", 2, ""},
	{model.KindZora, model.SubKindZoraUpdatedToken, zoraTokenABIJSON, "UpdatedToken", 3, ""},
	{model.KindZora, model.SubKindZoraMintComment, zoraTokenABIJSON, "MintComment", 4, ""},
	{model.KindZora, model.SubKindZoraCustomMintComment, zoraCustomMintCommentABIJSON, "MintComment", 2, ""},
}

// NewRegistry builds the registry for a chain.
func NewRegistry(cfg Config) (*Registry, error) {
	contracts := contractsFor(cfg.ChainID, cfg.Contracts)
	parsed := make(map[string]abi.ABI)

	r := &Registry{
		byTopic:   make(map[common.Hash][]*Definition),
		bySubKind: make(map[model.SubKind]*Definition),
	}
	for _, s := range builtin {
		contractABI, ok := parsed[s.abiJSON]
		if !ok {
			var err error
			contractABI, err = parseABI(s.abiJSON)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.subKind, err)
			}
			parsed[s.abiJSON] = contractABI
		}
		event, ok := contractABI.Events[s.event]
		if !ok {
			return nil, fmt.Errorf("%s: event %s missing from abi", s.subKind, s.event)
		}
		if want := len(indexedArguments(event.Inputs)) + 1; want != s.numTopics {
			return nil, fmt.Errorf("%s: abi has %d topics, definition expects %d", s.subKind, want, s.numTopics)
		}

		def := &Definition{
			Kind:      s.kind,
			SubKind:   s.subKind,
			Event:     event,
			NumTopics: s.numTopics,
		}
		if s.contract != "" {
			def.Addresses = make(map[common.Address]struct{})
			for _, addr := range contracts[s.contract] {
				def.Addresses[addr] = struct{}{}
			}
		}
		r.add(def)
	}
	return r, nil
}

func (r *Registry) add(def *Definition) {
	r.definitions = append(r.definitions, def)
	r.byTopic[def.Topic()] = append(r.byTopic[def.Topic()], def)
	r.bySubKind[def.SubKind] = def
}

// Classify returns the definition for a log. Allowlisted definitions take
// precedence over ones accepted from any address.
func (r *Registry) Classify(address common.Address, topic common.Hash) (*Definition, bool) {
	var open *Definition
	for _, def := range r.byTopic[topic] {
		if def.Addresses == nil {
			if open == nil {
				open = def
			}
			continue
		}
		if def.Accepts(address) {
			return def, true
		}
	}
	return open, open != nil
}

// Definition returns the definition registered for subKind.
func (r *Registry) Definition(subKind model.SubKind) (*Definition, bool) {
	def, ok := r.bySubKind[subKind]
	return def, ok
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []*Definition {
	return append([]*Definition(nil), r.definitions...)
}

// Topics returns the distinct topic0 values, suitable for an eth_getLogs filter.
func (r *Registry) Topics() []common.Hash {
	seen := make(map[common.Hash]struct{}, len(r.byTopic))
	topics := make([]common.Hash, 0, len(r.byTopic))
	for _, def := range r.definitions {
		if _, ok := seen[def.Topic()]; ok {
			continue
		}
		seen[def.Topic()] = struct{}{}
		topics = append(topics, def.Topic())
	}
	return topics
}
