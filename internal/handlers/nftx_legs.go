package handlers

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"fillScope/internal/events"
	"fillScope/internal/model"
)

// swapLeg is one AMM swap's contribution to the unit price of a trade.
type swapLeg struct {
	currency      common.Address
	currencyPrice *big.Int
}

// pairSwap is a Swap log of an AMM pair that trades a vault token.
type pairSwap struct {
	logIndex   uint64
	pair       model.FtPool
	amount0In  *big.Int
	amount1In  *big.Int
	amount0Out *big.Int
	amount1Out *big.Int
}

// txView summarises the sibling logs of a transaction relative to one vault.
type txView struct {
	mints   int
	redeems int
	swaps   []pairSwap
}

// ambiguous reports whether the transaction holds more than the modelled
// one mint or redeem with at most two swaps for the vault.
func (v txView) ambiguous(own int) bool {
	return own > 1 || len(v.swaps) > 2
}

// scanTransaction classifies every log of txHash against vault. Swaps of
// pairs that do not trade the vault token are not counted.
func scanTransaction(ctx context.Context, env *Env, txHash common.Hash, vault common.Address) (txView, error) {
	logs, err := env.Tx.LogsOfTransaction(ctx, txHash)
	if err != nil {
		return txView{}, err
	}

	minted, ok := env.Registry.Definition(model.SubKindNftxV3Minted)
	if !ok {
		return txView{}, fmt.Errorf("registry has no %s", model.SubKindNftxV3Minted)
	}
	redeemed, ok := env.Registry.Definition(model.SubKindNftxV3Redeemed)
	if !ok {
		return txView{}, fmt.Errorf("registry has no %s", model.SubKindNftxV3Redeemed)
	}
	swap, ok := env.Registry.Definition(model.SubKindNftxV3Swap)
	if !ok {
		return txView{}, fmt.Errorf("registry has no %s", model.SubKindNftxV3Swap)
	}

	var view txView
	for _, log := range logs {
		switch log.Topic0() {
		case minted.Topic():
			if log.Address == vault {
				view.mints++
			}
		case redeemed.Topic():
			if log.Address == vault {
				view.redeems++
			}
		case swap.Topic():
			parsed, ok, err := parseSwap(ctx, env, swap, log)
			if err != nil {
				return txView{}, err
			}
			if ok && parsed.pair.Includes(vault) {
				view.swaps = append(view.swaps, parsed)
			}
		}
	}
	return view, nil
}

func parseSwap(ctx context.Context, env *Env, def *events.Definition, log model.RawLog) (pairSwap, bool, error) {
	decoded, err := events.Decode(log, def)
	if err != nil {
		return pairSwap{}, false, nil
	}
	pair, ok, err := env.ftPool(ctx, log.Address)
	if err != nil || !ok {
		return pairSwap{}, false, err
	}

	out := pairSwap{logIndex: log.LogIndex, pair: pair}
	for name, dst := range map[string]**big.Int{
		"amount0In":  &out.amount0In,
		"amount1In":  &out.amount1In,
		"amount0Out": &out.amount0Out,
		"amount1Out": &out.amount1Out,
	} {
		value, err := decoded.Fields.BigInt(name)
		if err != nil {
			return pairSwap{}, false, nil
		}
		*dst = value
	}
	return out, true, nil
}

// mintLegs collects the swaps after a mint that sold the minted vault tokens:
// currency flows out of the pair. Each leg is divided by the NFT count.
func mintLegs(swaps []pairSwap, vault common.Address, mintLogIndex uint64, nftCount *big.Int) []swapLeg {
	var legs []swapLeg
	for _, s := range swaps {
		if s.logIndex <= mintLogIndex {
			continue
		}
		switch {
		case s.pair.Token0 == vault && s.amount1Out.Sign() != 0:
			legs = append(legs, swapLeg{currency: s.pair.Token1, currencyPrice: unitPrice(s.amount1Out, nftCount)})
		case s.pair.Token1 == vault && s.amount0Out.Sign() != 0:
			legs = append(legs, swapLeg{currency: s.pair.Token0, currencyPrice: unitPrice(s.amount0Out, nftCount)})
		}
	}
	return legs
}

// redeemLegs collects the swaps before a redeem that bought the vault tokens
// being redeemed: currency flows into the pair.
func redeemLegs(swaps []pairSwap, vault common.Address, redeemLogIndex uint64, nftCount *big.Int) []swapLeg {
	var legs []swapLeg
	for _, s := range swaps {
		if s.logIndex >= redeemLogIndex {
			continue
		}
		switch {
		case s.pair.Token0 == vault && s.amount1In.Sign() != 0:
			legs = append(legs, swapLeg{currency: s.pair.Token1, currencyPrice: unitPrice(s.amount1In, nftCount)})
		case s.pair.Token1 == vault && s.amount0In.Sign() != 0:
			legs = append(legs, swapLeg{currency: s.pair.Token0, currencyPrice: unitPrice(s.amount0In, nftCount)})
		}
	}
	return legs
}

// unitPrice divides a batch amount evenly; the remainder is discarded.
func unitPrice(amount, count *big.Int) *big.Int {
	return new(big.Int).Quo(amount, count)
}

// reconcile sums the legs into one unit price. It fails when there are no
// legs or when they disagree on currency.
func reconcile(legs []swapLeg) (common.Address, *big.Int, bool) {
	if len(legs) == 0 {
		return common.Address{}, nil, false
	}
	currency := legs[0].currency
	total := new(big.Int)
	for _, leg := range legs {
		if leg.currency != currency {
			return common.Address{}, nil, false
		}
		total.Add(total, leg.currencyPrice)
	}
	return currency, total, true
}

// normalizeAmounts returns the unit quantity of each minted token. The
// vault accepts arbitrary amounts: an empty list or an amount equal to the
// token id both mean a single unit.
func normalizeAmounts(tokenIDs, amounts []*big.Int) []*big.Int {
	out := make([]*big.Int, len(tokenIDs))
	for i, tokenID := range tokenIDs {
		if i >= len(amounts) || amounts[i].Cmp(tokenID) == 0 {
			out[i] = big.NewInt(1)
			continue
		}
		out[i] = new(big.Int).Set(amounts[i])
	}
	return out
}

func sum(values []*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v)
	}
	return total
}
