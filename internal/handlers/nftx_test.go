package handlers

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"fillScope/internal/ids"
	"fillScope/internal/model"
	"fillScope/internal/pricing"
)

var zero = big.NewInt(0)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestMintedEndToEnd(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(2), zero, zero, big.NewInt(100), sender)

	data := f.handle(minted)

	bidBook := ids.OrderID(model.OrderKindNftxV3, vault, model.SideBuy, nil)
	require.Len(t, data.Orders(), 1)
	require.Equal(t, vault, data.Orders()[0].PoolAddress)
	require.Equal(t, bidBook, data.Orders()[0].OrderID)
	require.Equal(t, uint64(5), data.Orders()[0].LogIndex)

	fills := data.FillEventsPartial()
	require.Len(t, fills, 2)
	require.Empty(t, data.FillEventsOnChain())
	for i, fill := range fills {
		require.Equal(t, model.SideBuy, fill.OrderSide)
		require.Equal(t, bidBook, fill.OrderID)
		require.Equal(t, "50", fill.CurrencyPrice)
		require.Equal(t, "50", fill.Price)
		require.Equal(t, weth, fill.Currency)
		require.Equal(t, nft, fill.Contract)
		require.Equal(t, vault, fill.Maker)
		require.Equal(t, sender, fill.Taker)
		require.Equal(t, "1", fill.Amount)
		require.Equal(t, uint64(i+1), fill.Base.BatchIndex)
		require.Equal(t, model.Attribution{OrderSource: "nftx.io", FillSource: "nftx.io"}, fill.Attribution)
	}
	require.Equal(t, "1", fills[0].TokenID)
	require.Equal(t, "2", fills[1].TokenID)

	require.Len(t, data.OrderInfos(), 2)
	require.Equal(t, ids.OrderInfoContext(bidBook, txHash), data.OrderInfos()[0].Context)
	require.Equal(t, model.TriggerKindSale, data.OrderInfos()[0].Trigger.Kind)
	require.Len(t, data.FillInfos(), 2)
	require.Equal(t, ids.FillContext("nftx-v3", nft, "2", txHash), data.FillInfos()[1].Context)
}

func TestMintedReplayIsIdentical(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(2), zero, zero, big.NewInt(100), sender)

	require.Equal(t, f.handle(minted), f.handle(minted))
}

func TestMintedIgnoresEarlierSwap(t *testing.T) {
	f := newFixture(t)
	f.add(model.SubKindNftxV3Swap, pair, 3, router, units(2), zero, zero, big.NewInt(100), sender)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
	require.Empty(t, data.OrderInfos())
}

func TestMintedUsesLaterSwapOnly(t *testing.T) {
	f := newFixture(t)
	f.add(model.SubKindNftxV3Swap, pair, 3, router, units(2), zero, zero, big.NewInt(1000), sender)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(2), zero, zero, big.NewInt(100), sender)

	fills := f.handle(minted).FillEventsPartial()
	require.Len(t, fills, 2)
	require.Equal(t, "50", fills[0].CurrencyPrice)
}

func TestMintedAmountEqualToTokenID(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(42), bigs(42), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(1), zero, zero, big.NewInt(100), sender)

	fills := f.handle(minted).FillEventsPartial()
	require.Len(t, fills, 1)
	require.Equal(t, "100", fills[0].CurrencyPrice)
	require.Equal(t, "1", fills[0].Amount)
}

func TestNormalizeAmounts(t *testing.T) {
	require.Equal(t, bigs(1), normalizeAmounts(bigs(42), bigs(42)))
	require.Equal(t, bigs(1, 1, 1), normalizeAmounts(bigs(1, 2, 3), nil))
	require.Equal(t, bigs(3, 1), normalizeAmounts(bigs(5, 6), bigs(3)))
}

func TestUnitPriceDiscardsRemainder(t *testing.T) {
	require.Equal(t, big.NewInt(33), unitPrice(big.NewInt(100), big.NewInt(3)))
}

func TestMintedCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 6, router, units(1), zero, zero, big.NewInt(100), sender)
	f.add(model.SubKindNftxV3Swap, usdPair, 7, router, zero, units(1), big.NewInt(100), zero, sender)

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
}

func TestMintedMissingNativePrice(t *testing.T) {
	f := newFixture(t)
	source := pricing.NewStaticSource()
	source.Set(usdc, 0, big.NewInt(1_000000))
	f.env.Prices = pricing.NewOracle(pricing.Config{WrappedNative: weth}, source, decimalsMap{usdc: 6}, nil)

	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, usdPair, 7, router, zero, units(1), big.NewInt(100_000000), zero, sender)

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
	require.Empty(t, data.FillInfos())
}

func TestMintedERC20Leg(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, usdPair, 7, router, zero, units(1), big.NewInt(100_000000), zero, sender)

	fills := f.handle(minted).FillEventsPartial()
	require.Len(t, fills, 1)
	require.Equal(t, usdc, fills[0].Currency)
	require.Equal(t, "100000000", fills[0].CurrencyPrice)
	require.Equal(t, "100000000", fills[0].USDPrice)
	require.Equal(t, "50000000000000000", fills[0].Price)
}

func TestMintedAmbiguousUsesStoredOrder(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(2), zero, zero, big.NewInt(100), sender)
	f.add(model.SubKindNftxV3Minted, vault, 9, bigs(3), bigs(), router, router)

	bidBook := ids.OrderID(model.OrderKindNftxV3, vault, model.SideBuy, nil)
	f.orders.Put(model.StoredOrder{ID: bidBook, Currency: weth, Price: "40", UpdatedAt: timestamp - 60})

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
	fills := data.FillEventsOnChain()
	require.Len(t, fills, 2)
	for _, fill := range fills {
		require.Equal(t, "40", fill.CurrencyPrice)
		require.Equal(t, bidBook, fill.OrderID)
	}
}

func TestMintedAmbiguousWithoutStoredOrder(t *testing.T) {
	f := newFixture(t)
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1), bigs(), router, router)
	for i := uint64(6); i < 9; i++ {
		f.add(model.SubKindNftxV3Swap, pair, i, router, units(1), zero, zero, big.NewInt(100), sender)
	}

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
	require.Empty(t, data.FillEventsOnChain())
}

func TestMintedUnknownVault(t *testing.T) {
	f := newFixture(t)
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	minted := f.add(model.SubKindNftxV3Minted, other, 5, bigs(1), bigs(), router, router)

	require.True(t, f.handle(minted).Empty())
}

func TestRedeemedUnambiguous(t *testing.T) {
	f := newFixture(t)
	f.add(model.SubKindNftxV3Swap, pair, 2, router, zero, big.NewInt(90), units(3), zero, router)
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7, 8, 9), sender)

	data := f.handle(redeemed)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())

	fills := data.FillEventsOnChain()
	require.Len(t, fills, 3)
	for i, fill := range fills {
		tokenID := big.NewInt(int64(7 + i))
		require.Equal(t, model.SideSell, fill.OrderSide)
		require.Equal(t, ids.OrderID(model.OrderKindNftxV3, vault, model.SideSell, tokenID), fill.OrderID)
		require.Equal(t, tokenID.String(), fill.TokenID)
		require.Equal(t, "30", fill.CurrencyPrice)
		require.Equal(t, "1", fill.Amount)
		require.Equal(t, uint64(i+1), fill.Base.BatchIndex)
		require.Equal(t, fill.OrderID, data.OrderInfos()[i].ID)
	}
}

func TestRedeemedIgnoresLaterSwap(t *testing.T) {
	f := newFixture(t)
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7), sender)
	f.add(model.SubKindNftxV3Swap, pair, 6, router, zero, big.NewInt(90), units(1), zero, router)

	data := f.handle(redeemed)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsOnChain())
}

func TestRedeemedAmbiguousStaleness(t *testing.T) {
	f := newFixture(t)
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7, 8, 9, 10), sender)
	f.add(model.SubKindNftxV3Redeemed, vault, 6, bigs(11), sender)

	sell := func(tokenID int64) string {
		return ids.OrderID(model.OrderKindNftxV3, vault, model.SideSell, big.NewInt(tokenID))
	}
	f.orders.Put(model.StoredOrder{ID: sell(7), Currency: weth, Price: "30", UpdatedAt: timestamp - 100})
	f.orders.Put(model.StoredOrder{ID: sell(8), Currency: weth, Price: "30", UpdatedAt: timestamp + 100})
	f.orders.Put(model.StoredOrder{ID: sell(9), Currency: weth, Price: "30", UpdatedAt: timestamp})

	data := f.handle(redeemed)
	fills := data.FillEventsOnChain()
	require.Len(t, fills, 1)
	require.Equal(t, sell(7), fills[0].OrderID)
	require.Equal(t, "30", fills[0].CurrencyPrice)
	require.Equal(t, uint64(1), fills[0].Base.BatchIndex)
	require.Len(t, data.OrderInfos(), 1)
}

func TestRedeemedCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	f.add(model.SubKindNftxV3Swap, pair, 1, router, zero, big.NewInt(90), units(1), zero, router)
	f.add(model.SubKindNftxV3Swap, usdPair, 2, router, big.NewInt(100_000000), zero, zero, units(1), router)
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7), sender)

	data := f.handle(redeemed)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsOnChain())
	require.Empty(t, data.FillInfos())
	require.Empty(t, data.OrderInfos())
}

func TestRedeemedMissingNativePrice(t *testing.T) {
	f := newFixture(t)
	source := pricing.NewStaticSource()
	source.Set(usdc, 0, big.NewInt(1_000000))
	f.env.Prices = pricing.NewOracle(pricing.Config{WrappedNative: weth}, source, decimalsMap{usdc: 6}, nil)

	f.add(model.SubKindNftxV3Swap, usdPair, 2, router, big.NewInt(100_000000), zero, zero, units(1), router)
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7), sender)

	data := f.handle(redeemed)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsOnChain())
	require.Empty(t, data.FillInfos())
	require.Empty(t, data.OrderInfos())
}

func TestRedeemedAmbiguousBySwapCount(t *testing.T) {
	f := newFixture(t)
	for i := uint64(1); i <= 3; i++ {
		f.add(model.SubKindNftxV3Swap, pair, i, router, zero, big.NewInt(90), units(1), zero, router)
	}
	redeemed := f.add(model.SubKindNftxV3Redeemed, vault, 4, bigs(7, 8), sender)

	sell7 := ids.OrderID(model.OrderKindNftxV3, vault, model.SideSell, big.NewInt(7))
	f.orders.Put(model.StoredOrder{ID: sell7, Currency: weth, Price: "25", UpdatedAt: timestamp - 100})

	data := f.handle(redeemed)
	require.Len(t, data.Orders(), 1)
	fills := data.FillEventsOnChain()
	require.Len(t, fills, 1)
	require.Equal(t, sell7, fills[0].OrderID)
	require.Equal(t, "25", fills[0].CurrencyPrice)
	require.Equal(t, "7", fills[0].TokenID)
	require.Len(t, data.OrderInfos(), 1)
}

func TestUnknownSenderSkipsFills(t *testing.T) {
	f := newFixture(t)
	f.tx.noSender = true
	minted := f.add(model.SubKindNftxV3Minted, vault, 5, bigs(1, 2), bigs(), router, router)
	f.add(model.SubKindNftxV3Swap, pair, 7, router, units(2), zero, zero, big.NewInt(100), sender)

	data := f.handle(minted)
	require.Len(t, data.Orders(), 1)
	require.Empty(t, data.FillEventsPartial())
	require.Empty(t, data.OrderInfos())
}

func TestPoolUpdateEvents(t *testing.T) {
	f := newFixture(t)
	init := f.add(model.SubKindNftxV3VaultInit, vault, 1, big.NewInt(1), nft, false, true)
	toggle := f.add(model.SubKindNftxV3EnableMintUpdated, vault, 2, true)

	for _, log := range []model.RawLog{init, toggle} {
		data := f.handle(log)
		require.Len(t, data.Orders(), 1)
		require.Equal(t, vault, data.Orders()[0].PoolAddress)
		require.Equal(t, "refresh", data.Orders()[0].Metadata["action"])
	}
}

func TestPairEventRefreshesVaultLeg(t *testing.T) {
	f := newFixture(t)
	mint := f.add(model.SubKindNftxV3Mint, pair, 1, router, units(1), units(1))

	data := f.handle(mint)
	require.Len(t, data.Orders(), 1)
	require.Equal(t, vault, data.Orders()[0].PoolAddress)
	require.Equal(t, uint64(1), data.Orders()[0].LogIndex)
}

func TestPairEventUnknownPair(t *testing.T) {
	f := newFixture(t)
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	burn := f.add(model.SubKindNftxV3Burn, other, 1, router, units(1), units(1), sender)

	require.True(t, f.handle(burn).Empty())
}
