package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"fillScope/internal/model"
	"fillScope/internal/onchain"
)

// setupStore starts a PostgreSQL container and applies the schema. The test
// is skipped when no container runtime is available.
func setupStore(t *testing.T) *Store {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "schema must be re-runnable")
	return store
}

var (
	vault = common.HexToAddress("0x1111111111111111111111111111111111111111")
	nft   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	weth  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tx    = common.HexToHash("0xfeed")
)

func sampleData(price string) *onchain.Data {
	base := model.BaseEventParams{Address: vault, TxHash: tx, Block: 100, LogIndex: 5, Timestamp: 1700000000}
	data := onchain.New()
	data.AddOrder(model.NormalizedOrderEvent{
		Kind: model.OrderKindNftxV3, OrderID: "bid", PoolAddress: vault, TxHash: tx,
		TxTimestamp: 1700000000, TxBlock: 100, LogIndex: 5, Metadata: map[string]string{"action": "refresh"},
	})
	for i := 1; i <= 2; i++ {
		data.AddPartialFill(model.FillEvent{
			OrderKind: model.OrderKindNftxV3, OrderSide: model.SideBuy, OrderID: "bid",
			Maker: vault, Taker: weth, Price: price, CurrencyPrice: price, Currency: weth,
			Contract: nft, TokenID: big.NewInt(int64(i)).String(), Amount: "1",
			Attribution: model.Attribution{OrderSource: "nftx.io", FillSource: "nftx.io"},
			Base:        base.WithBatchIndex(i),
		})
	}
	data.AddFillInfo(model.FillInfo{Context: "ctx-1", OrderID: "bid", OrderSide: model.SideBuy, Contract: nft, TokenID: "1", Amount: "1", Price: price})
	data.AddOrderInfo(model.OrderInfo{Context: "ctx-2", ID: "bid", Trigger: model.OrderTrigger{Kind: model.TriggerKindSale, TxHash: tx, TxTimestamp: 1700000000}})
	return data
}

func count(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func TestSaveOnChainDataIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOnChainData(ctx, 100, 100, sampleData("50")))
	require.NoError(t, s.SaveOnChainData(ctx, 100, 100, sampleData("60")))

	require.Equal(t, 1, count(t, s, "order_events"))
	require.Equal(t, 2, count(t, s, "fill_events"))
	require.Equal(t, 1, count(t, s, "fill_infos"))
	require.Equal(t, 1, count(t, s, "order_triggers"))

	var price, infoPrice string
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT price::text FROM fill_events WHERE batch_index = 1`).Scan(&price))
	require.Equal(t, "60", price, "fill events are replaced")
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT price::text FROM fill_infos WHERE context = 'ctx-1'`).Scan(&infoPrice))
	require.Equal(t, "50", infoPrice, "fill infos keep the first write")
}

func TestSaveOnChainDataEmpty(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.SaveOnChainData(context.Background(), 1, 2, onchain.New()))
	require.Equal(t, 0, count(t, s, "order_events"))
}

func TestOrdersByIDs(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seedOrders(t, s,
		model.StoredOrder{ID: "a", Currency: weth, Price: "1000000000000000000", UpdatedAt: 10},
		model.StoredOrder{ID: "b", Currency: weth, Price: "5", UpdatedAt: 20},
	)

	found, err := s.OrdersByIDs(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Len(t, found, 2)

	byID := map[string]model.StoredOrder{}
	for _, o := range found {
		byID[o.ID] = o
	}
	require.Equal(t, "1000000000000000000", byID["a"].Price)
	require.Equal(t, weth, byID["a"].Currency)
	require.Equal(t, "5", byID["b"].Price)
	require.Equal(t, uint64(20), byID["b"].UpdatedAt)
}

func TestUSDPriceAtOrBefore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seedUSDPrice(t, s, weth, 100, big.NewInt(1_900_000000))
	seedUSDPrice(t, s, weth, 200, big.NewInt(2_000_000000))

	_, ok, err := s.USDPrice(ctx, weth, 99)
	require.NoError(t, err)
	require.False(t, ok)

	price, ok, err := s.USDPrice(ctx, weth, 150)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big.NewInt(1_900_000000), price)

	price, ok, err = s.USDPrice(ctx, weth, 200)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big.NewInt(2_000_000000), price)
}

func TestPoolLayer(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadNftPool(ctx, vault)
	require.NoError(t, err)
	require.False(t, ok)

	want := model.NftPool{Address: vault, Nft: nft, VaultID: big.NewInt(392)}
	require.NoError(t, s.SaveNftPool(ctx, want))
	require.NoError(t, s.SaveNftPool(ctx, want))
	got, ok, err := s.LoadNftPool(ctx, vault)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	pair := model.FtPool{Address: common.HexToAddress("0x3333333333333333333333333333333333333333"), Token0: vault, Token1: weth}
	require.NoError(t, s.SaveFtPool(ctx, pair))
	gotPair, ok, err := s.LoadFtPool(ctx, pair.Address)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pair, gotPair)
}

func TestState(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadState(ctx, "sync")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveState(ctx, "sync", 100))
	require.NoError(t, s.SaveState(ctx, "sync", 250))
	block, ok, err := s.LoadState(ctx, "sync")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(250), block)

	require.Error(t, s.SaveState(ctx, "", 1))
}
