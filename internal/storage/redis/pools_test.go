package redis

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fillScope/internal/model"
)

func setupCache(t *testing.T) *PoolCache {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache, err := NewPoolCache(ctx, Options{Addr: fmt.Sprintf("%s:%s", host, port.Port()), Prefix: "1"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestPoolCacheRoundTrip(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	vault := common.HexToAddress("0x1111111111111111111111111111111111111111")
	_, ok, err := cache.LoadNftPool(ctx, vault)
	require.NoError(t, err)
	require.False(t, ok)

	want := model.NftPool{Address: vault, Nft: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), VaultID: big.NewInt(7)}
	require.NoError(t, cache.SaveNftPool(ctx, want))
	got, ok, err := cache.LoadNftPool(ctx, vault)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	// Both variants share an address space without colliding.
	_, ok, err = cache.LoadFtPool(ctx, vault)
	require.NoError(t, err)
	require.False(t, ok)

	pair := model.FtPool{Address: vault, Token0: want.Nft, Token1: common.HexToAddress("0x02")}
	require.NoError(t, cache.SaveFtPool(ctx, pair))
	gotPair, ok, err := cache.LoadFtPool(ctx, vault)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pair, gotPair)
}

func TestPoolCacheConnectFailure(t *testing.T) {
	_, err := NewPoolCache(context.Background(), Options{Addr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
}
