package pools

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

var (
	vault   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	nft     = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	pair    = common.HexToAddress("0x3333333333333333333333333333333333333333")
	weth    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	factory = common.HexToAddress("0x7777777777777777777777777777777777777777")
)

// revert mimics a JSON-RPC execution error.
type revert struct{}

func (revert) Error() string  { return "execution reverted" }
func (revert) ErrorCode() int { return 3 }

// chainCaller answers eth_call for one vault, one pair and the vault factory.
type chainCaller struct {
	calls     atomic.Int32
	err       error
	registry  common.Address
	pairMaker common.Address
	notVault  bool
}

func (c *chainCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	pack := func(parsed abi.ABI, method string, value interface{}) ([]byte, error) {
		if string(msg.Data[:4]) != string(parsed.Methods[method].ID) {
			return nil, nil
		}
		return parsed.Methods[method].Outputs.Pack(value)
	}
	vaultABI, _ := VaultABI()
	factoryABI, _ := VaultFactoryABI()
	pairABI, _ := PairABI()

	var out []byte
	var err error
	switch *msg.To {
	case vault:
		if c.notVault {
			return nil, revert{}
		}
		for method, value := range map[string]interface{}{"vaultId": big.NewInt(5), "assetAddress": nft} {
			if out, err = pack(vaultABI, method, value); out != nil || err != nil {
				return out, err
			}
		}
	case factory:
		return pack(factoryABI, "vault", c.registry)
	case pair:
		for method, value := range map[string]interface{}{"token0": vault, "token1": weth, "factory": c.pairMaker} {
			if out, err = pack(pairABI, method, value); out != nil || err != nil {
				return out, err
			}
		}
	}
	return nil, revert{}
}

// memoryLayer is a Layer backed by maps.
type memoryLayer struct {
	mu  sync.Mutex
	nft map[common.Address]model.NftPool
	ft  map[common.Address]model.FtPool
	err error
}

func newMemoryLayer() *memoryLayer {
	return &memoryLayer{nft: map[common.Address]model.NftPool{}, ft: map[common.Address]model.FtPool{}}
}

func (m *memoryLayer) LoadNftPool(_ context.Context, address common.Address) (model.NftPool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.NftPool{}, false, m.err
	}
	pool, ok := m.nft[address]
	return pool, ok, nil
}

func (m *memoryLayer) SaveNftPool(_ context.Context, pool model.NftPool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nft[pool.Address] = pool
	return nil
}

func (m *memoryLayer) LoadFtPool(_ context.Context, address common.Address) (model.FtPool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.FtPool{}, false, m.err
	}
	pool, ok := m.ft[address]
	return pool, ok, nil
}

func (m *memoryLayer) SaveFtPool(_ context.Context, pool model.FtPool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ft[pool.Address] = pool
	return nil
}

func TestNftPoolFromChainIsCached(t *testing.T) {
	caller := &chainCaller{registry: vault}
	layer := newMemoryLayer()
	p := NewProvider(Config{VaultFactory: factory}, caller, nil, layer)

	pool, err := p.NftPool(context.Background(), vault)
	require.NoError(t, err)
	require.Equal(t, model.NftPool{Address: vault, Nft: nft, VaultID: big.NewInt(5)}, pool)
	require.Equal(t, pool, layer.nft[vault])

	calls := caller.calls.Load()
	_, err = p.NftPool(context.Background(), vault)
	require.NoError(t, err)
	require.Equal(t, calls, caller.calls.Load())
}

func TestNftPoolRejectsUnregisteredVault(t *testing.T) {
	caller := &chainCaller{registry: common.HexToAddress("0x01")}
	p := NewProvider(Config{VaultFactory: factory}, caller, nil)

	_, err := p.NftPool(context.Background(), vault)
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestNotFoundIsNotCached(t *testing.T) {
	caller := &chainCaller{notVault: true}
	p := NewProvider(Config{}, caller, nil)

	_, err := p.NftPool(context.Background(), vault)
	require.ErrorIs(t, err, failure.ErrNotFound)
	require.False(t, failure.IsRetryable(err))

	caller.notVault = false
	pool, err := p.NftPool(context.Background(), vault)
	require.NoError(t, err)
	require.Equal(t, nft, pool.Nft)
}

func TestTransportFailureIsRetryable(t *testing.T) {
	p := NewProvider(Config{}, &chainCaller{err: errors.New("connection refused")}, nil)

	_, err := p.FtPool(context.Background(), pair)
	require.Error(t, err)
	require.True(t, failure.IsRetryable(err))
	require.False(t, errors.Is(err, failure.ErrNotFound))
}

func TestFtPoolFactoryCheck(t *testing.T) {
	ok := NewProvider(Config{AmmFactory: factory}, &chainCaller{pairMaker: factory}, nil)
	pool, err := ok.FtPool(context.Background(), pair)
	require.NoError(t, err)
	require.Equal(t, model.FtPool{Address: pair, Token0: vault, Token1: weth}, pool)

	foreign := NewProvider(Config{AmmFactory: factory}, &chainCaller{pairMaker: weth}, nil)
	_, err = foreign.FtPool(context.Background(), pair)
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestLayerHitBackfillsEarlierLayers(t *testing.T) {
	front, back := newMemoryLayer(), newMemoryLayer()
	want := model.FtPool{Address: pair, Token0: vault, Token1: weth}
	back.ft[pair] = want

	caller := &chainCaller{}
	p := NewProvider(Config{}, caller, nil, front, back)

	pool, err := p.FtPool(context.Background(), pair)
	require.NoError(t, err)
	require.Equal(t, want, pool)
	require.Equal(t, want, front.ft[pair])
	require.Zero(t, caller.calls.Load())
}

func TestBrokenLayerFallsThrough(t *testing.T) {
	broken := newMemoryLayer()
	broken.err = errors.New("redis down")
	p := NewProvider(Config{}, &chainCaller{}, nil, broken)

	pool, err := p.FtPool(context.Background(), pair)
	require.NoError(t, err)
	require.Equal(t, weth, pool.Token1)
}

func TestDetails(t *testing.T) {
	caller := &chainCaller{}
	p := NewProvider(Config{}, caller, nil)

	state, err := p.Details(context.Background(), vault)
	require.NoError(t, err)
	require.IsType(t, model.NftPool{}, state)

	state, err = p.Details(context.Background(), pair)
	require.NoError(t, err)
	require.Equal(t, pair, state.PoolAddress())
	require.IsType(t, model.FtPool{}, state)
}
