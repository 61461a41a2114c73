package txctx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

type countingFetcher struct {
	logCalls atomic.Int32
	txCalls  atomic.Int32
	logs     map[common.Hash][]model.RawLog
	err      error
}

func (f *countingFetcher) TransactionLogs(_ context.Context, txHash common.Hash) ([]model.RawLog, error) {
	f.logCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.RawLog(nil), f.logs[txHash]...), nil
}

func (f *countingFetcher) Transaction(_ context.Context, txHash common.Hash) (model.TxInfo, error) {
	f.txCalls.Add(1)
	if f.err != nil {
		return model.TxInfo{}, f.err
	}
	return model.TxInfo{Hash: txHash, From: common.HexToAddress("0xf00d")}, nil
}

func TestLogsCachedAndSorted(t *testing.T) {
	tx := common.HexToHash("0x01")
	fetcher := &countingFetcher{logs: map[common.Hash][]model.RawLog{
		tx: {{LogIndex: 7}, {LogIndex: 3}, {LogIndex: 5}},
	}}
	p := New(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.LogsOfTransaction(context.Background(), tx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	logs, err := p.LogsOfTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 5, 7}, []uint64{logs[0].LogIndex, logs[1].LogIndex, logs[2].LogIndex})
	require.LessOrEqual(t, fetcher.logCalls.Load(), int32(8))
	calls := fetcher.logCalls.Load()

	_, err = p.LogsOfTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, calls, fetcher.logCalls.Load())
}

func TestSenderCached(t *testing.T) {
	fetcher := &countingFetcher{}
	p := New(fetcher)
	tx := common.HexToHash("0x02")

	for i := 0; i < 3; i++ {
		from, err := p.SenderOf(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress("0xf00d"), from)
	}
	require.Equal(t, int32(1), fetcher.txCalls.Load())
}

func TestFailuresAreRetryableAndNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection reset")}
	p := New(fetcher)
	tx := common.HexToHash("0x03")

	_, err := p.LogsOfTransaction(context.Background(), tx)
	require.Error(t, err)
	require.True(t, failure.IsRetryable(err))

	_, err = p.SenderOf(context.Background(), tx)
	require.True(t, failure.IsRetryable(err))

	fetcher.err = nil
	_, err = p.LogsOfTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, int32(2), fetcher.logCalls.Load())
}

func TestBatchesDoNotShareCache(t *testing.T) {
	fetcher := &countingFetcher{}
	tx := common.HexToHash("0x04")

	_, err := New(fetcher).SenderOf(context.Background(), tx)
	require.NoError(t, err)
	_, err = New(fetcher).SenderOf(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, int32(2), fetcher.txCalls.Load())
}
