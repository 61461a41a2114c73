// Package engine runs one processing pass over a batch of raw logs:
// classify, decode and dispatch to the protocol handlers.
//
// Logs of one transaction are handled sequentially in log-index order.
// Different transactions run concurrently on a bounded worker pool, each
// into a private onchain.Data that is merged in transaction order, so the
// result does not depend on scheduling.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"fillScope/internal/events"
	"fillScope/internal/handlers"
	"fillScope/internal/model"
	"fillScope/internal/onchain"
	"fillScope/internal/orders"
	"fillScope/internal/txctx"
)

// Config sizes the worker pool.
type Config struct {
	// Concurrency bounds the transactions processed at once. Zero means NumCPU.
	Concurrency int
}

// Deps are the collaborators shared across passes. The transaction context
// is built per pass from Fetcher.
type Deps struct {
	Registry    *events.Registry
	Fetcher     txctx.Fetcher
	Pools       handlers.Pools
	Prices      handlers.Prices
	Attribution handlers.Attribution
	Orders      orders.Store
}

// Result is the outcome of one pass.
type Result struct {
	Data         *onchain.Data
	DecodeErrors []model.DecodeError
	// Events counts the logs that were classified and decoded.
	Events int
}

type Engine struct {
	deps   Deps
	pool   pond.Pool
	logger *zap.Logger
}

func New(cfg Config, deps Deps, logger *zap.Logger) (*Engine, error) {
	if deps.Registry == nil {
		return nil, errors.New("engine: registry is nil")
	}
	if deps.Fetcher == nil {
		return nil, errors.New("engine: fetcher is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		deps:   deps,
		pool:   pond.NewPool(workers),
		logger: logger,
	}, nil
}

// Close waits for running tasks and releases the worker pool.
func (e *Engine) Close() {
	e.pool.StopAndWait()
}

// txBatch holds the decoded events of one transaction in log-index order.
type txBatch struct {
	hash    common.Hash
	block   uint64
	txIndex uint64
	events  []*model.DecodedEvent
}

// Process handles logs and returns the aggregated records. Decode failures
// are reported in the result; handler errors are transport failures and fail
// the whole pass with the error of the earliest failing transaction.
//
// Once started, a transaction is processed to completion even if ctx is
// cancelled. Transactions not yet started when ctx is cancelled are skipped
// and the pass returns ctx.Err().
func (e *Engine) Process(ctx context.Context, logs []model.RawLog) (*Result, error) {
	result := &Result{Data: onchain.New()}
	batches := e.group(logs, result)
	if len(batches) == 0 {
		return result, nil
	}

	env := &handlers.Env{
		Registry:    e.deps.Registry,
		Tx:          txctx.New(e.deps.Fetcher),
		Pools:       e.deps.Pools,
		Prices:      e.deps.Prices,
		Attribution: e.deps.Attribution,
		Orders:      e.deps.Orders,
		Logger:      e.logger,
	}

	outputs := make([]*onchain.Data, len(batches))
	errs := make([]error, len(batches))
	detached := context.WithoutCancel(ctx)

	group := e.pool.NewGroup()
	for i := range batches {
		batch := batches[i]
		group.Submit(func() {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			outputs[i], errs[i] = e.processTx(detached, env, batch)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("tx %s: %w", batches[i].hash.Hex(), err)
		}
	}
	for _, data := range outputs {
		result.Data.Merge(data)
	}
	return result, nil
}

func (e *Engine) processTx(ctx context.Context, env *handlers.Env, batch *txBatch) (*onchain.Data, error) {
	data := onchain.New()
	for _, event := range batch.events {
		if err := handlers.Handle(ctx, env, event, data); err != nil {
			return nil, fmt.Errorf("%s log %d: %w", event.SubKind, event.Base.LogIndex, err)
		}
	}
	return data, nil
}

type logKey struct {
	tx       common.Hash
	logIndex uint64
}

// group classifies and decodes logs and buckets them per transaction.
// Removed logs, duplicates and unclassified logs are dropped.
func (e *Engine) group(logs []model.RawLog, result *Result) []*txBatch {
	seen := make(map[logKey]struct{}, len(logs))
	byTx := make(map[common.Hash]*txBatch)

	for _, log := range logs {
		if log.Removed {
			continue
		}
		key := logKey{tx: log.TxHash, logIndex: log.LogIndex}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		def, ok := e.deps.Registry.Classify(log.Address, log.Topic0())
		if !ok {
			continue
		}
		event, err := events.Decode(log, def)
		if err != nil {
			e.logger.Debug("decode failed",
				zap.String("sub_kind", string(def.SubKind)),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint64("log_index", log.LogIndex),
				zap.Error(err),
			)
			result.DecodeErrors = append(result.DecodeErrors, model.NewDecodeError(log, def.SubKind, err))
			continue
		}
		result.Events++

		batch, ok := byTx[log.TxHash]
		if !ok {
			batch = &txBatch{hash: log.TxHash, block: log.BlockNumber, txIndex: log.TxIndex}
			byTx[log.TxHash] = batch
		}
		batch.events = append(batch.events, event)
	}

	batches := make([]*txBatch, 0, len(byTx))
	for _, batch := range byTx {
		sort.Slice(batch.events, func(i, j int) bool {
			return batch.events[i].Base.LogIndex < batch.events[j].Base.LogIndex
		})
		batches = append(batches, batch)
	}
	sort.Slice(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if a.block != b.block {
			return a.block < b.block
		}
		if a.txIndex != b.txIndex {
			return a.txIndex < b.txIndex
		}
		return a.hash.Cmp(b.hash) < 0
	})
	return batches
}
