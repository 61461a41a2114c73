package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"fillScope/internal/engine"
	"fillScope/internal/failure"
	"fillScope/internal/model"
	"fillScope/internal/storage"
)

// LogSource is the chain side of the runner. *chain.Client implements it.
type LogSource interface {
	ChainID() uint64
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Processor turns raw logs into on-chain data. *engine.Engine implements it.
type Processor interface {
	Process(ctx context.Context, logs []model.RawLog) (*engine.Result, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock uint64
	// ToBlock zero means the latest block at start, less Confirmations.
	ToBlock       uint64
	Confirmations uint64
	// Addresses optionally restricts the log filter. Empty means any emitter.
	Addresses    []common.Address
	Topic0       []common.Hash
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Deps are the runner's collaborators. DecodeErrors and Checkpoint are optional.
type Deps struct {
	Source       LogSource
	Processor    Processor
	Sink         storage.Sink
	DecodeErrors storage.DecodeErrorSink
	Checkpoint   Checkpointer
}

// Runner fetches block ranges, processes them and persists the result.
// A range is the unit of retry: it is saved and checkpointed only once it
// was processed completely.
type Runner struct {
	cfg    RunConfig
	deps   Deps
	logger *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, deps Deps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, deps: deps, logger: logger}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.deps.Source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.deps.Processor == nil {
		return fmt.Errorf("processor is nil")
	}
	if r.deps.Sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Topic0) == 0 {
		return fmt.Errorf("at least one topic0 is required")
	}

	retry := newRetryPolicy(r.cfg.MaxRetries, r.cfg.RetryBackoff)

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		err := retry.do(ctx, func(ctx context.Context) error {
			var err error
			to, err = r.deps.Source.LatestBlockNumber(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		head, ok := SafeHead(to, r.cfg.Confirmations)
		if !ok {
			r.logger.Info("chain shorter than confirmations", zap.Uint64("latest", to), zap.Uint64("confirmations", r.cfg.Confirmations))
			return nil
		}
		to = head
	}

	if r.deps.Checkpoint != nil {
		last, ok, err := r.deps.Checkpoint.Load(ctx)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var result *engine.Result
		batchRetry := retry
		batchRetry.onRetry = func(attempt int, delay time.Duration, err error) {
			r.logger.Warn("batch failed",
				zap.Error(err),
				zap.Stringer("range", blockRange),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
			)
		}
		err := batchRetry.do(ctx, func(ctx context.Context) error {
			var err error
			result, err = r.processRange(ctx, blockRange)
			return err
		})
		if err != nil {
			return fmt.Errorf("blocks %s: %w", blockRange, err)
		}

		if r.deps.DecodeErrors != nil && len(result.DecodeErrors) > 0 {
			if err := r.deps.DecodeErrors.PutDecodeErrors(result.DecodeErrors); err != nil {
				return fmt.Errorf("store decode errors: %w", err)
			}
		}

		if r.deps.Checkpoint != nil {
			if err := r.deps.Checkpoint.Save(ctx, blockRange.To); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Uint64("blocks", blockRange.Len()),
			zap.Int("events", result.Events),
			zap.Int("decode_errors", len(result.DecodeErrors)),
			zap.Object("data", result.Data),
		)
	}

	return nil
}

// processRange runs one attempt over a block range: fetch, process, save.
func (r *Runner) processRange(ctx context.Context, blockRange BlockRange) (*engine.Result, error) {
	r.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	logs, err := r.deps.Source.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Addresses, r.cfg.Topic0)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	raw, err := toRawLogs(ctx, r.deps.Source, logs)
	if err != nil {
		return nil, err
	}

	result, err := r.deps.Processor.Process(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("process logs: %w", err)
	}

	if err := r.deps.Sink.SaveOnChainData(ctx, blockRange.From, blockRange.To, result.Data); err != nil {
		return nil, failure.Retryable(fmt.Errorf("save on-chain data: %w", err))
	}
	return result, nil
}
