// Package txctx provides the sibling logs and sender of a transaction, cached
// for the lifetime of one batch.
package txctx

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

// Fetcher loads transaction data from the chain.
type Fetcher interface {
	TransactionLogs(ctx context.Context, txHash common.Hash) ([]model.RawLog, error)
	Transaction(ctx context.Context, txHash common.Hash) (model.TxInfo, error)
}

// Provider caches fetcher results per transaction hash. Create one per batch
// and drop it afterwards; entries are never invalidated.
type Provider struct {
	fetcher Fetcher

	logs  *xsync.Map[common.Hash, []model.RawLog]
	txs   *xsync.Map[common.Hash, model.TxInfo]
	group singleflight.Group
}

func New(fetcher Fetcher) *Provider {
	return &Provider{
		fetcher: fetcher,
		logs:    xsync.NewMap[common.Hash, []model.RawLog](),
		txs:     xsync.NewMap[common.Hash, model.TxInfo](),
	}
}

// LogsOfTransaction returns the logs of txHash ordered by log index.
// The returned slice is shared; callers must not modify it.
func (p *Provider) LogsOfTransaction(ctx context.Context, txHash common.Hash) ([]model.RawLog, error) {
	if logs, ok := p.logs.Load(txHash); ok {
		return logs, nil
	}

	v, err, _ := p.group.Do("logs:"+txHash.Hex(), func() (interface{}, error) {
		if logs, ok := p.logs.Load(txHash); ok {
			return logs, nil
		}
		logs, err := p.fetcher.TransactionLogs(ctx, txHash)
		if err != nil {
			return nil, err
		}
		sortByLogIndex(logs)
		p.logs.Store(txHash, logs)
		return logs, nil
	})
	if err != nil {
		return nil, failure.Retryable(fmt.Errorf("transaction logs: %w", err))
	}
	return v.([]model.RawLog), nil
}

// Transaction returns sender and recipient of txHash.
func (p *Provider) Transaction(ctx context.Context, txHash common.Hash) (model.TxInfo, error) {
	if tx, ok := p.txs.Load(txHash); ok {
		return tx, nil
	}

	v, err, _ := p.group.Do("tx:"+txHash.Hex(), func() (interface{}, error) {
		if tx, ok := p.txs.Load(txHash); ok {
			return tx, nil
		}
		tx, err := p.fetcher.Transaction(ctx, txHash)
		if err != nil {
			return nil, err
		}
		p.txs.Store(txHash, tx)
		return tx, nil
	})
	if err != nil {
		return model.TxInfo{}, failure.Retryable(fmt.Errorf("transaction: %w", err))
	}
	return v.(model.TxInfo), nil
}

// SenderOf returns the externally owned account that sent txHash.
func (p *Provider) SenderOf(ctx context.Context, txHash common.Hash) (common.Address, error) {
	tx, err := p.Transaction(ctx, txHash)
	if err != nil {
		return common.Address{}, err
	}
	return tx.From, nil
}

func sortByLogIndex(logs []model.RawLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].LogIndex < logs[j].LogIndex
	})
}
