package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"

	"fillScope/internal/chain"
	"fillScope/internal/model"
)

// toRawLogs converts fetched logs, stamping each with its block timestamp.
func toRawLogs(ctx context.Context, source LogSource, logs []types.Log) ([]model.RawLog, error) {
	chainID := source.ChainID()
	timestamps := make(map[uint64]uint64)
	out := make([]model.RawLog, 0, len(logs))
	for _, log := range logs {
		ts, ok := timestamps[log.BlockNumber]
		if !ok {
			var err error
			ts, err = source.BlockTimestamp(ctx, log.BlockNumber)
			if err != nil {
				return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			timestamps[log.BlockNumber] = ts
		}
		out = append(out, chain.FromTypesLog(chainID, log, ts))
	}
	return out, nil
}
