// Package storage defines the persistence sinks of the indexer.
package storage

import (
	"context"

	"fillScope/internal/model"
	"fillScope/internal/onchain"
)

// Sink persists the records produced for one block range. Saving the same
// range twice must be harmless: records carry natural keys.
type Sink interface {
	SaveOnChainData(ctx context.Context, fromBlock, toBlock uint64, data *onchain.Data) error
}

// DecodeErrorSink receives diagnostics for logs that failed to decode.
type DecodeErrorSink interface {
	PutDecodeErrors(errs []model.DecodeError) error
}
