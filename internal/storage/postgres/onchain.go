package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fillScope/internal/model"
	"fillScope/internal/onchain"
)

// SaveOnChainData applies a batch in one transaction. Order events, fill
// infos and order triggers keep the first write; fill events are replaced,
// so reprocessing a range converges on the latest computation.
func (s *Store) SaveOnChainData(ctx context.Context, _, _ uint64, data *onchain.Data) error {
	if data == nil || data.Empty() {
		return nil
	}

	batch := &pgx.Batch{}
	for _, order := range data.Orders() {
		if err := queueOrderEvent(batch, order); err != nil {
			return err
		}
	}
	for _, fill := range data.FillEventsPartial() {
		queueFillEvent(batch, fill, true)
	}
	for _, fill := range data.FillEventsOnChain() {
		queueFillEvent(batch, fill, false)
	}
	for _, info := range data.FillInfos() {
		queueFillInfo(batch, info)
	}
	for _, info := range data.OrderInfos() {
		queueOrderTrigger(batch, info)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("apply on-chain data: %w", err)
			}
		}
		return br.Close()
	})
}

func queueOrderEvent(batch *pgx.Batch, order model.NormalizedOrderEvent) error {
	var metadata []byte
	if len(order.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(order.Metadata)
		if err != nil {
			return fmt.Errorf("marshal order metadata: %w", err)
		}
	}
	batch.Queue(`
		INSERT INTO order_events (
			kind, order_id, pool_address, tx_hash, tx_timestamp, tx_block, log_index, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind, pool_address, tx_hash, log_index) DO NOTHING
	`,
		string(order.Kind),
		order.OrderID,
		hexAddr(order.PoolAddress),
		order.TxHash.Hex(),
		int64(order.TxTimestamp),
		int64(order.TxBlock),
		int64(order.LogIndex),
		metadata,
	)
	return nil
}

func queueFillEvent(batch *pgx.Batch, fill model.FillEvent, partial bool) {
	batch.Queue(`
		INSERT INTO fill_events (
			tx_hash, log_index, batch_index, is_partial, order_kind, order_side, order_id,
			maker, taker, price, currency_price, usd_price, currency, contract, token_id, amount,
			order_source, aggregator_source, fill_source, address, block, block_hash, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11::numeric, $12::numeric, $13, $14,
			$15::numeric, $16::numeric, $17, $18, $19, $20, $21, $22, $23
		)
		ON CONFLICT (tx_hash, log_index, batch_index)
		DO UPDATE SET
			is_partial = EXCLUDED.is_partial,
			order_kind = EXCLUDED.order_kind,
			order_side = EXCLUDED.order_side,
			order_id = EXCLUDED.order_id,
			maker = EXCLUDED.maker,
			taker = EXCLUDED.taker,
			price = EXCLUDED.price,
			currency_price = EXCLUDED.currency_price,
			usd_price = EXCLUDED.usd_price,
			currency = EXCLUDED.currency,
			contract = EXCLUDED.contract,
			token_id = EXCLUDED.token_id,
			amount = EXCLUDED.amount,
			order_source = EXCLUDED.order_source,
			aggregator_source = EXCLUDED.aggregator_source,
			fill_source = EXCLUDED.fill_source,
			updated_at = now()
	`,
		fill.Base.TxHash.Hex(),
		int64(fill.Base.LogIndex),
		int64(fill.Base.BatchIndex),
		partial,
		string(fill.OrderKind),
		string(fill.OrderSide),
		fill.OrderID,
		hexAddr(fill.Maker),
		hexAddr(fill.Taker),
		fill.Price,
		fill.CurrencyPrice,
		nullable(fill.USDPrice),
		hexAddr(fill.Currency),
		hexAddr(fill.Contract),
		fill.TokenID,
		fill.Amount,
		nullable(fill.Attribution.OrderSource),
		nullable(fill.Attribution.AggregatorSource),
		nullable(fill.Attribution.FillSource),
		hexAddr(fill.Base.Address),
		int64(fill.Base.Block),
		fill.Base.BlockHash.Hex(),
		int64(fill.Base.Timestamp),
	)
}

func queueFillInfo(batch *pgx.Batch, info model.FillInfo) {
	batch.Queue(`
		INSERT INTO fill_infos (
			context, order_id, order_side, contract, token_id, amount, price, timestamp, maker, taker
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10)
		ON CONFLICT (context) DO NOTHING
	`,
		info.Context,
		nullable(info.OrderID),
		string(info.OrderSide),
		hexAddr(info.Contract),
		info.TokenID,
		info.Amount,
		info.Price,
		int64(info.Timestamp),
		hexAddr(info.Maker),
		hexAddr(info.Taker),
	)
}

func queueOrderTrigger(batch *pgx.Batch, info model.OrderInfo) {
	batch.Queue(`
		INSERT INTO order_triggers (context, order_id, kind, tx_hash, tx_timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (context) DO NOTHING
	`,
		info.Context,
		info.ID,
		info.Trigger.Kind,
		info.Trigger.TxHash.Hex(),
		int64(info.Trigger.TxTimestamp),
	)
}
