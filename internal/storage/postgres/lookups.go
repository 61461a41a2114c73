package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"fillScope/internal/model"
	"fillScope/internal/orders"
	"fillScope/internal/pools"
	"fillScope/internal/pricing"
	"fillScope/internal/storage"
)

var (
	_ storage.Sink           = (*Store)(nil)
	_ orders.Store           = (*Store)(nil)
	_ pools.Layer            = (*Store)(nil)
	_ pricing.USDPriceSource = (*Store)(nil)
)

// OrdersByIDs returns the stored orders among ids. Missing ids are omitted.
func (s *Store) OrdersByIDs(ctx context.Context, ids []string) ([]model.StoredOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, currency, price::text, updated_at FROM orders WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []model.StoredOrder
	for rows.Next() {
		var (
			order     model.StoredOrder
			currency  string
			updatedAt int64
		)
		if err := rows.Scan(&order.ID, &currency, &order.Price, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Currency = common.HexToAddress(currency)
		order.UpdatedAt = uint64(updatedAt)
		out = append(out, order)
	}
	return out, rows.Err()
}

// USDPrice returns the latest USD price of currency at or before timestamp.
func (s *Store) USDPrice(ctx context.Context, currency common.Address, timestamp uint64) (*big.Int, bool, error) {
	var price string
	row := s.pool.QueryRow(ctx, `
		SELECT price::text FROM usd_prices
		WHERE currency = $1 AND timestamp <= $2
		ORDER BY timestamp DESC
		LIMIT 1
	`, hexAddr(currency), int64(timestamp))
	if err := row.Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query usd price: %w", err)
	}
	value, err := parseNumeric("usd_prices.price", price)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) LoadNftPool(ctx context.Context, address common.Address) (model.NftPool, bool, error) {
	var nft, vaultID string
	row := s.pool.QueryRow(ctx, `SELECT nft, vault_id::text FROM nft_pools WHERE address = $1`, hexAddr(address))
	if err := row.Scan(&nft, &vaultID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NftPool{}, false, nil
		}
		return model.NftPool{}, false, err
	}
	id, err := parseNumeric("nft_pools.vault_id", vaultID)
	if err != nil {
		return model.NftPool{}, false, err
	}
	return model.NftPool{Address: address, Nft: common.HexToAddress(nft), VaultID: id}, true, nil
}

func (s *Store) SaveNftPool(ctx context.Context, pool model.NftPool) error {
	vaultID := "0"
	if pool.VaultID != nil {
		vaultID = pool.VaultID.String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO nft_pools (address, nft, vault_id) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (address) DO NOTHING
	`, hexAddr(pool.Address), hexAddr(pool.Nft), vaultID)
	return err
}

func (s *Store) LoadFtPool(ctx context.Context, address common.Address) (model.FtPool, bool, error) {
	var token0, token1 string
	row := s.pool.QueryRow(ctx, `SELECT token0, token1 FROM ft_pools WHERE address = $1`, hexAddr(address))
	if err := row.Scan(&token0, &token1); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.FtPool{}, false, nil
		}
		return model.FtPool{}, false, err
	}
	return model.FtPool{Address: address, Token0: common.HexToAddress(token0), Token1: common.HexToAddress(token1)}, true, nil
}

func (s *Store) SaveFtPool(ctx context.Context, pool model.FtPool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ft_pools (address, token0, token1) VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING
	`, hexAddr(pool.Address), hexAddr(pool.Token0), hexAddr(pool.Token1))
	return err
}
