package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"fillScope/internal/model"
)

// seedOrders writes order snapshots. In production the orders table is
// maintained by the order book service.
func seedOrders(t *testing.T, s *Store, stored ...model.StoredOrder) {
	t.Helper()
	for _, order := range stored {
		_, err := s.pool.Exec(context.Background(), `
			INSERT INTO orders (id, currency, price, updated_at)
			VALUES ($1, $2, $3::numeric, $4)
			ON CONFLICT (id) DO UPDATE SET
				currency = EXCLUDED.currency,
				price = EXCLUDED.price,
				updated_at = EXCLUDED.updated_at
		`, order.ID, hexAddr(order.Currency), order.Price, int64(order.UpdatedAt))
		require.NoError(t, err)
	}
}

// seedUSDPrice records the USD price of currency, in 6 decimals, from timestamp on.
func seedUSDPrice(t *testing.T, s *Store, currency common.Address, timestamp uint64, price *big.Int) {
	t.Helper()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO usd_prices (currency, timestamp, price)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (currency, timestamp) DO UPDATE SET price = EXCLUDED.price
	`, hexAddr(currency), int64(timestamp), price.String())
	require.NoError(t, err)
}
