package pricing

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type pricePoint struct {
	timestamp uint64
	price     *big.Int
}

// StaticSource is an in-memory USDPriceSource for offline runs and tests.
type StaticSource struct {
	mu     sync.RWMutex
	points map[common.Address][]pricePoint
}

func NewStaticSource() *StaticSource {
	return &StaticSource{points: make(map[common.Address][]pricePoint)}
}

// Set records the USD price of currency from timestamp on.
func (s *StaticSource) Set(currency common.Address, timestamp uint64, price *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := append(s.points[currency], pricePoint{timestamp: timestamp, price: new(big.Int).Set(price)})
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].timestamp < points[j].timestamp
	})
	s.points[currency] = points
}

// USDPrice returns the latest price recorded at or before timestamp.
func (s *StaticSource) USDPrice(_ context.Context, currency common.Address, timestamp uint64) (*big.Int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.points[currency]
	i := sort.Search(len(points), func(i int) bool {
		return points[i].timestamp > timestamp
	})
	if i == 0 {
		return nil, false, nil
	}
	return new(big.Int).Set(points[i-1].price), true, nil
}
