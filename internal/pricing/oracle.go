// Package pricing converts currency amounts into USD and native-unit prices.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fillScope/internal/failure"
	"fillScope/internal/tokens"
)

// USDDecimals is the fixed precision of every USD amount.
const USDDecimals = 6

const nativeDecimals = 18

// NativeCurrency is the key under which the chain's native coin is priced.
var NativeCurrency = common.Address{}

// USDPriceSource returns the USD price of one whole unit of currency at or
// before timestamp, scaled by 10^USDDecimals. ok is false when no price is known.
type USDPriceSource interface {
	USDPrice(ctx context.Context, currency common.Address, timestamp uint64) (price *big.Int, ok bool, err error)
}

// Decimals resolves currency decimals. *tokens.Cache implements it.
type Decimals interface {
	Get(ctx context.Context, token common.Address) (tokens.Meta, error)
}

// Prices is the outcome of a conversion. A nil field is unresolved; callers
// must not emit a fill without Native.
type Prices struct {
	USD    *big.Int
	Native *big.Int
}

// HasNative reports whether a native-unit price was resolved.
func (p Prices) HasNative() bool {
	return p.Native != nil
}

// Config lists the currencies that are priced 1:1 with the native coin.
type Config struct {
	WrappedNative common.Address
}

// Oracle implements getUSDAndNativePrices.
type Oracle struct {
	cfg      Config
	source   USDPriceSource
	decimals Decimals
	logger   *zap.Logger
}

func NewOracle(cfg Config, source USDPriceSource, decimals Decimals, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{cfg: cfg, source: source, decimals: decimals, logger: logger}
}

// IsNative reports whether currency is the native coin or its wrapped form.
func (o *Oracle) IsNative(currency common.Address) bool {
	if currency == NativeCurrency {
		return true
	}
	return o.cfg.WrappedNative != (common.Address{}) && currency == o.cfg.WrappedNative
}

// USDAndNativePrices prices amount units of currency at timestamp. Missing
// price data yields empty fields, not an error; errors are transport failures.
func (o *Oracle) USDAndNativePrices(ctx context.Context, currency common.Address, amount *big.Int, timestamp uint64) (Prices, error) {
	if amount == nil || amount.Sign() < 0 {
		return Prices{}, fmt.Errorf("invalid amount %v", amount)
	}

	nativeUSD, nativeOK, err := o.usdPrice(ctx, NativeCurrency, timestamp)
	if err != nil {
		return Prices{}, err
	}

	if o.IsNative(currency) {
		prices := Prices{Native: new(big.Int).Set(amount)}
		if nativeOK {
			prices.USD = toUSD(amount, nativeUSD, nativeDecimals)
		}
		return prices, nil
	}

	currencyUSD, ok, err := o.usdPrice(ctx, currency, timestamp)
	if err != nil {
		return Prices{}, err
	}
	if !ok {
		o.logger.Debug("missing usd price", zap.String("currency", currency.Hex()), zap.Uint64("timestamp", timestamp))
		return Prices{}, nil
	}

	meta, err := o.decimals.Get(ctx, currency)
	if err != nil {
		if errors.Is(err, failure.ErrNotFound) {
			o.logger.Debug("currency without decimals", zap.String("currency", currency.Hex()), zap.Error(err))
			return Prices{}, nil
		}
		return Prices{}, err
	}

	prices := Prices{USD: toUSD(amount, currencyUSD, int32(meta.Decimals))}
	if nativeOK && nativeUSD.Sign() > 0 {
		prices.Native = toNative(amount, currencyUSD, int32(meta.Decimals), nativeUSD)
	}
	return prices, nil
}

func (o *Oracle) usdPrice(ctx context.Context, currency common.Address, timestamp uint64) (*big.Int, bool, error) {
	if o.source == nil {
		return nil, false, nil
	}
	price, ok, err := o.source.USDPrice(ctx, currency, timestamp)
	if err != nil {
		return nil, false, failure.Retryable(fmt.Errorf("usd price %s: %w", currency.Hex(), err))
	}
	return price, ok && price != nil, nil
}

// toUSD returns amount * unitUSD / 10^decimals, truncated.
func toUSD(amount, unitUSD *big.Int, decimals int32) *big.Int {
	value := decimal.NewFromBigInt(amount, 0).
		Mul(decimal.NewFromBigInt(unitUSD, 0)).
		Shift(-decimals)
	return value.Truncate(0).BigInt()
}

// toNative returns amount * currencyUSD * 10^18 / (10^decimals * nativeUSD), truncated.
func toNative(amount, currencyUSD *big.Int, decimals int32, nativeUSD *big.Int) *big.Int {
	numerator := decimal.NewFromBigInt(amount, 0).
		Mul(decimal.NewFromBigInt(currencyUSD, 0)).
		Shift(nativeDecimals)
	denominator := decimal.NewFromBigInt(nativeUSD, 0).Shift(decimals)
	quotient, _ := numerator.QuoRem(denominator, 0)
	return quotient.BigInt()
}
