// Package quotes provides market data access for prices, company info and
// price history. Implementations must distinguish "no data for this symbol"
// (ErrUnavailable) from transport or decoding faults, so callers can skip
// silently in the first case and surface the second.
package quotes

import (
	"errors"

	"stockwatch/internal/model"
)

// ErrUnavailable signals that the source has no data for the requested
// symbol. Callers treat it as transient and skip the item.
var ErrUnavailable = errors.New("quote data unavailable")

// Source defines the interface for fetching market data.
type Source interface {
	// GetPrice returns the latest trade price for a symbol.
	GetPrice(symbol string) (float64, error)
	// GetInfo returns a company and quote snapshot for a symbol.
	GetInfo(symbol string) (*model.StockInfo, error)
	// GetHistory returns up to days daily bars, oldest first.
	GetHistory(symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// Period is a named lookback window for performance comparisons.
type Period string

const (
	Period1D Period = "1d"
	Period1W Period = "1w"
	Period1M Period = "1m"
	Period3M Period = "3m"
	Period1Y Period = "1y"
)

// Days returns the number of calendar days the period spans. Unknown periods
// fall back to one day.
func (p Period) Days() int {
	switch p {
	case Period1D:
		return 1
	case Period1W:
		return 7
	case Period1M:
		return 30
	case Period3M:
		return 90
	case Period1Y:
		return 365
	default:
		return 1
	}
}
