// Package portfolio computes valuation, cost basis and performance metrics
// from holdings and the transaction ledger.
package portfolio

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

// Service combines holdings and ledger data with live quotes.
type Service struct {
	quotes quotes.Source
	log    zerolog.Logger
}

// NewService creates a portfolio service.
func NewService(src quotes.Source, log zerolog.Logger) *Service {
	return &Service{
		quotes: src,
		log:    log.With().Str("module", "portfolio").Logger(),
	}
}

// Value prices every holding at the live quote. A symbol without a quote
// contributes zero to the total and is flagged unpriced instead of aborting
// the whole computation.
func (s *Service) Value(holdings model.Holdings) model.Valuation {
	valuation := model.Valuation{
		Positions: make(map[string]model.PositionValue, len(holdings)),
	}

	for _, symbol := range sortedSymbols(holdings) {
		quantity := holdings[symbol]
		price, err := s.quotes.GetPrice(symbol)
		if err != nil || price <= 0 {
			if err != nil && !errors.Is(err, quotes.ErrUnavailable) {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("price lookup failed")
			}
			valuation.Unpriced = append(valuation.Unpriced, symbol)
			continue
		}
		value := price * quantity
		valuation.Positions[symbol] = model.PositionValue{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Value:    value,
		}
		valuation.Total += value
	}
	return valuation
}

// ValuePosition prices a single holding.
func (s *Service) ValuePosition(symbol string, quantity float64) (float64, error) {
	price, err := s.quotes.GetPrice(symbol)
	if err != nil {
		return 0, err
	}
	return price * quantity, nil
}

// Performance compares the portfolio value now against its value one period
// ago, using daily history bars. Returns nil when no position has enough
// history to compare.
func (s *Service) Performance(holdings model.Holdings, period quotes.Period) *model.Performance {
	daysBack := period.Days()
	var current, previous float64

	for _, symbol := range sortedSymbols(holdings) {
		quantity := holdings[symbol]
		// Extra days cover market closures at the window edge.
		bars, err := s.quotes.GetHistory(symbol, daysBack+5)
		if err != nil {
			if !errors.Is(err, quotes.ErrUnavailable) {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("history lookup failed")
			}
			continue
		}
		if len(bars) < 2 {
			continue
		}
		currentPrice := bars[len(bars)-1].Close
		var previousPrice float64
		if len(bars) > daysBack {
			previousPrice = bars[len(bars)-1-daysBack].Close
		} else {
			previousPrice = bars[0].Close
		}
		current += currentPrice * quantity
		previous += previousPrice * quantity
	}

	if previous <= 0 {
		return nil
	}
	change := current - previous
	return &model.Performance{
		CurrentValue:  current,
		PreviousValue: previous,
		Change:        change,
		ChangePercent: change / previous * 100,
	}
}

func sortedSymbols(holdings model.Holdings) []string {
	symbols := make([]string, 0, len(holdings))
	for symbol := range holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
