// Package analytics produces allocation breakdowns and risk classifications
// from holdings and company metadata.
package analytics

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

// Market-cap band thresholds in USD.
const (
	megaCapFloor  = 200_000_000_000
	largeCapFloor = 10_000_000_000
	midCapFloor   = 2_000_000_000
	smallCapFloor = 300_000_000
	microCapFloor = 50_000_000
)

// CapBand classifies a company by market capitalization.
func CapBand(marketCap float64) string {
	switch {
	case marketCap >= megaCapFloor:
		return "Mega Cap"
	case marketCap >= largeCapFloor:
		return "Large Cap"
	case marketCap >= midCapFloor:
		return "Mid Cap"
	case marketCap >= smallCapFloor:
		return "Small Cap"
	case marketCap >= microCapFloor:
		return "Micro Cap"
	default:
		return "Nano Cap"
	}
}

// Service computes portfolio analytics from live quotes and company info.
type Service struct {
	quotes quotes.Source
	log    zerolog.Logger
}

// NewService creates an analytics service.
func NewService(src quotes.Source, log zerolog.Logger) *Service {
	return &Service{
		quotes: src,
		log:    log.With().Str("module", "analytics").Logger(),
	}
}

// Breakdown groups the portfolio's market value by sector, market-cap band
// and position. Weights are assigned in a second pass, once the total is
// known. Positions whose quote or info is unavailable are skipped.
func (s *Service) Breakdown(holdings model.Holdings) model.Breakdown {
	breakdown := model.Breakdown{
		BySector:    make(map[string]float64),
		ByMarketCap: make(map[string]float64),
		ByPosition:  make(map[string]model.PositionValue),
	}

	symbols := make([]string, 0, len(holdings))
	for symbol := range holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		quantity := holdings[symbol]
		info, err := s.quotes.GetInfo(symbol)
		if err != nil {
			s.warnSkip(symbol, err)
			continue
		}
		price, err := s.quotes.GetPrice(symbol)
		if err != nil || price <= 0 {
			s.warnSkip(symbol, err)
			continue
		}

		value := price * quantity
		breakdown.TotalValue += value

		sector := info.Sector
		if sector == "" {
			sector = "Unknown"
		}
		breakdown.BySector[sector] += value
		breakdown.ByMarketCap[CapBand(info.MarketCap)] += value
		breakdown.ByPosition[symbol] = model.PositionValue{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Value:    value,
		}
	}

	if breakdown.TotalValue > 0 {
		for symbol, position := range breakdown.ByPosition {
			position.Weight = position.Value / breakdown.TotalValue * 100
			breakdown.ByPosition[symbol] = position
		}
	}
	return breakdown
}

func (s *Service) warnSkip(symbol string, err error) {
	if err != nil && !errors.Is(err, quotes.ErrUnavailable) {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("skipping position in breakdown")
	}
}
