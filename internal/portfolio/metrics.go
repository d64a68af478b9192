package portfolio

import (
	"errors"
	"fmt"

	"stockwatch/internal/analytics"
	"stockwatch/internal/model"
)

// ErrNotHeld is returned by PositionDetail for symbols absent from holdings.
var ErrNotHeld = errors.New("position not held")

// Metrics computes all-time portfolio performance from the ledger and the
// current market value of holdings.
//
// Average cost per symbol is computed from buy transactions only and is not
// reduced by sells; realized gains on each sell are measured against that
// blended buy average. Unrealized gains then follow from the identity
// unrealized = currentValue - invested + realized.
func (s *Service) Metrics(holdings model.Holdings, transactions []model.Transaction) model.PortfolioMetrics {
	metrics := model.PortfolioMetrics{NumberOfTrades: len(transactions)}
	if len(transactions) == 0 {
		return metrics
	}

	type buyTotals struct {
		shares float64
		cost   float64
	}
	buys := make(map[string]buyTotals)

	for _, tx := range transactions {
		if tx.Kind != model.Buy {
			continue
		}
		metrics.TotalInvested += tx.Total
		b := buys[tx.Symbol]
		b.shares += tx.Quantity
		b.cost += tx.Total
		buys[tx.Symbol] = b
	}

	for _, tx := range transactions {
		if tx.Kind != model.Sell {
			continue
		}
		b, ok := buys[tx.Symbol]
		if !ok || b.shares <= 0 {
			// Sells without visible buys: data-integrity edge case, skip.
			s.log.Warn().Str("symbol", tx.Symbol).Msg("sell without matching buys, skipping realized gain")
			continue
		}
		avgCost := b.cost / b.shares
		metrics.RealizedGains += (tx.Price - avgCost) * tx.Quantity
	}

	metrics.TotalCurrentValue = s.Value(holdings).Total
	metrics.UnrealizedGains = metrics.TotalCurrentValue - metrics.TotalInvested + metrics.RealizedGains
	metrics.TotalReturn = metrics.RealizedGains + metrics.UnrealizedGains
	if metrics.TotalInvested > 0 {
		metrics.TotalReturnPercent = metrics.TotalReturn / metrics.TotalInvested * 100
	}
	return metrics
}

// PositionDetail builds the drill-down view for a single held symbol.
func (s *Service) PositionDetail(symbol string, holdings model.Holdings, transactions []model.Transaction) (*model.PositionDetail, error) {
	symbol = model.NormalizeSymbol(symbol)
	quantity, held := holdings[symbol]
	if !held {
		return nil, ErrNotHeld
	}

	price, err := s.quotes.GetPrice(symbol)
	if err != nil {
		return nil, fmt.Errorf("price for %s: %w", symbol, err)
	}
	info, err := s.quotes.GetInfo(symbol)
	if err != nil {
		return nil, fmt.Errorf("info for %s: %w", symbol, err)
	}

	var boughtShares, boughtCost float64
	for _, tx := range transactions {
		if tx.Symbol == symbol && tx.Kind == model.Buy {
			boughtShares += tx.Quantity
			boughtCost += tx.Total
		}
	}
	var avgCost float64
	if boughtShares > 0 {
		avgCost = boughtCost / boughtShares
	}

	detail := &model.PositionDetail{
		Symbol:           symbol,
		Name:             info.Name,
		Quantity:         quantity,
		CurrentPrice:     price,
		AvgCost:          avgCost,
		CurrentValue:     price * quantity,
		DayChange:        info.DayChange,
		DayChangePercent: info.DayChangePercent,
		Sector:           info.Sector,
		MarketCapBand:    analytics.CapBand(info.MarketCap),
	}
	if avgCost > 0 {
		detail.TotalCost = avgCost * quantity
		detail.UnrealizedGain = (price - avgCost) * quantity
		detail.UnrealizedGainPercent = (price - avgCost) / avgCost * 100
	}
	return detail, nil
}
