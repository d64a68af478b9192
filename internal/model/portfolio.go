package model

import "time"

// Holdings maps a symbol to the net quantity currently owned.
type Holdings map[string]float64

// PositionValue is the market value of a single holding.
type PositionValue struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
}

// Valuation is the market value of the whole portfolio. Symbols for which no
// quote was available contribute zero and are listed in Unpriced.
type Valuation struct {
	Total     float64                  `json:"total_value"`
	Positions map[string]PositionValue `json:"positions"`
	Unpriced  []string                 `json:"unpriced,omitempty"`
}

// PortfolioMetrics summarizes all-time performance of the ledger.
//
// Average cost is computed from buy transactions only and is never reduced by
// sells, so UnrealizedGains reconciles current market value against all-time
// invested capital: unrealized = currentValue - invested + realized.
type PortfolioMetrics struct {
	TotalInvested      float64 `json:"total_invested"`
	TotalCurrentValue  float64 `json:"total_current_value"`
	RealizedGains      float64 `json:"realized_gains"`
	UnrealizedGains    float64 `json:"unrealized_gains"`
	TotalReturn        float64 `json:"total_return"`
	TotalReturnPercent float64 `json:"total_return_percent"`
	NumberOfTrades     int     `json:"number_of_trades"`
}

// PositionDetail is the per-symbol drill-down view.
type PositionDetail struct {
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Quantity              float64 `json:"quantity"`
	CurrentPrice          float64 `json:"current_price"`
	AvgCost               float64 `json:"avg_cost"`
	CurrentValue          float64 `json:"current_value"`
	TotalCost             float64 `json:"total_cost"`
	UnrealizedGain        float64 `json:"unrealized_gain"`
	UnrealizedGainPercent float64 `json:"unrealized_gain_percent"`
	DayChange             float64 `json:"day_change"`
	DayChangePercent      float64 `json:"day_change_percent"`
	Sector                string  `json:"sector"`
	MarketCapBand         string  `json:"market_cap_category"`
}

// Performance compares portfolio value now against a past reference point.
type Performance struct {
	CurrentValue  float64 `json:"current_value"`
	PreviousValue float64 `json:"previous_value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Breakdown groups portfolio value by sector, market-cap band and position.
type Breakdown struct {
	BySector    map[string]float64       `json:"by_sector"`
	ByMarketCap map[string]float64       `json:"by_market_cap"`
	ByPosition  map[string]PositionValue `json:"by_position"`
	TotalValue  float64                  `json:"total_value"`
}

// RiskProfile classifies portfolio risk from the breakdown.
type RiskProfile struct {
	ConcentrationRisk   string  `json:"concentration_risk"`
	MaxWeight           float64 `json:"max_weight"`
	Diversification     string  `json:"sector_diversification"`
	NumSectors          int     `json:"num_sectors"`
	PortfolioBeta       float64 `json:"portfolio_beta"`
	BetaRisk            string  `json:"beta_risk"`
	SectorRisk          string  `json:"sector_risk"`
	MaxSectorPercent    float64 `json:"max_sector_percent"`
	SinglePositionRisk  string  `json:"single_position_risk"`
	PortfolioSizeClass  string  `json:"portfolio_size_class"`
	NumPositions        int     `json:"num_positions"`
}

// ValueSnapshot is one point of the historical portfolio value series.
type ValueSnapshot struct {
	Date          time.Time `json:"date"`
	Invested      float64   `json:"invested"`
	MarketValue   float64   `json:"market_value"`
	Return        float64   `json:"return"`
	ReturnPercent float64   `json:"return_pct"`
}
