package model

import "time"

// StockInfo is a read-only snapshot of company and quote data supplied by the
// market data source. The core never mutates it.
type StockInfo struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	Industry         string  `json:"industry"`
	MarketCap        float64 `json:"market_cap"`
	Price            float64 `json:"price"`
	PreviousClose    float64 `json:"previous_close"`
	DayChange        float64 `json:"day_change"`
	DayChangePercent float64 `json:"day_change_percent"`
	Volume           float64 `json:"volume"`
	AvgVolume        float64 `json:"avg_volume"`
	High52w          float64 `json:"52_week_high"`
	Low52w           float64 `json:"52_week_low"`
	PERatio          float64 `json:"pe_ratio"`
	DividendYield    float64 `json:"dividend_yield"`
	Beta             float64 `json:"beta"`
	Currency         string  `json:"currency"`
	Country          string  `json:"country"`
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndexQuote is a major market index snapshot.
type IndexQuote struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"current"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}
