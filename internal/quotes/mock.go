package quotes

import (
	"time"

	"stockwatch/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Prices  map[string]float64
	Infos   map[string]*model.StockInfo
	History map[string][]model.OHLCV

	// Err, when set, is returned by every lookup to simulate a source fault.
	Err error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) GetPrice(symbol string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return 0, ErrUnavailable
	}
	return price, nil
}

func (m *MockSource) GetInfo(symbol string) (*model.StockInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	info, ok := m.Infos[symbol]
	if !ok {
		return nil, ErrUnavailable
	}
	return info, nil
}

func (m *MockSource) GetHistory(symbol string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.History[symbol]; ok {
		if len(bars) > days {
			bars = bars[len(bars)-days:]
		}
		return bars, nil
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return nil, ErrUnavailable
	}
	return GenerateBars(price, days), nil
}

// GenerateBars produces a synthetic flat-ish daily series ending today.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
