package history

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// flatHistory builds bars ending today with a constant close.
func flatHistory(days int, close float64) []model.OHLCV {
	bars := make([]model.OHLCV, days)
	for i := 0; i < days; i++ {
		bars[i] = model.OHLCV{
			Time:  time.Now().AddDate(0, 0, -(days - 1 - i)),
			Close: close,
		}
	}
	return bars
}

func TestBuild_SellReducesInvestedAtAverageCost(t *testing.T) {
	now := time.Now()
	src := &quotes.MockSource{History: map[string][]model.OHLCV{
		"AAPL": flatHistory(30, 10),
	}}
	builder := NewBuilder(src, zerolog.Nop())

	transactions := []model.Transaction{
		model.NewTransaction("AAPL", model.Buy, 10, 10, now.AddDate(0, 0, -3)),
		model.NewTransaction("AAPL", model.Sell, 5, 12, now.AddDate(0, 0, -1)),
	}

	series, err := builder.Build(context.Background(), transactions, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 4 {
		t.Fatalf("expected 4 daily snapshots, got %d", len(series))
	}

	first := series[0]
	if !approx(first.Invested, 100) {
		t.Errorf("day 0 invested: expected 100, got %g", first.Invested)
	}
	if !approx(first.MarketValue, 100) {
		t.Errorf("day 0 market value: expected 100, got %g", first.MarketValue)
	}

	// After selling 5 shares at avg cost 10, half the capital is withdrawn.
	last := series[len(series)-1]
	if !approx(last.Invested, 50) {
		t.Errorf("final invested: expected 50, got %g", last.Invested)
	}
	if !approx(last.MarketValue, 50) {
		t.Errorf("final market value: expected 50, got %g", last.MarketValue)
	}
	if !approx(last.Return, 0) {
		t.Errorf("flat prices should yield zero return, got %g", last.Return)
	}
}

func TestBuild_EmptyLedger(t *testing.T) {
	builder := NewBuilder(&quotes.MockSource{}, zerolog.Nop())
	series, err := builder.Build(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series != nil {
		t.Errorf("expected no series for empty ledger, got %d points", len(series))
	}
}

func TestBuild_Cancellation(t *testing.T) {
	src := &quotes.MockSource{History: map[string][]model.OHLCV{
		"AAPL": flatHistory(30, 10),
	}}
	builder := NewBuilder(src, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transactions := []model.Transaction{
		model.NewTransaction("AAPL", model.Buy, 1, 10, time.Now().AddDate(0, 0, -5)),
	}
	if _, err := builder.Build(ctx, transactions, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuild_ReportsProgress(t *testing.T) {
	src := &quotes.MockSource{History: map[string][]model.OHLCV{
		"AAPL": flatHistory(30, 10),
	}}
	builder := NewBuilder(src, zerolog.Nop())

	transactions := []model.Transaction{
		model.NewTransaction("AAPL", model.Buy, 1, 10, time.Now().AddDate(0, 0, -2)),
	}

	var calls, lastDone, lastTotal int
	_, err := builder.Build(context.Background(), transactions, func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
	if lastDone != lastTotal {
		t.Errorf("final progress must be complete: %d/%d", lastDone, lastTotal)
	}
}

func TestBuild_UnavailableHistoryLeavesSymbolUnpriced(t *testing.T) {
	src := &quotes.MockSource{History: map[string][]model.OHLCV{
		"AAPL": flatHistory(30, 10),
		// GHOST has no history at all
	}}
	builder := NewBuilder(src, zerolog.Nop())

	now := time.Now()
	transactions := []model.Transaction{
		model.NewTransaction("AAPL", model.Buy, 10, 10, now.AddDate(0, 0, -2)),
		model.NewTransaction("GHOST", model.Buy, 5, 20, now.AddDate(0, 0, -2)),
	}

	series, err := builder.Build(context.Background(), transactions, nil)
	if err != nil {
		t.Fatalf("unavailable history must not abort the batch: %v", err)
	}
	last := series[len(series)-1]
	if !approx(last.Invested, 200) {
		t.Errorf("invested counts every buy: expected 200, got %g", last.Invested)
	}
	if !approx(last.MarketValue, 100) {
		t.Errorf("unpriced symbol contributes zero market value: expected 100, got %g", last.MarketValue)
	}
}

func TestBuild_SourceFaultAborts(t *testing.T) {
	builder := NewBuilder(&quotes.MockSource{Err: errors.New("connection refused")}, zerolog.Nop())
	transactions := []model.Transaction{
		model.NewTransaction("AAPL", model.Buy, 1, 10, time.Now().AddDate(0, 0, -1)),
	}
	if _, err := builder.Build(context.Background(), transactions, nil); err == nil {
		t.Fatal("expected the batch to abort on a source fault")
	}
}
