// Package history builds the historical portfolio value series. Replaying
// every day against per-symbol price history is expensive, so it runs as an
// explicit batch job with cancellation and progress reporting rather than on
// a request path.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
	"stockwatch/internal/quotes"
)

// Progress reports batch completion. done counts processed days out of total.
type Progress func(done, total int)

// Builder computes daily portfolio value snapshots from the ledger.
type Builder struct {
	quotes quotes.Source
	log    zerolog.Logger
}

// NewBuilder creates a history builder.
func NewBuilder(src quotes.Source, log zerolog.Logger) *Builder {
	return &Builder{
		quotes: src,
		log:    log.With().Str("module", "history").Logger(),
	}
}

// Build replays the ledger once per day from the first transaction to today,
// pricing the resulting holdings with daily close history. History is fetched
// once per symbol, not per day. A symbol with no bar for a given day keeps
// its last known close. Cancelling the context aborts with ctx.Err().
//
// Unlike the all-time metrics, the invested amount here is reduced on each
// sell at the running average cost, so the series tracks capital currently
// at work rather than all-time inflows.
func (b *Builder) Build(ctx context.Context, transactions []model.Transaction, progress Progress) ([]model.ValueSnapshot, error) {
	if len(transactions) == 0 {
		return nil, nil
	}

	sorted := make([]model.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	start := day(sorted[0].Date)
	end := day(time.Now())
	totalDays := int(end.Sub(start).Hours()/24) + 1
	if totalDays < 1 {
		totalDays = 1
	}

	closes, err := b.fetchCloses(ctx, sorted, totalDays)
	if err != nil {
		return nil, err
	}

	type position struct {
		quantity  float64
		totalCost float64
	}
	book := make(map[string]*position)
	lastClose := make(map[string]float64)

	series := make([]model.ValueSnapshot, 0, totalDays)
	txIndex := 0
	var invested float64

	for i := 0; i < totalDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := start.AddDate(0, 0, i)
		cutoff := current.AddDate(0, 0, 1)

		// Apply this day's transactions.
		for txIndex < len(sorted) && sorted[txIndex].Date.Before(cutoff) {
			tx := sorted[txIndex]
			txIndex++
			pos := book[tx.Symbol]
			if pos == nil {
				pos = &position{}
				book[tx.Symbol] = pos
			}
			switch tx.Kind {
			case model.Buy:
				pos.quantity += tx.Quantity
				pos.totalCost += tx.Total
				invested += tx.Total
			case model.Sell:
				if pos.quantity > 0 {
					avgCost := pos.totalCost / pos.quantity
					reduction := avgCost * tx.Quantity
					pos.totalCost -= reduction
					invested -= reduction
				}
				pos.quantity -= tx.Quantity
			}
			if pos.quantity <= 0 {
				delete(book, tx.Symbol)
			}
		}

		var marketValue float64
		for symbol, pos := range book {
			if close, ok := closes[symbol][current]; ok {
				lastClose[symbol] = close
			}
			marketValue += lastClose[symbol] * pos.quantity
		}

		snap := model.ValueSnapshot{
			Date:        current,
			Invested:    invested,
			MarketValue: marketValue,
			Return:      marketValue - invested,
		}
		if invested > 0 {
			snap.ReturnPercent = snap.Return / invested * 100
		}
		series = append(series, snap)

		if progress != nil {
			progress(i+1, totalDays)
		}
	}
	return series, nil
}

// fetchCloses loads daily close history for every symbol in the ledger,
// keyed by day. A symbol whose history is unavailable is skipped; any other
// lookup fault aborts the batch.
func (b *Builder) fetchCloses(ctx context.Context, transactions []model.Transaction, days int) (map[string]map[time.Time]float64, error) {
	symbols := make(map[string]struct{})
	for _, tx := range transactions {
		symbols[tx.Symbol] = struct{}{}
	}

	closes := make(map[string]map[time.Time]float64, len(symbols))
	for symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := b.quotes.GetHistory(symbol, days+5)
		if err != nil {
			if errors.Is(err, quotes.ErrUnavailable) {
				b.log.Warn().Str("symbol", symbol).Msg("no history, symbol will be unpriced")
				continue
			}
			return nil, fmt.Errorf("history for %s: %w", symbol, err)
		}
		byDay := make(map[time.Time]float64, len(bars))
		for _, bar := range bars {
			byDay[day(bar.Time)] = bar.Close
		}
		closes[symbol] = byDay
	}
	return closes, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
