package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_TransactionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	date := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	tx := model.NewTransaction("AAPL", model.Buy, 10, 150.5, date)
	if err := s.AppendTransaction(tx); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded, err := s.LoadTransactions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(loaded))
	}
	got := loaded[0]
	if got.Symbol != "AAPL" || got.Kind != model.Buy || got.Quantity != 10 || got.Price != 150.5 {
		t.Errorf("transaction fields lost: %+v", got)
	}
	if got.Total != 1505 {
		t.Errorf("total: expected 1505, got %g", got.Total)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date: expected %v, got %v", date, got.Date)
	}
}

func TestSQLite_TransactionsOrderedByDate(t *testing.T) {
	s := newTestStore(t)

	later := model.NewTransaction("AAPL", model.Sell, 1, 180, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	earlier := model.NewTransaction("AAPL", model.Buy, 5, 150, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.AppendTransaction(later); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendTransaction(earlier); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadTransactions()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || loaded[0].Kind != model.Buy {
		t.Errorf("expected chronological order, got %+v", loaded)
	}
}

func TestSQLite_HoldingsReplaced(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveHoldings(model.Holdings{"AAPL": 10, "MSFT": 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHoldings(model.Holdings{"AAPL": 6}); err != nil {
		t.Fatal(err)
	}

	holdings, err := s.LoadHoldings()
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 1 || holdings["AAPL"] != 6 {
		t.Errorf("save must replace the snapshot, got %v", holdings)
	}
}

func TestSQLite_RulesKeepCreationOrder(t *testing.T) {
	s := newTestStore(t)

	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RuleRecord{
		{ID: "stop_loss_AAPL_1", Type: "stop_loss", Symbol: "AAPL", StopPrice: 150, Quantity: 10, Active: true, CreatedAt: created},
		{ID: "price_alert_MSFT_2", Type: "price_alert", Symbol: "MSFT", TargetPrice: 400, AlertType: "above", Active: false, CreatedAt: created},
		{ID: "volume_alert_NVDA_3", Type: "volume_alert", Symbol: "NVDA", VolumeThreshold: 2.5, Comparison: "above", Active: true, CreatedAt: created},
	}
	if err := s.SaveRules(records); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadRules()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(loaded))
	}
	for i, rec := range loaded {
		if rec.ID != records[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, records[i].ID, rec.ID)
		}
	}
	if loaded[0].StopPrice != 150 || loaded[0].Quantity != 10 || !loaded[0].Active {
		t.Errorf("stop loss fields lost: %+v", loaded[0])
	}
	if loaded[1].TargetPrice != 400 || loaded[1].AlertType != "above" || loaded[1].Active {
		t.Errorf("price alert fields lost: %+v", loaded[1])
	}
	if loaded[2].VolumeThreshold != 2.5 || loaded[2].Comparison != "above" {
		t.Errorf("volume alert fields lost: %+v", loaded[2])
	}
}

func TestSQLite_WatchlistAddIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddToWatchlist("aapl"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToWatchlist("AAPL"); err != nil {
		t.Fatal(err)
	}

	symbols, err := s.Watchlist()
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("expected single normalized AAPL, got %v", symbols)
	}

	if err := s.RemoveFromWatchlist("AAPL"); err != nil {
		t.Fatal(err)
	}
	symbols, _ = s.Watchlist()
	if len(symbols) != 0 {
		t.Errorf("expected empty watchlist, got %v", symbols)
	}
}

func TestSQLite_SnapshotsOrderedByDate(t *testing.T) {
	s := newTestStore(t)

	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	if err := s.RecordSnapshot(model.ValueSnapshot{Date: day2, Invested: 100, MarketValue: 110, Return: 10, ReturnPercent: 10}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSnapshot(model.ValueSnapshot{Date: day1, Invested: 100, MarketValue: 100}); err != nil {
		t.Fatal(err)
	}

	snaps, err := s.LoadSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if !snaps[0].Date.Equal(day1) {
		t.Errorf("expected oldest first, got %v", snaps[0].Date)
	}
	if snaps[1].Return != 10 || snaps[1].ReturnPercent != 10 {
		t.Errorf("snapshot fields lost: %+v", snaps[1])
	}
}

func TestSQLite_ClearAllAndStats(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendTransaction(model.NewTransaction("AAPL", model.Buy, 1, 100, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToWatchlist("MSFT"); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["transactions"] != 1 || stats["watchlist"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	stats, _ = s.Stats()
	for table, count := range stats {
		if count != 0 {
			t.Errorf("%s: expected 0 rows after clear, got %d", table, count)
		}
	}
}

func TestSQLite_Backup(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendTransaction(model.NewTransaction("AAPL", model.Buy, 2, 100, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHoldings(model.Holdings{"AAPL": 2}); err != nil {
		t.Fatal(err)
	}

	backup, err := s.Backup()
	if err != nil {
		t.Fatal(err)
	}
	if len(backup.Transactions) != 1 || backup.Holdings["AAPL"] != 2 {
		t.Errorf("backup incomplete: %+v", backup)
	}
	if backup.ExportedAt.IsZero() {
		t.Error("backup must carry its export time")
	}
}
