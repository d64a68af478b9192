package store

import (
	"sync"
	"time"

	"stockwatch/internal/model"
)

// MemoryStore keeps everything in process memory. It backs tests and serves
// as a fallback when no database path is configured; data does not survive a
// restart.
type MemoryStore struct {
	mu           sync.Mutex
	transactions []model.Transaction
	holdings     model.Holdings
	watchlist    []string
	rules        []model.RuleRecord
	snapshots    []model.ValueSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holdings: make(model.Holdings)}
}

func (s *MemoryStore) LoadTransactions() ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *MemoryStore) AppendTransaction(tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *MemoryStore) LoadHoldings() (model.Holdings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.Holdings, len(s.holdings))
	for symbol, quantity := range s.holdings {
		out[symbol] = quantity
	}
	return out, nil
}

func (s *MemoryStore) SaveHoldings(holdings model.Holdings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = make(model.Holdings, len(holdings))
	for symbol, quantity := range holdings {
		s.holdings[symbol] = quantity
	}
	return nil
}

func (s *MemoryStore) LoadRules() ([]model.RuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RuleRecord, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *MemoryStore) SaveRules(records []model.RuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make([]model.RuleRecord, len(records))
	copy(s.rules, records)
	return nil
}

func (s *MemoryStore) Watchlist() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.watchlist))
	copy(out, s.watchlist)
	return out, nil
}

func (s *MemoryStore) AddToWatchlist(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = model.NormalizeSymbol(symbol)
	for _, existing := range s.watchlist {
		if existing == symbol {
			return nil
		}
	}
	s.watchlist = append(s.watchlist, symbol)
	return nil
}

func (s *MemoryStore) RemoveFromWatchlist(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = model.NormalizeSymbol(symbol)
	for i, existing := range s.watchlist {
		if existing == symbol {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) RecordSnapshot(snap model.ValueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *MemoryStore) LoadSnapshots() ([]model.ValueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ValueSnapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out, nil
}

func (s *MemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.holdings = make(model.Holdings)
	s.watchlist = nil
	s.rules = nil
	s.snapshots = nil
	return nil
}

func (s *MemoryStore) Backup() (*BackupSnapshot, error) {
	transactions, _ := s.LoadTransactions()
	holdings, _ := s.LoadHoldings()
	watchlist, _ := s.Watchlist()
	rules, _ := s.LoadRules()
	snapshots, _ := s.LoadSnapshots()
	return &BackupSnapshot{
		ExportedAt:   time.Now(),
		Transactions: transactions,
		Holdings:     holdings,
		Watchlist:    watchlist,
		Rules:        rules,
		Snapshots:    snapshots,
	}, nil
}

func (s *MemoryStore) Stats() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{
		"transactions":    len(s.transactions),
		"holdings":        len(s.holdings),
		"watchlist":       len(s.watchlist),
		"trading_rules":   len(s.rules),
		"value_snapshots": len(s.snapshots),
	}, nil
}

func (s *MemoryStore) Close() error { return nil }
