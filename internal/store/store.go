// Package store persists the transaction ledger, derived holdings, the
// watchlist, trading rules and historical value snapshots.
package store

import (
	"time"

	"stockwatch/internal/model"
)

// Store is the full persistence surface. Consumers should depend on the
// narrow interfaces they declare themselves; this one exists for wiring and
// for the admin surface (clear, backup, stats).
type Store interface {
	LoadTransactions() ([]model.Transaction, error)
	AppendTransaction(model.Transaction) error

	LoadHoldings() (model.Holdings, error)
	SaveHoldings(model.Holdings) error

	LoadRules() ([]model.RuleRecord, error)
	SaveRules([]model.RuleRecord) error

	Watchlist() ([]string, error)
	AddToWatchlist(symbol string) error
	RemoveFromWatchlist(symbol string) error

	RecordSnapshot(model.ValueSnapshot) error
	LoadSnapshots() ([]model.ValueSnapshot, error)

	ClearAll() error
	Backup() (*BackupSnapshot, error)
	Stats() (map[string]int, error)
	Close() error
}

// BackupSnapshot is a JSON-serializable dump of everything the store holds.
type BackupSnapshot struct {
	ExportedAt   time.Time             `json:"exported_at"`
	Transactions []model.Transaction   `json:"transactions"`
	Holdings     model.Holdings        `json:"holdings"`
	Watchlist    []string              `json:"watchlist"`
	Rules        []model.RuleRecord    `json:"trading_rules"`
	Snapshots    []model.ValueSnapshot `json:"value_snapshots"`
}
