// Package ledger derives current holdings from the append-only transaction
// log and owns transaction ingestion.
package ledger

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	LoadTransactions() ([]model.Transaction, error)
	AppendTransaction(model.Transaction) error
	SaveHoldings(model.Holdings) error
}

// ComputeHoldings replays the transaction log in order and returns the net
// quantity per symbol. Symbols whose accumulated quantity is zero or negative
// are dropped from the result.
func ComputeHoldings(transactions []model.Transaction) model.Holdings {
	holdings := make(model.Holdings)
	for _, tx := range transactions {
		switch tx.Kind {
		case model.Buy:
			holdings[tx.Symbol] += tx.Quantity
		case model.Sell:
			holdings[tx.Symbol] -= tx.Quantity
		}
	}
	for symbol, quantity := range holdings {
		if quantity <= 0 {
			delete(holdings, symbol)
		}
	}
	return holdings
}

// Service validates and ingests transactions, keeping the persisted holdings
// snapshot in sync with the ledger.
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService creates a ledger service.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("module", "ledger").Logger(),
	}
}

// AddTransaction validates, normalizes and appends a transaction, then
// recomputes and persists the derived holdings. A zero date defaults to now.
func (s *Service) AddTransaction(symbol string, kind model.TransactionKind, quantity, price float64, date time.Time) (model.Transaction, error) {
	var zero model.Transaction

	if model.NormalizeSymbol(symbol) == "" {
		return zero, fmt.Errorf("symbol is required")
	}
	if !kind.Valid() {
		return zero, fmt.Errorf("unknown transaction type %q", kind)
	}
	if quantity <= 0 {
		return zero, fmt.Errorf("quantity must be positive, got %g", quantity)
	}
	if price <= 0 {
		return zero, fmt.Errorf("price must be positive, got %g", price)
	}
	if date.IsZero() {
		date = time.Now()
	}

	tx := model.NewTransaction(symbol, kind, quantity, price, date)
	if err := s.store.AppendTransaction(tx); err != nil {
		return zero, fmt.Errorf("append transaction: %w", err)
	}

	holdings, err := s.Holdings()
	if err != nil {
		return zero, err
	}
	if err := s.store.SaveHoldings(holdings); err != nil {
		return zero, fmt.Errorf("save holdings: %w", err)
	}

	s.log.Info().
		Str("symbol", tx.Symbol).
		Str("type", string(tx.Kind)).
		Float64("quantity", tx.Quantity).
		Float64("price", tx.Price).
		Msg("transaction recorded")
	return tx, nil
}

// Holdings recomputes current holdings by full replay of the ledger.
func (s *Service) Holdings() (model.Holdings, error) {
	transactions, err := s.store.LoadTransactions()
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return ComputeHoldings(transactions), nil
}

// Transactions returns the full ledger in chronological order.
func (s *Service) Transactions() ([]model.Transaction, error) {
	transactions, err := s.store.LoadTransactions()
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return transactions, nil
}
