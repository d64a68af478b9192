package model

import (
	"strings"
	"time"
)

// TransactionKind is the side of a trade.
type TransactionKind string

const (
	Buy  TransactionKind = "buy"
	Sell TransactionKind = "sell"
)

// Valid reports whether the kind is one of the known trade sides.
func (k TransactionKind) Valid() bool {
	return k == Buy || k == Sell
}

// Transaction is an immutable entry in the trade ledger. The ledger is
// append-only; replaying it in date order yields the current holdings.
type Transaction struct {
	Symbol   string          `json:"symbol"`
	Kind     TransactionKind `json:"type"`
	Quantity float64         `json:"quantity"`
	Price    float64         `json:"price"`
	Total    float64         `json:"total"`
	Date     time.Time       `json:"date"`
}

// NewTransaction builds a transaction with a normalized symbol and a derived
// total. It does not validate; ingestion does.
func NewTransaction(symbol string, kind TransactionKind, quantity, price float64, date time.Time) Transaction {
	return Transaction{
		Symbol:   NormalizeSymbol(symbol),
		Kind:     kind,
		Quantity: quantity,
		Price:    price,
		Total:    quantity * price,
		Date:     date,
	}
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
