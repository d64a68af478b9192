package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"stockwatch/internal/model"
)

// SQLiteStore persists everything to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboard reads while
	// the scheduler writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.With().Str("module", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol   TEXT NOT NULL,
			type     TEXT NOT NULL,
			quantity REAL NOT NULL,
			price    REAL NOT NULL,
			total    REAL NOT NULL,
			date     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,

		`CREATE TABLE IF NOT EXISTS holdings (
			symbol     TEXT PRIMARY KEY,
			quantity   REAL NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS watchlist (
			symbol   TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS trading_rules (
			rule_id              TEXT PRIMARY KEY,
			symbol               TEXT NOT NULL,
			type                 TEXT NOT NULL,
			target_price         REAL,
			stop_price           REAL,
			alert_type           TEXT,
			percentage_threshold REAL,
			direction            TEXT,
			volume_threshold     REAL,
			comparison           TEXT,
			quantity             REAL,
			active               INTEGER NOT NULL DEFAULT 1,
			created_at           TEXT NOT NULL,
			position             INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS value_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			date         TEXT NOT NULL,
			invested     REAL NOT NULL,
			market_value REAL NOT NULL,
			total_return REAL NOT NULL,
			return_pct   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_date ON value_snapshots(date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// LoadTransactions returns the full ledger in chronological order.
func (s *SQLiteStore) LoadTransactions() ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT symbol, type, quantity, price, total, date
		FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var date string
		if err := rows.Scan(&tx.Symbol, &tx.Kind, &tx.Quantity, &tx.Price, &tx.Total, &date); err != nil {
			return nil, err
		}
		tx.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// AppendTransaction adds one ledger entry.
func (s *SQLiteStore) AppendTransaction(tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO transactions (symbol, type, quantity, price, total, date)
		VALUES (?,?,?,?,?,?)`,
		tx.Symbol, string(tx.Kind), tx.Quantity, tx.Price, tx.Total, tx.Date.Format(time.RFC3339))
	return err
}

// LoadHoldings returns the persisted holdings snapshot.
func (s *SQLiteStore) LoadHoldings() (model.Holdings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT symbol, quantity FROM holdings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := make(model.Holdings)
	for rows.Next() {
		var symbol string
		var quantity float64
		if err := rows.Scan(&symbol, &quantity); err != nil {
			return nil, err
		}
		holdings[symbol] = quantity
	}
	return holdings, rows.Err()
}

// SaveHoldings replaces the persisted holdings snapshot.
func (s *SQLiteStore) SaveHoldings(holdings model.Holdings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM holdings`); err != nil {
		return err
	}
	now := time.Now().Format(time.RFC3339)
	for symbol, quantity := range holdings {
		if _, err := dbTx.Exec(`INSERT INTO holdings (symbol, quantity, updated_at) VALUES (?,?,?)`,
			symbol, quantity, now); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

// LoadRules returns all rule records in creation order.
func (s *SQLiteStore) LoadRules() ([]model.RuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT rule_id, symbol, type, target_price, stop_price, alert_type,
		percentage_threshold, direction, volume_threshold, comparison, quantity, active, created_at
		FROM trading_rules ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RuleRecord
	for rows.Next() {
		var rec model.RuleRecord
		var targetPrice, stopPrice, pctThreshold, volThreshold, quantity sql.NullFloat64
		var alertType, direction, comparison sql.NullString
		var active int
		var created string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Type, &targetPrice, &stopPrice, &alertType,
			&pctThreshold, &direction, &volThreshold, &comparison, &quantity, &active, &created); err != nil {
			return nil, err
		}
		rec.TargetPrice = targetPrice.Float64
		rec.StopPrice = stopPrice.Float64
		rec.AlertType = alertType.String
		rec.PercentageThreshold = pctThreshold.Float64
		rec.Direction = direction.String
		rec.VolumeThreshold = volThreshold.Float64
		rec.Comparison = comparison.String
		rec.Quantity = quantity.Float64
		rec.Active = active != 0
		rec.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse rule created_at %q: %w", created, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveRules replaces the whole rule collection.
func (s *SQLiteStore) SaveRules(records []model.RuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM trading_rules`); err != nil {
		return err
	}
	for i, rec := range records {
		active := 0
		if rec.Active {
			active = 1
		}
		if _, err := dbTx.Exec(`INSERT INTO trading_rules
			(rule_id, symbol, type, target_price, stop_price, alert_type,
			 percentage_threshold, direction, volume_threshold, comparison,
			 quantity, active, created_at, position)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, rec.Symbol, rec.Type, rec.TargetPrice, rec.StopPrice, rec.AlertType,
			rec.PercentageThreshold, rec.Direction, rec.VolumeThreshold, rec.Comparison,
			rec.Quantity, active, rec.CreatedAt.Format(time.RFC3339), i); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

// Watchlist returns the watched symbols in insertion order.
func (s *SQLiteStore) Watchlist() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT symbol FROM watchlist ORDER BY added_at, symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		out = append(out, symbol)
	}
	return out, rows.Err()
}

// AddToWatchlist inserts a symbol; adding an existing symbol is a no-op.
func (s *SQLiteStore) AddToWatchlist(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO watchlist (symbol, added_at) VALUES (?,?)`,
		model.NormalizeSymbol(symbol), time.Now().Format(time.RFC3339))
	return err
}

// RemoveFromWatchlist deletes a symbol from the watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM watchlist WHERE symbol = ?`, model.NormalizeSymbol(symbol))
	return err
}

// RecordSnapshot appends one historical portfolio value point.
func (s *SQLiteStore) RecordSnapshot(snap model.ValueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO value_snapshots (date, invested, market_value, total_return, return_pct)
		VALUES (?,?,?,?,?)`,
		snap.Date.Format(time.RFC3339), snap.Invested, snap.MarketValue, snap.Return, snap.ReturnPercent)
	return err
}

// LoadSnapshots returns the historical value series, oldest first.
func (s *SQLiteStore) LoadSnapshots() ([]model.ValueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT date, invested, market_value, total_return, return_pct
		FROM value_snapshots ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ValueSnapshot
	for rows.Next() {
		var snap model.ValueSnapshot
		var date string
		if err := rows.Scan(&date, &snap.Invested, &snap.MarketValue, &snap.Return, &snap.ReturnPercent); err != nil {
			return nil, err
		}
		snap.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot date %q: %w", date, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ClearAll wipes every table. Irreversible.
func (s *SQLiteStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"transactions", "holdings", "watchlist", "trading_rules", "value_snapshots"} {
		if _, err := s.db.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	s.log.Warn().Msg("all data cleared")
	return nil
}

// Backup collects everything into a JSON-serializable snapshot.
func (s *SQLiteStore) Backup() (*BackupSnapshot, error) {
	transactions, err := s.LoadTransactions()
	if err != nil {
		return nil, err
	}
	holdings, err := s.LoadHoldings()
	if err != nil {
		return nil, err
	}
	watchlist, err := s.Watchlist()
	if err != nil {
		return nil, err
	}
	rules, err := s.LoadRules()
	if err != nil {
		return nil, err
	}
	snapshots, err := s.LoadSnapshots()
	if err != nil {
		return nil, err
	}
	return &BackupSnapshot{
		ExportedAt:   time.Now(),
		Transactions: transactions,
		Holdings:     holdings,
		Watchlist:    watchlist,
		Rules:        rules,
		Snapshots:    snapshots,
	}, nil
}

// Stats returns row counts per table.
func (s *SQLiteStore) Stats() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]int)
	for _, table := range []string{"transactions", "holdings", "watchlist", "trading_rules", "value_snapshots"} {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
