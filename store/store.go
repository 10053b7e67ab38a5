// Package store persists transaction histories and computed tax events in a
// local sqlite database. Decimals and dates are stored as TEXT so no value
// ever passes through a float.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/andref/lotledger"
)

// Store wraps a sqlite database holding one portfolio.
type Store struct {
	db *sql.DB
	mu sync.Mutex // sqlite allows one writer at a time
}

// Open opens (and creates when missing) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		ticker TEXT,
		isin TEXT,
		name TEXT,
		shares TEXT,
		price TEXT,
		fees TEXT,
		total TEXT NOT NULL,
		currency TEXT,
		fx_rate TEXT,
		broker TEXT,
		asset_type TEXT,
		realized_gain TEXT
	);

	CREATE TABLE IF NOT EXISTS tax_events (
		event_id TEXT PRIMARY KEY,
		asset_key TEXT NOT NULL,
		ticker TEXT,
		isin TEXT,
		disposal_date TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		quantity TEXT NOT NULL,
		proceeds TEXT NOT NULL,
		cost_basis TEXT NOT NULL,
		fees TEXT,
		realized_gain TEXT NOT NULL,
		holding_period_days INTEGER NOT NULL,
		method TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
	CREATE INDEX IF NOT EXISTS idx_tax_events_disposal ON tax_events(method, disposal_date);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveTransactions replaces the stored history with the given one, in a
// single sqlite transaction.
func (s *Store) SaveTransactions(txs []lotledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbtx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	if _, err := dbtx.Exec(`DELETE FROM transactions`); err != nil {
		return err
	}
	stmt, err := dbtx.Prepare(`
		INSERT INTO transactions
		(date, kind, ticker, isin, name, shares, price, fees, total, currency, fx_rate, broker, asset_type, realized_gain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		var gain any
		if t.RealizedGain != nil {
			gain = t.RealizedGain.String()
		}
		_, err := stmt.Exec(
			t.Date.String(), string(t.Kind), t.Ticker, t.ISIN, t.Name,
			t.Shares.String(), t.Price.Decimal().String(), t.Fees.Decimal().String(),
			t.Total.Decimal().String(), t.Currency, t.FXRate.String(),
			t.Broker, string(t.Asset), gain,
		)
		if err != nil {
			return fmt.Errorf("inserting transaction on %s: %w", t.Date, err)
		}
	}
	return dbtx.Commit()
}

// Transactions loads the stored history in date order. Monetary fields are
// restored in the given reporting currency, prices in their original one.
func (s *Store) Transactions(reportingCurrency string) ([]lotledger.Transaction, error) {
	rows, err := s.db.Query(`
		SELECT date, kind, ticker, isin, name, shares, price, fees, total, currency, fx_rate, broker, asset_type, realized_gain
		FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []lotledger.Transaction
	for rows.Next() {
		var (
			t                              lotledger.Transaction
			date, kind, asset              string
			shares, price, fees, total, fx string
			gain                           sql.NullString
		)
		err := rows.Scan(&date, &kind, &t.Ticker, &t.ISIN, &t.Name,
			&shares, &price, &fees, &total, &t.Currency, &fx,
			&t.Broker, &asset, &gain)
		if err != nil {
			return nil, err
		}
		if t.Date, err = lotledger.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored transaction: %w", err)
		}
		if t.Kind, err = lotledger.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("stored transaction on %s: %w", date, err)
		}
		t.Asset = lotledger.AssetType(asset)

		sharesDec, err := parseDecimal("shares", shares)
		if err != nil {
			return nil, err
		}
		priceDec, err := parseDecimal("price", price)
		if err != nil {
			return nil, err
		}
		feesDec, err := parseDecimal("fees", fees)
		if err != nil {
			return nil, err
		}
		totalDec, err := parseDecimal("total", total)
		if err != nil {
			return nil, err
		}
		if t.FXRate, err = parseDecimal("fx_rate", fx); err != nil {
			return nil, err
		}
		t.Shares = lotledger.Q(sharesDec)
		priceCurrency := t.Currency
		if priceCurrency == "" {
			priceCurrency = reportingCurrency
		}
		t.Price = lotledger.M(priceDec, priceCurrency)
		t.Fees = lotledger.M(feesDec, reportingCurrency)
		t.Total = lotledger.M(totalDec, reportingCurrency)

		if gain.Valid {
			g, err := parseDecimal("realized_gain", gain.String)
			if err != nil {
				return nil, err
			}
			t.RealizedGain = &g
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ReplaceTaxEvents replaces the stored events of one method with the given run.
func (s *Store) ReplaceTaxEvents(method lotledger.Method, events []lotledger.TaxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbtx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	if _, err := dbtx.Exec(`DELETE FROM tax_events WHERE method = ?`, string(method)); err != nil {
		return err
	}
	stmt, err := dbtx.Prepare(`
		INSERT INTO tax_events
		(event_id, asset_key, ticker, isin, disposal_date, acquisition_date, quantity, proceeds, cost_basis, fees, realized_gain, holding_period_days, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(
			e.EventID, e.AssetKey, e.Ticker, e.ISIN,
			e.DisposalDate.String(), e.AcquisitionDate.String(),
			e.Quantity.String(), e.Proceeds.Decimal().String(),
			e.CostBasis.Decimal().String(), e.Fees.Decimal().String(),
			e.RealizedGain.Decimal().String(), e.HoldingPeriodDays, string(e.Method),
		)
		if err != nil {
			return fmt.Errorf("inserting tax event %s: %w", e.EventID, err)
		}
	}
	return dbtx.Commit()
}

// TaxEvents loads the stored events of one method, ordered by disposal date.
func (s *Store) TaxEvents(method lotledger.Method, reportingCurrency string) ([]lotledger.TaxEvent, error) {
	rows, err := s.db.Query(`
		SELECT event_id, asset_key, ticker, isin, disposal_date, acquisition_date, quantity, proceeds, cost_basis, fees, realized_gain, holding_period_days, method
		FROM tax_events WHERE method = ? ORDER BY disposal_date, asset_key, event_id`, string(method))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []lotledger.TaxEvent
	for rows.Next() {
		var (
			e                                     lotledger.TaxEvent
			disposal, acquisition, m              string
			quantity, proceeds, basis, fees, gain string
		)
		err := rows.Scan(&e.EventID, &e.AssetKey, &e.Ticker, &e.ISIN,
			&disposal, &acquisition, &quantity, &proceeds, &basis, &fees, &gain,
			&e.HoldingPeriodDays, &m)
		if err != nil {
			return nil, err
		}
		if e.DisposalDate, err = lotledger.ParseDate(disposal); err != nil {
			return nil, fmt.Errorf("stored tax event %s: %w", e.EventID, err)
		}
		if e.AcquisitionDate, err = lotledger.ParseDate(acquisition); err != nil {
			return nil, fmt.Errorf("stored tax event %s: %w", e.EventID, err)
		}
		e.Method = lotledger.Method(m)

		qty, err := parseDecimal("quantity", quantity)
		if err != nil {
			return nil, err
		}
		e.Quantity = lotledger.Q(qty)
		for _, f := range []struct {
			name string
			raw  string
			dst  *lotledger.Money
		}{
			{"proceeds", proceeds, &e.Proceeds},
			{"cost_basis", basis, &e.CostBasis},
			{"fees", fees, &e.Fees},
			{"realized_gain", gain, &e.RealizedGain},
		} {
			d, err := parseDecimal(f.name, f.raw)
			if err != nil {
				return nil, err
			}
			*f.dst = lotledger.M(d, reportingCurrency)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stored %s %q: %w", field, raw, err)
	}
	return d, nil
}
