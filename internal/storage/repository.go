// Package storage persists transactions and the item-code catalog in a
// single sqlite file. Every multi-statement write runs inside one SQL
// transaction: the caller sees either a fully written transaction or an
// error, never half of one.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dailyregister/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an update, delete or lookup references a
// transaction id that does not exist. It is a normal negative result, not
// a persistence failure.
var ErrNotFound = errors.New("transaction not found")

type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file (and its directory) if needed, runs
// migrations and returns a ready store.
func Open(dbPath string) (*Store, error) {
	s := &Store{path: dbPath}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(s.path); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the location of the backing file, used by the backup
// manager.
func (s *Store) Path() string {
	return s.path
}

// Reinit drops the current connection and reopens the backing file. The
// backup manager calls this after swapping the file underneath us.
func (s *Store) Reinit() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("close before reinit: %w", err)
		}
		s.db = nil
	}
	return s.open()
}

// Create inserts the transaction and all of its line rows atomically and
// returns the assigned id. Derived totals are recomputed here so stored
// totals always equal the line sums.
func (s *Store) Create(ctx context.Context, t core.Transaction) (int64, error) {
	t.ComputeTotals()
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if t.Date.IsZero() {
		t.Date = core.DateOf(t.Timestamp)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (date, timestamp, comments, total_amount, net_amount_paid, cash_amount, card_amount, upi_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Timestamp.Format(time.RFC3339), t.Comments,
		t.TotalAmount, t.NetAmountPaid, t.Payment.Cash, t.Payment.Card, t.Payment.UPI)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if err := insertLines(ctx, tx, id, t.NewItems, t.OldItems); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", t.Date.String(),
		"new_items", len(t.NewItems),
		"old_items", len(t.OldItems),
		"total_amount", t.TotalAmount)

	return id, nil
}

func insertLines(ctx context.Context, tx *sql.Tx, id int64, newItems []core.NewItem, oldItems []core.OldItem) error {
	for _, i := range newItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (transaction_id, code, name, material, weight, amount, is_billable)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i.Code, i.Name, string(i.Material), i.Weight, i.Amount, i.Billable)
		if err != nil {
			return fmt.Errorf("insert item line: %w", err)
		}
	}
	for _, i := range oldItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO old_items (transaction_id, material, weight, amount)
			VALUES (?, ?, ?, ?)`,
			id, string(i.Material), i.Weight, i.Amount)
		if err != nil {
			return fmt.Errorf("insert old item line: %w", err)
		}
	}
	return nil
}

// GetByDate returns the day's transactions in insertion order, lines
// eagerly loaded.
func (s *Store) GetByDate(ctx context.Context, d core.Date) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, "WHERE date = ?", "ORDER BY id", d.String())
}

// GetByDateRange returns transactions between from and to inclusive,
// newest first (date descending, then id descending). The ordering is a
// display contract; keep it.
func (s *Store) GetByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, "WHERE date BETWEEN ? AND ?", "ORDER BY date DESC, id DESC", from.String(), to.String())
}

// queryTransactions loads header rows matching cond, then both line
// tables in two more queries joined on the same condition. Three queries
// total regardless of how many transactions match.
func (s *Store) queryTransactions(ctx context.Context, cond, order string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, timestamp, comments, total_amount, net_amount_paid, cash_amount, card_amount, upi_amount
		FROM transactions `+cond+" "+order, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	index := make(map[int64]int)
	for rows.Next() {
		var (
			t           core.Transaction
			dateStr, ts string
		)
		if err := rows.Scan(&t.ID, &dateStr, &ts, &t.Comments, &t.TotalAmount, &t.NetAmountPaid,
			&t.Payment.Cash, &t.Payment.Card, &t.Payment.UPI); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("scan transaction date: %w", err)
		}
		if t.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("scan transaction timestamp: %w", err)
		}
		index[t.ID] = len(txs)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT i.transaction_id, i.code, i.name, i.material, i.weight, i.amount, i.is_billable
		FROM items i JOIN transactions t ON t.id = i.transaction_id `+cond+" ORDER BY i.id", args...)
	if err != nil {
		return nil, fmt.Errorf("query item lines: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			txID     int64
			material string
			i        core.NewItem
		)
		if err := itemRows.Scan(&txID, &i.Code, &i.Name, &material, &i.Weight, &i.Amount, &i.Billable); err != nil {
			return nil, fmt.Errorf("scan item line: %w", err)
		}
		i.Material = core.Material(material)
		if at, ok := index[txID]; ok {
			txs[at].NewItems = append(txs[at].NewItems, i)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item lines: %w", err)
	}

	oldRows, err := s.db.QueryContext(ctx, `
		SELECT o.transaction_id, o.material, o.weight, o.amount
		FROM old_items o JOIN transactions t ON t.id = o.transaction_id `+cond+" ORDER BY o.id", args...)
	if err != nil {
		return nil, fmt.Errorf("query old item lines: %w", err)
	}
	defer oldRows.Close()

	for oldRows.Next() {
		var (
			txID     int64
			material string
			i        core.OldItem
		)
		if err := oldRows.Scan(&txID, &material, &i.Weight, &i.Amount); err != nil {
			return nil, fmt.Errorf("scan old item line: %w", err)
		}
		i.Material = core.Material(material)
		if at, ok := index[txID]; ok {
			txs[at].OldItems = append(txs[at].OldItems, i)
		}
	}
	if err := oldRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate old item lines: %w", err)
	}

	return txs, nil
}

// Update replaces the payment fields and all line rows of an existing
// transaction (delete-then-reinsert; there are no partial line updates).
// The original date and timestamp are kept: an edit corrects amounts, not
// when the sale happened.
func (s *Store) Update(ctx context.Context, id int64, t core.Transaction) error {
	t.ComputeTotals()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET comments = ?, total_amount = ?, net_amount_paid = ?, cash_amount = ?, card_amount = ?, upi_amount = ?
		WHERE id = ?`,
		t.Comments, t.TotalAmount, t.NetAmountPaid, t.Payment.Cash, t.Payment.Card, t.Payment.UPI, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("clear item lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM old_items WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("clear old item lines: %w", err)
	}
	if err := insertLines(ctx, tx, id, t.NewItems, t.OldItems); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "total_amount", t.TotalAmount)
	return nil
}

// Delete removes a transaction and its lines. Line rows go first; the
// sqlite file does not enforce cascades for us.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("delete item lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM old_items WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("delete old item lines: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// DeleteAllForDate removes every transaction of one day, used for
// corrective re-entry. Returns how many transactions were removed.
func (s *Store) DeleteAllForDate(ctx context.Context, d core.Date) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete day: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE transaction_id IN (SELECT id FROM transactions WHERE date = ?)`, d.String()); err != nil {
		return 0, fmt.Errorf("delete day item lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM old_items WHERE transaction_id IN (SELECT id FROM transactions WHERE date = ?)`, d.String()); err != nil {
		return 0, fmt.Errorf("delete day old item lines: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE date = ?`, d.String())
	if err != nil {
		return 0, fmt.Errorf("delete day transactions: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete day rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete day: %w", err)
	}

	slog.InfoContext(ctx, "Day cleared", "date", d.String(), "transactions", count)
	return count, nil
}

// ListCodes returns every catalog entry, ordered by code.
func (s *Store) ListCodes(ctx context.Context) ([]core.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, material, last_used FROM item_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query item codes: %w", err)
	}
	defer rows.Close()

	var entries []core.CatalogEntry
	for rows.Next() {
		var (
			e        core.CatalogEntry
			material string
			lastUsed sql.NullString
		)
		if err := rows.Scan(&e.Code, &e.Name, &material, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan item code: %w", err)
		}
		e.Material = core.Material(material)
		if lastUsed.Valid && lastUsed.String != "" {
			if e.LastUsed, err = time.Parse(time.RFC3339, lastUsed.String); err != nil {
				return nil, fmt.Errorf("scan item code last_used: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item codes: %w", err)
	}
	return entries, nil
}

// UpsertCode inserts or replaces a catalog entry.
func (s *Store) UpsertCode(ctx context.Context, e core.CatalogEntry) error {
	var lastUsed any
	if !e.LastUsed.IsZero() {
		lastUsed = e.LastUsed.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_codes (code, name, material, last_used) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, material = excluded.material, last_used = excluded.last_used`,
		e.Code, e.Name, string(e.Material), lastUsed)
	if err != nil {
		return fmt.Errorf("upsert item code %s: %w", e.Code, err)
	}
	return nil
}

// TouchCode records that a code was consumed by a committed sale.
func (s *Store) TouchCode(ctx context.Context, code string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE item_codes SET last_used = ? WHERE code = ?`,
		at.Format(time.RFC3339), code)
	if err != nil {
		return fmt.Errorf("touch item code %s: %w", code, err)
	}
	return nil
}

// DeleteCode removes a catalog entry. Historical lines keep their
// denormalized name and material.
func (s *Store) DeleteCode(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM item_codes WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete item code %s: %w", code, err)
	}
	return nil
}

// CountCodes reports how many catalog entries exist, used to decide
// whether to seed defaults on first run.
func (s *Store) CountCodes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_codes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count item codes: %w", err)
	}
	return n, nil
}
