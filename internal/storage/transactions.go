package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// timeLayout is fixed-width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertBatch inserts transactions in order within a single database transaction.
// Any failing record rolls back the whole batch.
func (s *SQLiteStorage) InsertBatch(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			transaction_id, user_id, ip, amount, currency, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		_, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.UserID,
			txn.IP,
			txn.Amount.String(),
			txn.Currency,
			txn.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// ListTransactions returns all persisted transactions, newest first. Derived
// classification fields carry their defaults.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, ip, amount, currency, created_at
		FROM transactions
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		var (
			txn       model.Transaction
			amount    string
			createdAt string
		)
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.IP, &amount, &txn.Currency, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", txn.ID, amount, err)
		}
		txn.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has invalid created_at %q: %w", txn.ID, createdAt, err)
		}
		txn.Reason = []string{}

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// CountTransactions returns the number of persisted transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Truncate deletes every persisted transaction.
func (s *SQLiteStorage) Truncate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to truncate transactions: %w", err)
	}
	return nil
}
