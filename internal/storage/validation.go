// Package storage provides the durable transaction store for the fraud application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates the persisted fields of a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.IP) == "" {
		return fmt.Errorf("%w: missing IP", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidTransaction)
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrInvalidTransaction, txn.Amount)
	}
	if txn.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrInvalidTransaction)
	}
	return nil
}
