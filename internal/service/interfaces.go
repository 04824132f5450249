// Package service defines the interfaces between the fraud core and its collaborators.
package service

import (
	"context"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// BatchInserter persists a batch of transactions atomically.
type BatchInserter interface {
	// InsertBatch inserts every transaction in order inside one database
	// transaction. Either all records become durable or none do.
	InsertBatch(ctx context.Context, transactions []model.Transaction) error
}

// TransactionReader lists persisted transactions.
type TransactionReader interface {
	// ListTransactions returns every persisted transaction ordered by creation
	// time, newest first. Classification fields are left at their zero values.
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
}

// Store is the durable append sink behind the fraud core.
type Store interface {
	BatchInserter
	TransactionReader
	// Truncate removes every persisted transaction.
	Truncate(ctx context.Context) error
}

// Report is a suspicious-transaction report addressed to one recipient.
type Report struct {
	To           string
	Transactions []model.Transaction
}

// Notifier delivers suspicious-transaction reports.
type Notifier interface {
	// Send delivers the whole report or returns an error; it never partially succeeds.
	Send(ctx context.Context, report Report) error
}
