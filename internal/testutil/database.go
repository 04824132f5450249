// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/storage"
)

// TestDB is an in-memory SQLite database scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database seeded with txns. It is
// closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.NewTransactionBuilder().
//		With("10.0.0.5", "USD", "500").
//		Build()...)
func SetupTestDB(t *testing.T, txns ...model.Transaction) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Seed: txns})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Seed           []model.Transaction
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Seed transactions
	if len(opts.Seed) > 0 {
		if err := store.InsertBatch(ctx, opts.Seed); err != nil {
			t.Fatalf("failed to seed transactions: %v", err)
		}
	}

	// Run custom setup
	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCount returns the number of stored transactions or fails the test.
func (db *TestDB) MustCount() int {
	db.t.Helper()
	n, err := db.Storage.CountTransactions(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count transactions: %v", err)
	}
	return n
}

// MustList returns the stored transactions, newest first, or fails the test.
func (db *TestDB) MustList() []model.Transaction {
	db.t.Helper()
	txns, err := db.Storage.ListTransactions(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}
