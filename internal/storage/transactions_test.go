package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

func TestSQLiteStorage_InsertBatch(t *testing.T) {
	tests := []struct {
		setup        func(*testing.T, *SQLiteStorage, context.Context)
		name         string
		transactions []model.Transaction
		wantCount    int
		wantErr      bool
	}{
		{
			name:         "insert new transactions",
			transactions: createTestTransactions(3),
			wantCount:    3,
		},
		{
			name:         "empty batch is rejected",
			transactions: []model.Transaction{},
			wantErr:      true,
		},
		{
			name: "invalid record is rejected before any write",
			transactions: func() []model.Transaction {
				txns := createTestTransactions(2)
				txns[1].Currency = ""
				return txns
			}(),
			wantErr: true,
		},
		{
			name:         "duplicate id rolls back the whole batch",
			transactions: createTestTransactions(3),
			setup: func(t *testing.T, s *SQLiteStorage, ctx context.Context) {
				t.Helper()
				existing := createTestTransactions(3)[2:]
				require.NoError(t, s.InsertBatch(ctx, existing))
			},
			wantErr:   true,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.setup != nil {
				tt.setup(t, store, ctx)
			}

			err := store.InsertBatch(ctx, tt.transactions)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			count, err := store.CountTransactions(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestSQLiteStorage_ListTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	empty, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	txns := createTestTransactions(4)
	txns[0].Suspicious = true
	txns[0].Reason = []string{"never persisted"}
	require.NoError(t, store.InsertBatch(ctx, txns))

	got, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Newest first.
	for i, txn := range got {
		want := txns[len(txns)-1-i]
		assert.Equal(t, want.ID, txn.ID)
		assert.Equal(t, want.UserID, txn.UserID)
		assert.Equal(t, want.IP, txn.IP)
		assert.Equal(t, want.Currency, txn.Currency)
		assert.True(t, want.Amount.Equal(txn.Amount), "amount %s != %s", want.Amount, txn.Amount)
		assert.True(t, want.CreatedAt.Equal(txn.CreatedAt))
		assert.False(t, txn.Suspicious)
		assert.Empty(t, txn.Reason)
	}
}

func TestSQLiteStorage_Truncate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, createTestTransactions(5)))
	require.NoError(t, store.Truncate(ctx))

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Same ids can be inserted again after truncation.
	require.NoError(t, store.InsertBatch(ctx, createTestTransactions(2)))
}
