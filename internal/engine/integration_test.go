package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/generator"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
	"github.com/Veraticus/the-fraud-must-flow/internal/testutil"
)

func TestFraudEngine_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewTransactionBuilder().WithClean(2).Build()...)

	policy := rules.DefaultPolicy()
	gen, err := generator.New(policy, generator.DefaultConfig())
	require.NoError(t, err)

	e := New(db.Storage, gen, rules.NewEvaluator(policy), &mockNotifier{})

	batch, err := e.Generate(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 50)
	assert.Zero(t, db.MustCount(), "reseed clears the previous ledger before the flush")

	n, err := e.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	assert.Equal(t, 50, db.MustCount())

	stats := e.QueueStats()
	assert.Equal(t, 1, stats.CommittedBatches)
	assert.Equal(t, 50, stats.CommittedRecords)
	assert.Zero(t, stats.Pending)

	result, err := e.ApplyRules(ctx, model.BuiltinRules)
	require.NoError(t, err)
	assert.Len(t, result.Suspicious, 10)
}

func TestFraudEngine_RestartReadsStoredLedger(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewTransactionBuilder().WithClean(3).WithScenarios().Build()...)

	policy := rules.DefaultPolicy()
	e := New(db.Storage, &fixedGenerator{batches: [][]model.Transaction{{}}}, rules.NewEvaluator(policy), &mockNotifier{})

	all, err := e.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "txn-007", all[0].ID, "newest first")

	result, err := e.ApplyRules(ctx, model.BuiltinRules)
	require.NoError(t, err)

	reasons := map[string][]string{}
	for _, txn := range result.Suspicious {
		reasons[txn.IP] = txn.Reason
	}
	assert.Equal(t, map[string][]string{
		"10.0.0.5":   {"Banned IP prefix: 10.0.0.", "Currency mismatch for IP prefix: 10.0.0."},
		"172.16.0.9": {"Currency mismatch for IP prefix: 172.16.0."},
		"10.1.1.4":   {"High amount of transaction"},
		"8.8.8.8":    {"High amount of transaction"},
	}, reasons)
}
