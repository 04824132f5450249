package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

type mockReader struct {
	err   error
	txns  []model.Transaction
	calls int
	mu    sync.Mutex
}

func (m *mockReader) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return model.CloneAll(m.txns), nil
}

func (m *mockReader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func sample(id string) model.Transaction {
	return model.Transaction{
		ID:        id,
		UserID:    "u",
		IP:        "10.0.0.1",
		Currency:  "AED",
		Amount:    decimal.NewFromInt(1),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSnapshot_ReadAllReadsThroughOnce(t *testing.T) {
	ctx := context.Background()
	store := &mockReader{}
	c := NewSnapshot(store)

	first, err := c.ReadAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, first)
	assert.Empty(t, first)

	second, err := c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, 1, store.callCount())
}

func TestSnapshot_ReadAllDecoratesDefaults(t *testing.T) {
	stored := sample("a")
	stored.Suspicious = true
	stored.Reason = []string{"stale"}
	c := NewSnapshot(&mockReader{txns: []model.Transaction{stored}})

	got, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Suspicious)
	assert.Equal(t, []string{}, got[0].Reason)
}

func TestSnapshot_ReadAllErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &mockReader{err: errors.New("db down")}
	c := NewSnapshot(store)

	_, err := c.ReadAll(ctx)
	require.Error(t, err)

	store.mu.Lock()
	store.err = nil
	store.txns = []model.Transaction{sample("a")}
	store.mu.Unlock()

	got, err := c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, store.callCount())
}

func TestSnapshot_SuspiciousMissDoesNotReadThrough(t *testing.T) {
	store := &mockReader{txns: []model.Transaction{sample("a")}}
	c := NewSnapshot(store)

	_, err := c.Suspicious()
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	got := c.ReadSuspicious()
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, store.callCount())
}

func TestSnapshot_AbsentVersusEmpty(t *testing.T) {
	c := NewSnapshot(&mockReader{})

	c.SetSuspicious(nil)
	got, err := c.Suspicious()
	require.NoError(t, err, "an empty classification is still authoritative")
	assert.Empty(t, got)

	c.ClearSuspicious()
	_, err = c.Suspicious()
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestSnapshot_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store := &mockReader{}
	c := NewSnapshot(store)

	c.SetClassified([]model.Transaction{sample("a")}, []model.Transaction{sample("a")})
	c.InvalidateAll()

	_, err := c.All()
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = c.Suspicious()
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	_, err = c.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.callCount())
}

func TestSnapshot_Replace(t *testing.T) {
	store := &mockReader{}
	c := NewSnapshot(store)
	c.SetSuspicious([]model.Transaction{sample("old")})

	fresh := sample("new")
	fresh.Suspicious = true
	c.Replace([]model.Transaction{fresh})

	_, err := c.Suspicious()
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	all, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].ID)
	assert.False(t, all[0].Suspicious)
	assert.Zero(t, store.callCount())
}

func TestSnapshot_ResetClassification(t *testing.T) {
	c := NewSnapshot(&mockReader{})

	flagged := sample("a")
	flagged.Suspicious = true
	flagged.Reason = []string{"Banned IP prefix: 10.0.0."}
	c.SetClassified([]model.Transaction{flagged}, []model.Transaction{flagged})

	reset, err := c.ResetClassification(context.Background())
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.False(t, reset[0].Suspicious)
	assert.Empty(t, reset[0].Reason)

	_, err = c.Suspicious()
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	all, err := c.All()
	require.NoError(t, err)
	assert.False(t, all[0].Suspicious)
}

func TestSnapshot_ReturnsCopies(t *testing.T) {
	c := NewSnapshot(&mockReader{})
	flagged := sample("a")
	flagged.Reason = []string{"r1"}
	c.SetAll([]model.Transaction{flagged})

	got, err := c.All()
	require.NoError(t, err)
	got[0].ID = "mutated"
	got[0].Reason[0] = "mutated"

	again, err := c.All()
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].ID)
	assert.Equal(t, []string{"r1"}, again[0].Reason)
}
