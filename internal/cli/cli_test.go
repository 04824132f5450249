package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

func TestWriteTransactions(t *testing.T) {
	txns := []model.Transaction{
		{
			ID:        "clean-1",
			UserID:    "00ab12",
			IP:        "192.168.1.7",
			Currency:  "USD",
			Amount:    decimal.RequireFromString("12.5"),
			CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			Reason:    []string{},
		},
		{
			ID:         "flagged-1",
			UserID:     "ff0001",
			IP:         "10.0.0.5",
			Currency:   "USD",
			Amount:     decimal.NewFromInt(500),
			CreatedAt:  time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC),
			Suspicious: true,
			Reason:     []string{"Banned IP prefix: 10.0.0.", "Currency mismatch for IP prefix: 10.0.0."},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))

	out := buf.String()
	assert.Contains(t, out, "Transaction")
	assert.Contains(t, out, "clean-1")
	assert.Contains(t, out, "12.50 USD")
	assert.Contains(t, out, "500.00 USD")
	assert.Contains(t, out, "Banned IP prefix: 10.0.0.; Currency mismatch for IP prefix: 10.0.0.")
}

func TestWriteTransactions_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, nil))
	assert.Contains(t, buf.String(), "Reason")
}

func TestSummary(t *testing.T) {
	out := Summary(50, 10, []string{"geo_velocity"})
	assert.Contains(t, out, "Transactions: 50")
	assert.Contains(t, out, "Suspicious: 10")
	assert.Contains(t, out, "Skipped rules: geo_velocity")

	assert.NotContains(t, Summary(50, 0, nil), "Skipped rules")
}

func TestFlushProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewFlushProgress(&buf, 50)
	p.Add(20)
	p.Add(30)
	assert.Equal(t, 50, p.Done())
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, FormatTitle("Fraud"), "Fraud")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}

func TestFormatPartialPersist(t *testing.T) {
	out := FormatPartialPersist(20, 50)
	assert.Contains(t, out, "Persisted 20 of 50 generated transactions")
	assert.Contains(t, out, "⚠️")
}
