package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// BaseTime is the creation time of the first built transaction.
var BaseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// TransactionBuilder builds transactions with predictable ids and strictly
// increasing creation times, one minute apart, starting at BaseTime.
type TransactionBuilder struct {
	txns []model.Transaction
}

// NewTransactionBuilder creates an empty builder.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{}
}

// With adds a transaction from ip in currency for amount. It panics on an
// unparseable amount.
func (b *TransactionBuilder) With(ip, currency, amount string) *TransactionBuilder {
	n := len(b.txns)
	b.txns = append(b.txns, model.Transaction{
		ID:        fmt.Sprintf("txn-%03d", n+1),
		UserID:    fmt.Sprintf("%06x", n+1),
		IP:        ip,
		Currency:  currency,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: BaseTime.Add(time.Duration(n) * time.Minute),
		Reason:    []string{},
	})
	return b
}

// WithClean adds n transactions that trip none of the default rules.
func (b *TransactionBuilder) WithClean(n int) *TransactionBuilder {
	for i := 0; i < n; i++ {
		b.With(fmt.Sprintf("192.168.1.%d", i%254+1), "USD", "25.00")
	}
	return b
}

// WithScenarios adds one transaction per interesting default-policy case:
// banned with mismatched currency, mismatch only, high only, and an unmapped
// prefix.
func (b *TransactionBuilder) WithScenarios() *TransactionBuilder {
	return b.
		With("10.0.0.5", "USD", "500").
		With("172.16.0.9", "GBP", "20").
		With("10.1.1.4", "GBP", "1000.01").
		With("8.8.8.8", "JPY", "1000000")
}

// Build returns the transactions in insertion order.
func (b *TransactionBuilder) Build() []model.Transaction {
	return model.CloneAll(b.txns)
}
