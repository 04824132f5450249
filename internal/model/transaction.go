// Package model defines the core data structures for the fraud application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single synthetic financial transaction.
//
// Only ID, UserID, IP, Amount, Currency and CreatedAt are persisted. Suspicious and
// Reason are derived by the rule evaluator and are never read back from storage.
type Transaction struct {
	CreatedAt  time.Time       `json:"created_at"`
	ID         string          `json:"transaction_id"`
	UserID     string          `json:"user_id"`
	IP         string          `json:"ip"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     []string        `json:"reason"`
	Suspicious bool            `json:"suspicious"`
}

// Unclassified returns a copy of the transaction with derived fields reset.
func (t Transaction) Unclassified() Transaction {
	t.Suspicious = false
	t.Reason = []string{}
	return t
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	if t.Reason != nil {
		t.Reason = append([]string(nil), t.Reason...)
	}
	return t
}

// CloneAll deep copies a slice of transactions. A nil input yields nil.
func CloneAll(txns []Transaction) []Transaction {
	if txns == nil {
		return nil
	}
	out := make([]Transaction, len(txns))
	for i, txn := range txns {
		out[i] = txn.Clone()
	}
	return out
}

// UnclassifiedAll resets the derived fields on a copy of every transaction.
func UnclassifiedAll(txns []Transaction) []Transaction {
	out := make([]Transaction, len(txns))
	for i, txn := range txns {
		out[i] = txn.Unclassified()
	}
	return out
}
