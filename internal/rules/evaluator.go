package rules

import (
	"log/slog"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// Evaluator classifies transactions against a fraud policy.
type Evaluator struct {
	policy Policy
}

// NewEvaluator creates an evaluator for the given policy.
func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Policy returns the evaluator's policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate classifies every transaction against specs and returns the full classified
// set, in input order, and the suspicious subset. The input slice is never modified.
//
// Rules are applied cumulatively in spec order; a record matching several rules lists
// every reason. Invalid specs and records with a malformed IP are skipped.
func (e *Evaluator) Evaluate(txns []model.Transaction, specs []model.RuleSpec) (all, suspicious []model.Transaction) {
	compiled, errs := Compile(specs, e.policy)
	for _, err := range errs {
		slog.Warn("Skipping invalid rule", "error", err)
	}
	return e.Apply(txns, compiled)
}

// Apply is Evaluate with already compiled rules.
func (e *Evaluator) Apply(txns []model.Transaction, compiled []Rule) (all, suspicious []model.Transaction) {
	all = make([]model.Transaction, len(txns))
	suspicious = []model.Transaction{}

	for i, txn := range txns {
		classified := txn.Unclassified()

		if len(compiled) > 0 {
			prefix, err := IPPrefix(txn.IP)
			if err != nil {
				slog.Warn("Skipping rule evaluation for transaction",
					"transaction_id", txn.ID,
					"error", err)
			} else {
				for _, rule := range compiled {
					if reason, ok := rule.Match(txn, prefix); ok {
						classified.Suspicious = true
						classified.Reason = append(classified.Reason, reason)
					}
				}
			}
		}

		all[i] = classified
		if classified.Suspicious {
			suspicious = append(suspicious, classified.Clone())
		}
	}

	return all, suspicious
}
