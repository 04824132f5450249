// Package engine orchestrates generation, buffering, caching, rule evaluation and
// reporting of transactions for external callers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/the-fraud-must-flow/internal/cache"
	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/queue"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
	"github.com/Veraticus/the-fraud-must-flow/internal/service"
)

// Generator produces synthetic transaction batches.
type Generator interface {
	Generate() []model.Transaction
}

// Result is the outcome of one rule application.
type Result struct {
	All        []model.Transaction
	Suspicious []model.Transaction
	// Skipped lists rules that could not be compiled and were ignored.
	Skipped []string
}

// FraudEngine is the query/mutation facade over the fraud core. It owns the write
// queue and the snapshot cache.
type FraudEngine struct {
	store     service.Store
	generator Generator
	evaluator *rules.Evaluator
	notifier  service.Notifier
	queue     *queue.WriteQueue
	cache     *cache.Snapshot
	// mu serializes mutations of the ledger (reseed, rule application).
	mu sync.Mutex
}

// New creates an engine with a fresh queue and cache over store.
func New(store service.Store, generator Generator, evaluator *rules.Evaluator, notifier service.Notifier) *FraudEngine {
	return &FraudEngine{
		store:     store,
		generator: generator,
		evaluator: evaluator,
		notifier:  notifier,
		queue:     queue.New(store),
		cache:     cache.NewSnapshot(store),
	}
}

// Queue returns the engine's write queue, for running its flush loop.
func (e *FraudEngine) Queue() *queue.WriteQueue {
	return e.queue
}

// Generate replaces the ledger with a freshly generated batch. The store is
// truncated first; if that fails nothing else changes. The new batch is visible to
// reads immediately and is persisted by the write queue in the background.
func (e *FraudEngine) Generate(ctx context.Context) ([]model.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear existing transactions: %w", err)
	}

	if dropped := e.queue.Discard(); dropped > 0 {
		slog.Warn("Discarded unflushed transactions from the previous ledger", "count", dropped)
	}

	batch := e.generator.Generate()
	e.cache.Replace(batch)
	e.queue.Enqueue(batch...)

	slog.Info("Generated transactions", "count", len(batch))
	return model.CloneAll(batch), nil
}

// ApplyRules classifies the cached ledger against specs and caches the result. An
// empty rule list resets every record to non-suspicious and marks the suspicious
// view as never classified.
func (e *FraudEngine) ApplyRules(ctx context.Context, specs []model.RuleSpec) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(specs) == 0 {
		slog.Info("No rules supplied, clearing classification")
		all, err := e.cache.ResetClassification(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{All: all, Suspicious: []model.Transaction{}, Skipped: []string{}}, nil
	}

	current, err := e.cache.ReadAll(ctx)
	if err != nil {
		return Result{}, err
	}

	compiled, errs := rules.Compile(specs, e.evaluator.Policy())
	skipped := make([]string, 0, len(errs))
	for _, err := range errs {
		slog.Warn("Skipping invalid rule", "error", err)
		var ruleErr *common.InvalidRuleError
		if errors.As(err, &ruleErr) {
			skipped = append(skipped, ruleErr.Rule)
		}
	}

	all, suspicious := e.evaluator.Apply(current, compiled)
	e.cache.SetClassified(all, suspicious)

	slog.Info("Applied fraud rules",
		"rules", len(compiled),
		"skipped", len(skipped),
		"transactions", len(all),
		"suspicious", len(suspicious))

	return Result{All: all, Suspicious: suspicious, Skipped: skipped}, nil
}

// Transactions returns the full ledger, reading through to storage on a cache miss.
func (e *FraudEngine) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return e.cache.ReadAll(ctx)
}

// SuspiciousTransactions returns the last classified suspicious subset, or an empty
// list when no classification has run.
func (e *FraudEngine) SuspiciousTransactions() []model.Transaction {
	return e.cache.ReadSuspicious()
}

// SendReport sends the current suspicious snapshot to the recipient. It reports
// false without attempting delivery when there is nothing to send.
func (e *FraudEngine) SendReport(ctx context.Context, to string) (bool, error) {
	suspicious, err := e.cache.Suspicious()
	if errors.Is(err, common.ErrCacheMiss) || len(suspicious) == 0 {
		slog.Info("No suspicious transactions to report", "to", to)
		return false, nil
	}

	if err := e.notifier.Send(ctx, service.Report{To: to, Transactions: suspicious}); err != nil {
		common.LogError(err, "Failed to send report", common.Fields{"to": to})
		return false, err
	}
	return true, nil
}

// Flush persists the write queue now.
func (e *FraudEngine) Flush(ctx context.Context) (int, error) {
	return e.queue.Flush(ctx)
}

// QueueStats reports write queue activity.
func (e *FraudEngine) QueueStats() queue.Stats {
	return e.queue.Stats()
}
