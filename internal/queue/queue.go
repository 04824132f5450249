// Package queue buffers generated transactions in memory and flushes them to the
// durable store in transactional batches.
//
// Records leave the queue only after their batch commits. A failed batch is put back
// at the head of the queue in its original order and retried on the next flush, so
// delivery is at-least-once and ordering is preserved across retries. Retries are
// unbounded and carry no backoff.
//
// Discard starts a new ledger epoch. A batch that was in flight when its ledger was
// discarded is dropped if it fails rather than requeued into the new ledger.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/service"
)

// Stats summarizes queue activity since creation.
type Stats struct {
	LastFlush        time.Time `json:"last_flush"`
	LastError        string    `json:"last_error,omitempty"`
	Pending          int       `json:"pending"`
	CommittedBatches int       `json:"committed_batches"`
	CommittedRecords int       `json:"committed_records"`
	FailedAttempts   int       `json:"failed_attempts"`
	DroppedRecords   int       `json:"dropped_records"`
	SkippedTicks     int       `json:"skipped_ticks"`
	Flushing         bool      `json:"flushing"`
}

// WriteQueue is an ordered in-memory buffer of transactions awaiting persistence.
type WriteQueue struct {
	store    service.BatchInserter
	now      func() time.Time
	pending  []model.Transaction
	stats    Stats
	epoch    uint64
	inflight sync.WaitGroup
	mu       sync.Mutex
	flushing atomic.Bool
}

// New creates an empty queue that flushes into store.
func New(store service.BatchInserter) *WriteQueue {
	return &WriteQueue{
		store: store,
		now:   time.Now,
	}
}

// Enqueue appends transactions to the tail of the queue. It never waits for a flush;
// records enqueued while a flush is running land behind the in-flight batch.
func (q *WriteQueue) Enqueue(txns ...model.Transaction) {
	if len(txns) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, txn := range txns {
		q.pending = append(q.pending, txn.Unclassified())
	}
}

// Len returns the number of records awaiting persistence.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns a copy of the records awaiting persistence, oldest first.
func (q *WriteQueue) Pending() []model.Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.CloneAll(q.pending)
}

// Discard drops every record not yet handed to a flush and returns how many were
// dropped. A batch already in flight finishes its insert, but if that insert fails
// the batch is dropped instead of requeued.
func (q *WriteQueue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.pending)
	q.pending = nil
	q.epoch++
	return dropped
}

// Stats returns a snapshot of queue activity.
func (q *WriteQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.Pending = len(q.pending)
	stats.Flushing = q.flushing.Load()
	return stats
}

// Flush persists the current queue contents as one batch. It returns the number of
// records committed. If another flush is running it returns ErrFlushInProgress
// without touching the queue. On a failed insert the batch is requeued at the head
// and a DurableWriteError is returned.
func (q *WriteQueue) Flush(ctx context.Context) (int, error) {
	if !q.flushing.CompareAndSwap(false, true) {
		return 0, common.ErrFlushInProgress
	}
	defer q.flushing.Store(false)

	return q.flush(ctx)
}

func (q *WriteQueue) flush(ctx context.Context) (int, error) {
	q.mu.Lock()
	batch := q.pending
	epoch := q.epoch
	q.pending = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	err := q.store.InsertBatch(ctx, batch)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.stats.LastFlush = q.now()

	if err != nil && epoch != q.epoch {
		q.stats.FailedAttempts++
		q.stats.LastError = err.Error()
		q.stats.DroppedRecords += len(batch)

		writeErr := &common.DurableWriteError{BatchSize: len(batch), Err: err}
		common.LogError(writeErr, "Failed to flush transactions from a discarded ledger, dropping batch", common.Fields{
			"batch_size": len(batch),
			"pending":    len(q.pending),
		})
		return 0, writeErr
	}

	if err != nil {
		requeued := make([]model.Transaction, 0, len(batch)+len(q.pending))
		requeued = append(requeued, batch...)
		requeued = append(requeued, q.pending...)
		q.pending = requeued

		q.stats.FailedAttempts++
		q.stats.LastError = err.Error()

		writeErr := &common.DurableWriteError{BatchSize: len(batch), Err: err}
		common.LogError(writeErr, "Failed to flush transactions, will retry", common.Fields{
			"batch_size": len(batch),
			"pending":    len(q.pending),
		})
		return 0, writeErr
	}

	q.stats.CommittedBatches++
	q.stats.CommittedRecords += len(batch)
	q.stats.LastError = ""

	common.LogInfo("Flushed transactions to storage", common.Fields{
		"count":   len(batch),
		"pending": len(q.pending),
	})
	return len(batch), nil
}

// Run flushes the queue on every tick until ctx is cancelled. Each flush runs in the
// background; a tick that arrives while a flush is still running is skipped. Run
// waits for the in-flight flush before returning.
//
// Flushes are not bound to ctx: a batch that has started is allowed to finish so it
// is either committed or requeued.
func (q *WriteQueue) Run(ctx context.Context, ticks <-chan time.Time) {
	defer q.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			q.tick(context.WithoutCancel(ctx))
		}
	}
}

func (q *WriteQueue) tick(ctx context.Context) {
	if !q.flushing.CompareAndSwap(false, true) {
		q.mu.Lock()
		q.stats.SkippedTicks++
		q.mu.Unlock()
		slog.Debug("Skipping flush tick, previous flush still running")
		return
	}

	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		defer q.flushing.Store(false)

		// Failures are logged and requeued by flush.
		_, _ = q.flush(ctx)
	}()
}

// Drain flushes until the queue is empty, ctx is done, or a flush fails. It is used
// at shutdown and by one-shot commands. progress, if not nil, is called with the
// number of records committed by each successful flush.
func (q *WriteQueue) Drain(ctx context.Context, progress func(committed int)) error {
	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := q.Flush(ctx)
		if errors.Is(err, common.ErrFlushInProgress) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		if progress != nil && n > 0 {
			progress(n)
		}
	}
	return nil
}
