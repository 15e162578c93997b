package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"backrefs/internal/core/ports"
	"backrefs/internal/data/index"
	"backrefs/internal/data/queue"
	"backrefs/internal/shared/observability"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

func (a *App) initWriteQueue() error {
	if a == nil || a.Config == nil || a.store == nil {
		return nil
	}

	a.writeQueue = queue.NewMemoryQueue(a.Config.Queue.Capacity)

	spool, err := queue.OpenSQLiteSpool(a.Paths.SpoolPath, "default")
	if err != nil {
		return err
	}
	a.writeSpool = spool

	return a.startWriteWorker()
}

func (a *App) startWriteWorker() error {
	if a == nil || a.writeQueue == nil || a.workerCancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runWriteWorker(ctx)
	return nil
}

func (a *App) runWriteWorker(ctx context.Context) {
	defer close(a.workerDone)

	batchSize := a.Config.Queue.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	batchWait := a.Config.Queue.BatchWait
	if batchWait <= 0 {
		batchWait = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		memoryBatch, err := a.writeQueue.DequeueBatch(ctx, batchSize, batchWait)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			slog.Warn("write queue dequeue failed", "error", err)
			continue
		}
		if errors.Is(err, context.Canceled) {
			return
		}

		requests := make([]ports.WriteRequest, 0, batchSize)
		requests = append(requests, memoryBatch...)

		spooled := make([]ports.SpoolRow, 0)
		if len(requests) < batchSize && a.writeSpool != nil {
			rows, spoolErr := a.writeSpool.DequeueBatch(ctx, batchSize-len(requests))
			if spoolErr != nil {
				slog.Warn("write spool dequeue failed", "error", spoolErr)
			} else {
				for _, row := range rows {
					requests = append(requests, row.Request)
				}
				spooled = rows
			}
		}

		if len(requests) == 0 {
			a.updateQueueMetrics()
			if errors.Is(err, io.EOF) {
				return
			}
			continue
		}

		started := time.Now()
		if applyErr := a.applyWriteBatch(ctx, requests); applyErr != nil {
			observability.WriteQueueApplyErrorsTotal.Inc()
			slog.Warn("write worker apply failed", "error", applyErr, "batch_size", len(requests))
			a.handleWriteFailure(spooled, memoryBatch, applyErr)
		} else {
			observability.WriteQueueProcessedTotal.Add(float64(len(requests)))
			if a.writeSpool != nil && len(spooled) > 0 {
				ids := make([]int64, 0, len(spooled))
				for _, row := range spooled {
					ids = append(ids, row.ID)
				}
				if ackErr := a.writeSpool.Ack(ids); ackErr != nil {
					slog.Warn("write spool ack failed", "error", ackErr, "count", len(ids))
				}
			}
			observability.WriteQueueFlushLatencySeconds.Observe(time.Since(started).Seconds())
		}
		a.updateQueueMetrics()
	}
}

func (a *App) handleWriteFailure(spooled []ports.SpoolRow, memoryBatch []ports.WriteRequest, applyErr error) {
	if a == nil || a.writeSpool == nil {
		return
	}
	for _, req := range memoryBatch {
		if err := a.writeSpool.Enqueue(req); err != nil {
			slog.Warn("failed to spill memory request to spool", "error", err, "operation", req.Operation)
		} else {
			observability.WriteQueueSpilledTotal.Inc()
		}
	}
	if len(spooled) == 0 {
		return
	}

	maxAttempts := 0
	for _, row := range spooled {
		if row.Attempts > maxAttempts {
			maxAttempts = row.Attempts
		}
	}
	nextAttempt := time.Now().Add(backoffDelay(maxAttempts + 1))
	if err := a.writeSpool.Nack(spooled, nextAttempt, applyErr.Error()); err != nil {
		slog.Warn("write spool nack failed", "error", err, "count", len(spooled))
		return
	}
	observability.WriteQueueRetryTotal.Add(float64(len(spooled)))
}

func backoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := retryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}

// enqueueWrite hands a fact write to the async pipeline: memory queue first,
// spool on overflow, synchronous apply as a last resort.
func (a *App) enqueueWrite(ctx context.Context, req ports.WriteRequest) error {
	if a == nil || a.store == nil {
		return nil
	}
	if a.writeQueue == nil {
		return a.applyWriteRequest(ctx, req)
	}
	result := a.writeQueue.Enqueue(req)
	switch result {
	case ports.EnqueueAccepted:
		observability.WriteQueueEnqueuedTotal.Inc()
		a.updateQueueMetrics()
		return nil
	case ports.EnqueueDropped:
		observability.WriteQueueDroppedTotal.Inc()
		if a.writeSpool != nil {
			if err := a.writeSpool.Enqueue(req); err != nil {
				return a.applyWriteRequest(ctx, req)
			}
			observability.WriteQueueSpilledTotal.Inc()
			a.updateQueueMetrics()
			return nil
		}
		return a.applyWriteRequest(ctx, req)
	default:
		return fmt.Errorf("unknown enqueue result %q", result)
	}
}

func (a *App) applyWriteBatch(ctx context.Context, batch []ports.WriteRequest) error {
	for _, req := range batch {
		if err := a.applyWriteRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) applyWriteRequest(ctx context.Context, req ports.WriteRequest) error {
	if a == nil || a.store == nil {
		return nil
	}
	switch req.Operation {
	case ports.WriteReplace:
		return a.store.ReplaceUnit(ctx, req.Facts)
	case ports.WriteDelete:
		return a.store.DeleteUnit(ctx, req.UnitPath())
	default:
		return fmt.Errorf("unsupported write operation %q", req.Operation)
	}
}

func (a *App) stopWriteWorker(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.workerCancel != nil {
		a.workerCancel()
		a.workerCancel = nil
	}
	if a.workerDone != nil {
		select {
		case <-a.workerDone:
		case <-ctx.Done():
			return ctx.Err()
		}
		a.workerDone = nil
	}
	if err := a.drainWriteQueue(ctx); err != nil {
		return err
	}
	if a.writeQueue != nil {
		if err := a.writeQueue.Close(); err != nil {
			return err
		}
		a.writeQueue = nil
	}
	if a.writeSpool != nil {
		if err := a.writeSpool.Close(); err != nil {
			return err
		}
		a.writeSpool = nil
	}
	return nil
}

func (a *App) drainWriteQueue(ctx context.Context) error {
	if a == nil {
		return nil
	}
	batchSize := a.Config.Queue.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	for {
		batch := make([]ports.WriteRequest, 0, batchSize)
		if a.writeQueue != nil {
			memBatch, err := a.writeQueue.DequeueBatch(ctx, batchSize, 0)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			batch = append(batch, memBatch...)
		}
		if len(batch) < batchSize && a.writeSpool != nil {
			rows, err := a.writeSpool.DequeueBatch(ctx, batchSize-len(batch))
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				for _, row := range rows {
					batch = append(batch, row.Request)
				}
				ids := make([]int64, 0, len(rows))
				for _, row := range rows {
					ids = append(ids, row.ID)
				}
				if err := a.applyWriteBatch(ctx, batch); err != nil {
					nextAttempt := time.Now().Add(backoffDelay(1))
					_ = a.writeSpool.Nack(rows, nextAttempt, err.Error())
					return err
				}
				if err := a.writeSpool.Ack(ids); err != nil {
					return err
				}
				continue
			}
		}
		if len(batch) == 0 {
			return nil
		}
		if err := a.applyWriteBatch(ctx, batch); err != nil {
			return err
		}
	}
}

// waitForQueueDrain blocks until the async writer has applied everything that
// was enqueued, so reads after a scan see the full fact set.
func (a *App) waitForQueueDrain(ctx context.Context) error {
	if a == nil || a.writeQueue == nil {
		return nil
	}
	wait := a.Config.Queue.BatchWait
	if wait <= 0 {
		wait = 100 * time.Millisecond
	}
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	// A dequeued batch is invisible to Len(), so require two consecutive
	// empty readings at least one batch interval apart.
	emptySince := time.Time{}
	for {
		pending := a.writeQueue.Len()
		if pending == 0 && a.writeSpool != nil {
			count, err := a.writeSpool.PendingCount(ctx)
			if err == nil {
				pending = count
			}
		}
		if pending == 0 {
			if emptySince.IsZero() {
				emptySince = time.Now()
			} else if time.Since(emptySince) >= wait {
				return nil
			}
		} else {
			emptySince = time.Time{}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *App) updateQueueMetrics() {
	if a == nil {
		return
	}
	if a.writeQueue != nil {
		observability.WriteQueueDepth.Set(float64(a.writeQueue.Len()))
	}
	if a.writeSpool != nil {
		if count, err := a.writeSpool.PendingCount(context.Background()); err == nil {
			observability.WriteSpoolDepth.Set(float64(count))
		}
	}
	if s, ok := a.store.(*index.Store); ok {
		if units, refs, _, err := s.Counts(context.Background()); err == nil {
			observability.IndexedUnits.Set(float64(units))
			observability.IndexedReferences.Set(float64(refs))
		}
	}
}
