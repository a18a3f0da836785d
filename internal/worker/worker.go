// Package worker runs the background reconciliation sweep: pending
// gateway transactions that have gone stale are re-polled against the
// gateway and settled with its authoritative answer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/harborworks/drydock/internal/service"
	"github.com/harborworks/drydock/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to sweep for stale transactions
	PollInterval time.Duration

	// StaleAfter is how long a transaction may sit pending before the
	// worker re-polls the gateway for it
	StaleAfter time.Duration

	// BatchSize caps how many transactions one sweep resolves
	BatchSize int32
}

// Worker periodically reconciles stale pending transactions.
type Worker struct {
	config Config
	ledger service.LedgerService
	logger *slog.Logger
}

// NewWorker creates a new reconciliation worker
func NewWorker(ledger service.LedgerService, config Config, logger *slog.Logger) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("reconciler-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.StaleAfter == 0 {
		config.StaleAfter = 5 * time.Minute
	}
	if config.BatchSize == 0 {
		config.BatchSize = 50
	}

	return &Worker{
		config: config,
		ledger: ledger,
		logger: logger,
	}
}

// Start sweeps until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("reconciliation worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
		"stale_after", w.config.StaleAfter,
		"batch_size", w.config.BatchSize,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// One sweep in flight at a time; a slow gateway must not pile up
	// overlapping sweeps.
	sem := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconciliation worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				go func() {
					defer func() { <-sem }()
					w.sweep(ctx)
				}()
			default:
				// Previous sweep still running, skip this tick
			}
		}
	}
}

// sweep resolves one batch of stale pending transactions.
func (w *Worker) sweep(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-w.config.StaleAfter)

	resolved, err := w.ledger.ResolvePending(ctx, cutoff, w.config.BatchSize)
	if telemetry.Business != nil {
		telemetry.Business.ResolveDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		w.logger.Error("reconciliation sweep failed",
			"worker_id", w.config.WorkerID,
			"error", err,
		)
		return
	}

	if resolved > 0 {
		w.logger.Info("reconciliation sweep settled transactions",
			"worker_id", w.config.WorkerID,
			"resolved", resolved,
			"duration", time.Since(start),
		)
	}
}
