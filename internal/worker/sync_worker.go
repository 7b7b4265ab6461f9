package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/sheets"
)

// Stats is a point-in-time view of the worker's mirror.
type Stats struct {
	Events  int
	Count   int
	Balance core.Money
	Stale   bool
	Dirty   bool
	Exports int
}

// SyncWorker rebuilds a mirror of the ledger from published events and
// pushes it to an exporter.
//
// ledger.loaded events carry no records, so after one the mirror is stale
// until the next ledger.cleared; stale mirrors are never exported.
type SyncWorker struct {
	exporter sheets.Exporter

	mu      sync.Mutex
	mirror  *core.Ledger
	events  int
	stale   bool
	dirty   bool
	exports int
}

// NewSyncWorker creates a worker. A nil exporter keeps the mirror without exporting it.
func NewSyncWorker(exporter sheets.Exporter) *SyncWorker {
	return &SyncWorker{
		exporter: exporter,
		mirror:   core.NewLedger(),
	}
}

// HandleLedgerEvent applies one event to the mirror. Returning an error asks
// the broker to redeliver, so malformed records are logged and dropped.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events++
	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"count", ev.Count,
		"balance", ev.Balance)

	switch ev.Type {
	case amqp.EventTransactionAdded:
		if ev.Record == nil {
			slog.WarnContext(ctx, "Dropping transaction event without record")
			return nil
		}
		if _, err := w.mirror.Add(ev.Record.Candidate()); err != nil {
			slog.WarnContext(ctx, "Dropping invalid record", "error", err)
			return nil
		}
		w.dirty = true
	case amqp.EventLedgerCleared:
		w.mirror.Clear()
		w.stale = false
		w.dirty = true
	case amqp.EventLedgerLoaded:
		w.stale = true
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", ev.Type)
		return nil
	}

	w.checkDrift(ctx, ev)
	return nil
}

// checkDrift compares the mirror with the state announced by the publisher.
// Caller must hold w.mu.
func (w *SyncWorker) checkDrift(ctx context.Context, ev *amqp.LedgerEvent) {
	if w.stale {
		return
	}
	balance := core.Balance(w.mirror.All()).String()
	if w.mirror.Len() != ev.Count || balance != ev.Balance {
		slog.WarnContext(ctx, "Mirror drifted from published ledger state, waiting for next clear",
			"mirror_count", w.mirror.Len(),
			"event_count", ev.Count,
			"mirror_balance", balance,
			"event_balance", ev.Balance)
		w.stale = true
	}
}

// Flush exports the mirror when it changed since the last export and is not stale.
func (w *SyncWorker) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.exporter == nil || !w.dirty || w.stale {
		w.mu.Unlock()
		return nil
	}
	records := w.mirror.All()
	w.dirty = false
	w.mu.Unlock()

	ref, err := w.exporter.Export(ctx, records)
	if err != nil {
		w.mu.Lock()
		w.dirty = true
		w.mu.Unlock()
		return fmt.Errorf("export mirror: %w", err)
	}

	w.mu.Lock()
	w.exports++
	w.mu.Unlock()

	slog.InfoContext(ctx, "Exported ledger mirror", "ref", ref, "count", len(records))
	return nil
}

func (w *SyncWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Events:  w.events,
		Count:   w.mirror.Len(),
		Balance: core.Balance(w.mirror.All()),
		Stale:   w.stale,
		Dirty:   w.dirty,
		Exports: w.exports,
	}
}
