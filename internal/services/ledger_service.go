package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/csvcodec"
	"budget/internal/sheets"
)

// ErrExportDisabled is returned by ExportToSheet when no exporter is configured.
var ErrExportDisabled = errors.New("sheet export is not configured")

// LedgerService owns the session ledger and serializes access to it.
// Publisher and exporter are optional.
type LedgerService struct {
	mu        sync.RWMutex
	ledger    *core.Ledger
	publisher amqp.Publisher
	exporter  sheets.Exporter
}

func NewLedgerService(publisher amqp.Publisher, exporter sheets.Exporter) *LedgerService {
	return &LedgerService{
		ledger:    core.NewLedger(),
		publisher: publisher,
		exporter:  exporter,
	}
}

// Add validates the candidate and appends it. Nothing changes on error.
func (s *LedgerService) Add(ctx context.Context, c core.Candidate) (core.Record, error) {
	s.mu.Lock()
	rec, err := s.ledger.Add(c)
	if err != nil {
		s.mu.Unlock()
		return core.Record{}, err
	}
	ev := s.eventLocked(amqp.EventTransactionAdded, &rec)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction added",
		"date", rec.Date.String(),
		"type", rec.Kind,
		"category", rec.Category,
		"amount", rec.Amount.String())
	s.publish(ctx, ev)
	return rec, nil
}

// Records returns the records of the selected month in insertion order.
func (s *LedgerService) Records(_ context.Context, sel core.MonthSelector) []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ForMonth(s.ledger.All(), sel)
}

func (s *LedgerService) Summary(_ context.Context, sel core.MonthSelector) core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.ledger.All(), sel)
}

// Snapshot returns every record together with the version it was taken at.
func (s *LedgerService) Snapshot() ([]core.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.All(), s.ledger.Version()
}

func (s *LedgerService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Version()
}

func (s *LedgerService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Len()
}

func (s *LedgerService) Clear(ctx context.Context) {
	s.mu.Lock()
	s.ledger.Clear()
	ev := s.eventLocked(amqp.EventLedgerCleared, nil)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger cleared")
	s.publish(ctx, ev)
}

// Import decodes a whole CSV document and replaces the ledger with it.
// On any decode error the ledger is left untouched.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (int, error) {
	records, err := csvcodec.Decode(r)
	if err != nil {
		return 0, err
	}
	return s.replace(ctx, records)
}

func (s *LedgerService) replace(ctx context.Context, records []core.Record) (int, error) {
	s.mu.Lock()
	if err := s.ledger.ReplaceAll(records); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	ev := s.eventLocked(amqp.EventLedgerLoaded, nil)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger loaded", "count", len(records))
	s.publish(ctx, ev)
	return len(records), nil
}

// Export writes every record as CSV in insertion order.
func (s *LedgerService) Export(_ context.Context, w io.Writer) error {
	records, _ := s.Snapshot()
	return csvcodec.Encode(w, records)
}

// SaveFile writes the ledger to path and returns the version that was saved.
func (s *LedgerService) SaveFile(ctx context.Context, path string) (uint64, error) {
	records, version := s.Snapshot()
	if err := csvcodec.WriteFile(path, records); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Ledger saved", "path", path, "count", len(records))
	return version, nil
}

// LoadFile replaces the ledger with the contents of path.
func (s *LedgerService) LoadFile(ctx context.Context, path string) (int, error) {
	records, err := csvcodec.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return s.replace(ctx, records)
}

// ExportToSheet pushes the full ledger through the configured exporter.
func (s *LedgerService) ExportToSheet(ctx context.Context) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}
	records, _ := s.Snapshot()
	ref, err := s.exporter.Export(ctx, records)
	if err != nil {
		return "", fmt.Errorf("export to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Ledger exported", "ref", ref, "count", len(records))
	return ref, nil
}

func (s *LedgerService) eventLocked(typ amqp.EventType, rec *core.Record) *amqp.LedgerEvent {
	if s.publisher == nil {
		return nil
	}
	all := s.ledger.All()
	return amqp.NewLedgerEvent(typ, len(all), core.Balance(all), rec)
}

// publish never fails the mutation that triggered it.
func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil || ev == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type, "error", err)
	}
}
