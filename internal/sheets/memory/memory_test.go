package memory

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
)

func sample() []core.Record {
	return []core.Record{
		{Date: core.NewDate(2025, 1, 15), Kind: core.Income, Category: "Salary", Amount: core.MustAmount("1000")},
		{Date: core.NewDate(2025, 1, 16), Kind: core.Expense, Category: "Food", Amount: core.MustAmount("150.50"), Description: "groceries, market"},
	}
}

func TestMemoryStoreExport(t *testing.T) {
	s := New()
	ref, err := s.Export(context.Background(), sample())
	if err != nil || ref != "mem:1:2" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][4] != "Description" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][3] != "1000.00" || rows[2][4] != "groceries, market" {
		t.Fatalf("unexpected rows: %v", rows[1:])
	}
}

func TestMemoryStoreExportReplacesSnapshot(t *testing.T) {
	s := New()
	_, _ = s.Export(context.Background(), sample())
	ref, err := s.Export(context.Background(), nil)
	if err != nil || ref != "mem:2:0" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	if rows := s.Rows(); len(rows) != 1 {
		t.Fatalf("expected header only, got %v", rows)
	}
	if s.Exports() != 2 {
		t.Fatalf("exports = %d, want 2", s.Exports())
	}
}

func TestMemoryStoreRejectsInvalidRecord(t *testing.T) {
	s := New()
	_, err := s.Export(context.Background(), []core.Record{{Kind: core.Expense, Amount: core.Money{Cents: 1}}})
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if s.Exports() != 0 || len(s.Rows()) != 0 {
		t.Fatal("failed export must not change the snapshot")
	}
}
