package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ledgerCSV = "Date,Type,Category,Amount,Description\n" +
	"2025-01-15,Income,Salary,1000.00,\n" +
	"2025-01-16,Expense,Food,150.50,groceries\n" +
	"2025-02-03,Expense,Bills,75.00,\n"

func writeLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunHuman(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeLedger(t, ledgerCSV), "-month", "January"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	s := out.String()
	for _, want := range []string{"January: 2 transactions", "Balance: $849.50", "Food", "150.50"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Bills") {
		t.Errorf("February expense leaked into January:\n%s", s)
	}
}

func TestRunJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeLedger(t, ledgerCSV), "-json"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}

	var r report
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Month != "All Time" || r.Count != 3 || r.Balance != "774.50" {
		t.Errorf("report = %+v", r)
	}
	if r.ByCategory["Bills"] != "75.00" || r.ByCategory["Food"] != "150.50" {
		t.Errorf("by category = %v", r.ByCategory)
	}
}

func TestRunWritesChart(t *testing.T) {
	chartPath := filepath.Join(t.TempDir(), "pie.png")
	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeLedger(t, ledgerCSV), "-chart", chartPath}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	b, err := os.ReadFile(chartPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
}

func TestRunReportsBadLine(t *testing.T) {
	bad := "Date,Type,Category,Amount,Description\n2025-01-15,Income,Salary,abc,\n"
	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeLedger(t, bad)}, &out, &errOut)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "line 2") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Errorf("missing -file exit = %d, want 2", code)
	}
	if code := run([]string{"-file", "x.csv", "-month", "Smarch"}, &out, &errOut); code != 2 {
		t.Errorf("bad month exit = %d, want 2", code)
	}
	if code := run([]string{"-file", filepath.Join(t.TempDir(), "missing.csv")}, &out, &errOut); code != 1 {
		t.Errorf("missing file exit = %d, want 1", code)
	}
}
