package http

import (
	"strings"

	"budget/internal/core"
)

type recordJSON struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type categoryJSON struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type summaryJSON struct {
	Month        string         `json:"month"`
	Count        int            `json:"count"`
	Income       string         `json:"income"`
	Expense      string         `json:"expense"`
	Balance      string         `json:"balance"`
	BalanceLabel string         `json:"balance_label"`
	ByCategory   []categoryJSON `json:"by_category"`
}

func toRecordJSON(r core.Record) recordJSON {
	return recordJSON{
		Date:        r.Date.String(),
		Type:        r.Kind.String(),
		Category:    r.Category,
		Amount:      r.Amount.String(),
		Description: r.Description,
	}
}

func toRecordsJSON(records []core.Record) []recordJSON {
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordJSON(r))
	}
	return out
}

func toSummaryJSON(s core.Summary) summaryJSON {
	cats := make([]categoryJSON, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		cats = append(cats, categoryJSON{Name: c.Name, Amount: c.Amount.String()})
	}
	return summaryJSON{
		Month:        s.Month.String(),
		Count:        s.Count,
		Income:       s.Totals.Income.String(),
		Expense:      s.Totals.Expense.String(),
		Balance:      s.Totals.Balance.String(),
		BalanceLabel: core.FormatBalance(s.Totals.Balance),
		ByCategory:   cats,
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
