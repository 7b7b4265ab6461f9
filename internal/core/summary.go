package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Breakdown lists expense totals per category in order of first occurrence.
type Breakdown []CategoryAmount

// Totals is the income-vs-expense split for a record sequence.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// Summary is everything a view needs to refresh after a mutation.
type Summary struct {
	Month      MonthSelector
	Count      int
	Totals     Totals
	ByCategory Breakdown
}

// Balance is the sum of income minus the sum of expenses.
func Balance(records []Record) Money {
	return TotalsOf(records).Balance
}

// TotalsOf sums income and expense separately. Sums are exact in cents.
func TotalsOf(records []Record) Totals {
	var t Totals
	for _, r := range records {
		switch r.Kind {
		case Income:
			t.Income = t.Income.Add(r.Amount)
		case Expense:
			t.Expense = t.Expense.Add(r.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// CategoryBreakdown sums expense amounts per category. Income records are
// ignored and categories without expenses never appear.
func CategoryBreakdown(records []Record) Breakdown {
	idx := map[string]int{}
	var out Breakdown
	for _, r := range records {
		if r.Kind != Expense || r.Amount.IsZero() {
			continue
		}
		i, ok := idx[r.Category]
		if !ok {
			idx[r.Category] = len(out)
			out = append(out, CategoryAmount{Name: r.Category, Amount: r.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	return out
}

// Empty reports that there is nothing to chart.
func (b Breakdown) Empty() bool {
	return len(b) == 0
}

func (b Breakdown) Total() Money {
	var total Money
	for _, c := range b {
		total = total.Add(c.Amount)
	}
	return total
}

func (b Breakdown) Map() map[string]Money {
	m := make(map[string]Money, len(b))
	for _, c := range b {
		m[c.Name] = c.Amount
	}
	return m
}

// Empty reports that there is neither income nor expense.
func (t Totals) Empty() bool {
	return t.Income.IsZero() && t.Expense.IsZero()
}

// Summarize filters records by month and aggregates the result.
func Summarize(records []Record, sel MonthSelector) Summary {
	view := ForMonth(records, sel)
	return Summary{
		Month:      sel,
		Count:      len(view),
		Totals:     TotalsOf(view),
		ByCategory: CategoryBreakdown(view),
	}
}
