// Package chart renders aggregator output as PNG pie charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"budget/internal/core"
)

// ErrNoData means there is nothing to draw. Callers hide the chart instead.
var ErrNoData = errors.New("chart: no data")

const (
	width  = 512
	height = 512
)

var (
	incomeColor  = drawing.ColorFromHex("16a34a") // green-600
	expenseColor = drawing.ColorFromHex("dc2626") // red-600
)

// RenderBreakdownPie draws one slice per expense category, labelled with its
// share of total spending.
func RenderBreakdownPie(title string, b core.Breakdown) ([]byte, error) {
	if b.Empty() {
		return nil, ErrNoData
	}
	total := b.Total()
	values := make([]chart.Value, 0, len(b))
	for _, c := range b {
		values = append(values, chart.Value{
			Label: sliceLabel(c.Name, c.Amount, total),
			Value: c.Amount.Float(),
		})
	}
	return render(title, values)
}

// RenderTotalsPie draws income against expense. A side with no amount is left out.
func RenderTotalsPie(title string, t core.Totals) ([]byte, error) {
	if t.Empty() {
		return nil, ErrNoData
	}
	sum := t.Income.Add(t.Expense)
	var values []chart.Value
	if !t.Income.IsZero() {
		values = append(values, chart.Value{
			Label: sliceLabel("Income", t.Income, sum),
			Value: t.Income.Float(),
			Style: chart.Style{FillColor: incomeColor},
		})
	}
	if !t.Expense.IsZero() {
		values = append(values, chart.Value{
			Label: sliceLabel("Expense", t.Expense, sum),
			Value: t.Expense.Float(),
			Style: chart.Style{FillColor: expenseColor},
		})
	}
	return render(title, values)
}

func sliceLabel(name string, part, total core.Money) string {
	pct := float64(part.Cents) * 100 / float64(total.Cents)
	return fmt.Sprintf("%s %.1f%%", name, pct)
}

func render(title string, values []chart.Value) ([]byte, error) {
	pie := chart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
