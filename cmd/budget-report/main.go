package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/csvcodec"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type report struct {
	File       string            `json:"file"`
	Month      string            `json:"month"`
	Count      int               `json:"count"`
	Income     string            `json:"income"`
	Expense    string            `json:"expense"`
	Balance    string            `json:"balance"`
	ByCategory map[string]string `json:"by_category"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("budget-report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file       string
		month      string
		outputJSON bool
		chartPath  string
	)
	fs.StringVar(&file, "file", "", "Path to ledger CSV")
	fs.StringVar(&month, "month", "", "Month name or number (default: all time)")
	fs.BoolVar(&outputJSON, "json", false, "Output JSON summary")
	fs.StringVar(&chartPath, "chart", "", "Write the category pie chart PNG to this path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fs.Usage()
		return 2
	}

	sel, err := core.ParseMonthSelector(month)
	if err != nil {
		fmt.Fprintf(stderr, "invalid month %q\n", month)
		return 2
	}

	records, err := csvcodec.ReadFile(file)
	if err != nil {
		var rowErr *csvcodec.RowError
		if errors.As(err, &rowErr) {
			fmt.Fprintf(stderr, "%s: line %d: %v\n", file, rowErr.Line, rowErr.Err)
		} else {
			fmt.Fprintf(stderr, "read ledger failed: %v\n", err)
		}
		return 1
	}

	sum := core.Summarize(records, sel)

	if chartPath != "" {
		png, err := chart.RenderBreakdownPie("Expenses by Category ("+sel.String()+")", sum.ByCategory)
		switch {
		case errors.Is(err, chart.ErrNoData):
			fmt.Fprintln(stderr, "no expenses to chart")
		case err != nil:
			fmt.Fprintf(stderr, "render chart failed: %v\n", err)
			return 1
		default:
			if err := os.WriteFile(chartPath, png, 0o644); err != nil {
				fmt.Fprintf(stderr, "write chart failed: %v\n", err)
				return 1
			}
		}
	}

	if outputJSON {
		byCat := make(map[string]string, len(sum.ByCategory))
		for _, c := range sum.ByCategory {
			byCat[c.Name] = c.Amount.String()
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report{
			File:       file,
			Month:      sel.String(),
			Count:      sum.Count,
			Income:     sum.Totals.Income.String(),
			Expense:    sum.Totals.Expense.String(),
			Balance:    sum.Totals.Balance.String(),
			ByCategory: byCat,
		}); err != nil {
			fmt.Fprintf(stderr, "encode json failed: %v\n", err)
			return 1
		}
		return 0
	}

	writeHuman(stdout, sum)
	return 0
}

func writeHuman(w io.Writer, sum core.Summary) {
	fmt.Fprintf(w, "%s: %d transactions\n", sum.Month, sum.Count)
	fmt.Fprintln(w, core.FormatBalance(sum.Totals.Balance))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Income\t%s\t\n", sum.Totals.Income)
	fmt.Fprintf(tw, "Expense\t%s\t\n", sum.Totals.Expense)
	for _, c := range sum.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\t\n", c.Name, c.Amount)
	}
	tw.Flush()
}
