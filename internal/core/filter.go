package core

import (
	"strconv"
	"strings"
	"time"
)

// MonthSelector picks a calendar month (1-12) or AllTime.
type MonthSelector int

const AllTime MonthSelector = 0

const allTimeLabel = "All Time"

// ParseMonthSelector accepts "", "all", "All Time", a month number, or an
// English month name optionally followed by a year ("January 2025").
// The year is ignored: months match by number only.
func ParseMonthSelector(s string) (MonthSelector, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all", "all time":
		return AllTime, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return AllTime, ErrInvalidMonth
		}
		return MonthSelector(n), nil
	}
	name := strings.Fields(s)[0]
	for _, layout := range []string{"January", "Jan"} {
		if t, err := time.Parse(layout, name); err == nil {
			return MonthSelector(t.Month()), nil
		}
	}
	return AllTime, ErrInvalidMonth
}

func (m MonthSelector) IsAll() bool {
	return m == AllTime
}

func (m MonthSelector) Valid() bool {
	return m >= AllTime && m <= 12
}

func (m MonthSelector) String() string {
	if m.IsAll() {
		return allTimeLabel
	}
	return time.Month(m).String()
}

// MonthLabels returns the selector labels in display order, "All Time" first.
func MonthLabels() []string {
	labels := make([]string, 0, 13)
	for m := AllTime; m <= 12; m++ {
		labels = append(labels, m.String())
	}
	return labels
}

// ForMonth returns the records whose date falls in the selected month of any
// year. AllTime returns records unchanged. The input is never modified.
func ForMonth(records []Record, sel MonthSelector) []Record {
	if sel.IsAll() {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Date.Month() == int(sel) {
			out = append(out, r)
		}
	}
	return out
}
