package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// DateLayout is the canonical calendar date form used in storage and display.
const DateLayout = "2006-01-02"

type (
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is one income or expense event.
	Record struct {
		Date        Date
		Kind        Kind
		Category    string
		Amount      Money
		Description string // optional
	}

	// Candidate holds raw field values as surfaced by an input form or a CSV row.
	Candidate struct {
		Date        string
		Kind        string
		Category    string
		Amount      string
		Description string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrInvalidMonth  = errors.New("invalid month")
)

// ValidationError reports which field of a candidate failed to parse.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Categories is the fixed vocabulary offered at entry time.
var Categories = []string{"Food", "Transport", "Bills", "Utilities", "Entertainment", "Other"}

// IsKnownCategory reports whether name belongs to the entry vocabulary.
func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ParseKind accepts exactly "Income" or "Expense".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case Income, Expense:
		return k, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as 2025-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Validate checks the ledger invariant for a single record.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Value: r.Date.String(), Err: err}
	}
	if !r.Kind.Valid() {
		return &ValidationError{Field: "type", Value: string(r.Kind), Err: ErrInvalidKind}
	}
	if err := r.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Value: r.Amount.String(), Err: err}
	}
	return nil
}

// Parse converts raw field values into a Record. Fields are checked in
// amount, date, type order; the first failure is returned.
func (c Candidate) Parse() (Record, error) {
	amount, err := ParseAmount(c.Amount)
	if err != nil {
		return Record{}, &ValidationError{Field: "amount", Value: c.Amount, Err: err}
	}
	date, err := ParseDate(c.Date)
	if err != nil {
		return Record{}, &ValidationError{Field: "date", Value: c.Date, Err: err}
	}
	kind, err := ParseKind(c.Kind)
	if err != nil {
		return Record{}, &ValidationError{Field: "type", Value: c.Kind, Err: err}
	}
	return Record{
		Date:        date,
		Kind:        kind,
		Category:    c.Category,
		Amount:      amount,
		Description: c.Description,
	}.normalize(), nil
}

// normalize puts text fields in the form the CSV codec reads back: the
// category is trimmed and CRLF line breaks become LF, since encoding/csv
// folds CRLF inside quoted fields.
func (r Record) normalize() Record {
	r.Category = strings.ReplaceAll(strings.TrimSpace(r.Category), "\r\n", "\n")
	r.Description = strings.ReplaceAll(r.Description, "\r\n", "\n")
	return r
}

// Fields returns the record as raw strings in column order.
func (r Record) Fields() []string {
	return []string{r.Date.String(), string(r.Kind), r.Category, r.Amount.String(), r.Description}
}
