// Package csvcodec maps a record sequence to and from the ledger CSV format:
//
//	Date,Type,Category,Amount,Description
//	2025-02-01,Expense,Bills,75.00,rent
//
// Decoding is fail-fast: the first bad row aborts the whole decode.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"
)

// Header is the exact first line of every ledger CSV file.
var Header = []string{"Date", "Type", "Category", "Amount", "Description"}

var (
	ErrHeaderMismatch = errors.New("header mismatch")
	ErrMalformedRow   = errors.New("malformed row")
)

const utf8BOM = "\ufeff"

// RowError locates a decode failure. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Encode writes the header followed by one row per record, in order.
func Encode(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(r.Fields()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// EncodeString is Encode into a string.
func EncodeString(records []core.Record) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Decode parses ledger CSV text. Every data row goes through the same
// validation as Ledger.Add; nothing is returned unless every row is valid.
func Decode(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is checked per row to report ErrMalformedRow

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &RowError{Line: 1, Err: fmt.Errorf("%w: empty input", ErrHeaderMismatch)}
	}
	if err != nil {
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return nil, &RowError{Line: 1, Err: fmt.Errorf("%w: %w", ErrHeaderMismatch, err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if !equalHeader(header) {
		return nil, &RowError{Line: 1, Err: fmt.Errorf("%w: got %q, want %q", ErrHeaderMismatch, strings.Join(header, ","), strings.Join(Header, ","))}
	}

	var out []core.Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			return nil, &RowError{Line: pe.StartLine, Err: fmt.Errorf("%w: %w", ErrMalformedRow, err)}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(Header) {
			return nil, &RowError{Line: line, Err: fmt.Errorf("%w: got %d fields, want %d", ErrMalformedRow, len(rec), len(Header))}
		}
		record, err := core.Candidate{
			Date:        rec[0],
			Kind:        rec[1],
			Category:    rec[2],
			Amount:      rec[3],
			Description: rec[4],
		}.Parse()
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		out = append(out, record)
	}
	return out, nil
}

// DecodeString is Decode over a string.
func DecodeString(s string) ([]core.Record, error) {
	return Decode(strings.NewReader(s))
}

func equalHeader(got []string) bool {
	if len(got) != len(Header) {
		return false
	}
	for i := range Header {
		if got[i] != Header[i] {
			return false
		}
	}
	return true
}
