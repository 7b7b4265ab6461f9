package sheets

import (
	"context"

	"budget/internal/core"
	"budget/internal/csvcodec"
)

// Ports for outbound adapters.
type (
	// Exporter publishes a full ledger snapshot to an external sheet. The
	// destination is replaced, not appended to. ref identifies where it landed.
	Exporter interface {
		Export(ctx context.Context, records []core.Record) (ref string, err error)
	}
)

// Rows renders records as sheet rows: the CSV header followed by one row per
// record, each cell holding the same text as the CSV codec writes.
func Rows(records []core.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), csvcodec.Header...))
	for _, r := range records {
		rows = append(rows, r.Fields())
	}
	return rows
}
