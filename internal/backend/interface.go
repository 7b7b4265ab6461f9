package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/sheets"
)

// ExportType selects where ExportToSheet pushes the ledger.
type ExportType string

const (
	MemoryExport ExportType = "memory"
	SheetsExport ExportType = "sheets"
)

func (t ExportType) IsValid() bool {
	return t == MemoryExport || t == SheetsExport
}

func (t ExportType) String() string {
	return string(t)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the external collaborators of the ledger service.
// Publisher is nil when AMQP is disabled or unreachable.
type Result struct {
	Exporter  sheets.Exporter
	Publisher amqp.Publisher
	// Ready reports dependency health for readiness probes.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Export ExportType

	// AMQP is optional; an empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
}
