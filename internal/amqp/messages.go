package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"
)

// EventType names what happened to the ledger.
type EventType string

const (
	EventTransactionAdded EventType = "transaction.added"
	EventLedgerLoaded     EventType = "ledger.loaded"
	EventLedgerCleared    EventType = "ledger.cleared"
)

// RecordPayload is a record in its canonical text form, same cells as a CSV row.
type RecordPayload struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// LedgerEvent is published after every successful ledger mutation.
// Record is only set for transaction.added.
type LedgerEvent struct {
	Type      EventType      `json:"type"`
	Count     int            `json:"count"`
	Balance   string         `json:"balance"`
	Record    *RecordPayload `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewLedgerEvent builds an event describing the ledger state after a mutation.
func NewLedgerEvent(typ EventType, count int, balance core.Money, rec *core.Record) *LedgerEvent {
	ev := &LedgerEvent{
		Type:      typ,
		Count:     count,
		Balance:   balance.String(),
		Timestamp: time.Now(),
	}
	if rec != nil {
		ev.Record = &RecordPayload{
			Date:        rec.Date.String(),
			Type:        rec.Kind.String(),
			Category:    rec.Category,
			Amount:      rec.Amount.String(),
			Description: rec.Description,
		}
	}
	return ev
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Candidate converts the payload back to raw field values.
func (p *RecordPayload) Candidate() core.Candidate {
	return core.Candidate{
		Date:        p.Date,
		Kind:        p.Type,
		Category:    p.Category,
		Amount:      p.Amount,
		Description: p.Description,
	}
}
