package core

// Ledger is the ordered, owned collection of records for a session.
// Insertion order determines display and CSV row order.
//
// A Ledger is not safe for concurrent use; callers that share one across
// goroutines must serialize access.
type Ledger struct {
	records []Record
	version uint64
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add validates c and appends the resulting record. The ledger is unchanged on error.
func (l *Ledger) Add(c Candidate) (Record, error) {
	r, err := c.Parse()
	if err != nil {
		return Record{}, err
	}
	l.append(r)
	return r, nil
}

// Append validates an already typed record and appends it with its text
// fields normalized as in Candidate.Parse.
func (l *Ledger) Append(r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	l.append(r.normalize())
	return nil
}

func (l *Ledger) append(r Record) {
	l.records = append(l.records, r)
	l.version++
}

// All returns a snapshot of the records in insertion order.
func (l *Ledger) All() []Record {
	return append([]Record(nil), l.records...)
}

func (l *Ledger) Len() int {
	return len(l.records)
}

// ReplaceAll swaps in records wholesale. Every record is validated first;
// on error nothing is replaced.
func (l *Ledger) ReplaceAll(records []Record) error {
	normalized := make([]Record, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		normalized[i] = r.normalize()
	}
	l.records = normalized
	l.version++
	return nil
}

func (l *Ledger) Clear() {
	l.records = nil
	l.version++
}

// Version increases on every mutation.
func (l *Ledger) Version() uint64 {
	return l.version
}
