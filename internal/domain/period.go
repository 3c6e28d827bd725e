package domain

import (
	"fmt"
	"time"
)

// Period is the date range covered by a dataset.
type Period struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

// Valid reports whether the period was derived from at least one record.
func (p Period) Valid() bool {
	return !p.From.IsZero() && !p.To.IsZero()
}

// MissingTimestampError reports records whose dates could not be parsed.
// Reports drop their period line instead of failing.
type MissingTimestampError struct {
	Missing int
	Total   int
}

func (e *MissingTimestampError) Error() string {
	return fmt.Sprintf("no parsable accident dates: %d of %d records missing", e.Missing, e.Total)
}

// PeriodOf returns the earliest and latest record dates. Records with
// unparsable dates are skipped; when none parse, the zero Period is returned
// with a *MissingTimestampError.
func PeriodOf(records []AccidentRecord) (Period, error) {
	var p Period
	missing := 0
	for _, r := range records {
		t, err := r.OccurredOn()
		if err != nil {
			missing++
			continue
		}
		if p.From.IsZero() || t.Before(p.From) {
			p.From = t
		}
		if p.To.IsZero() || t.After(p.To) {
			p.To = t
		}
	}
	if !p.Valid() {
		return Period{}, &MissingTimestampError{Missing: missing, Total: len(records)}
	}
	return p, nil
}
