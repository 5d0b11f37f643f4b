package lifecycle

import "time"

// HistoryEntry is one element of a statusHistory audit trail. Transitions
// fill From and To; free-form events (payment edits, roll-forward) fill Event.
type HistoryEntry struct {
	From      Status    `json:"from,omitempty"`
	To        Status    `json:"to,omitempty"`
	Event     string    `json:"event,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (p Plan) Entry(note string, at time.Time) HistoryEntry {
	return HistoryEntry{
		From:      p.From,
		To:        p.To,
		Note:      note,
		Timestamp: at,
	}
}

func EventEntry(event, note string, at time.Time) HistoryEntry {
	return HistoryEntry{
		Event:     event,
		Note:      note,
		Timestamp: at,
	}
}
