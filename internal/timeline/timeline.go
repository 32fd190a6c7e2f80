package timeline

import (
	"fmt"
	"sort"
)

// Event is one observed state transition of a request at some layer.
// Time is in nanoseconds as recorded by addb2.
type Event struct {
	Time  int64  `json:"time"`
	PID   int64  `json:"pid"`
	ID    string `json:"id"`
	State string `json:"state"`
	Op    string `json:"op"`
}

// Timeline is a partial table: the events one source (a direct query or one
// request inside an extractor) produced, in the order it produced them.
type Timeline struct {
	Source string  `json:"source"`
	Events []Event `json:"events"`
}

// Aggregate flattens partial tables into one table in processing order.
// It neither deduplicates nor sorts: consumers that want chronological order
// call Sorted.
func Aggregate(partials []Timeline) []Event {
	n := 0
	for _, p := range partials {
		n += len(p.Events)
	}

	events := make([]Event, 0, n)
	for _, p := range partials {
		events = append(events, p.Events...)
	}
	return events
}

// Sorted returns a copy of events ordered by time. Ties keep their
// aggregation order.
func Sorted(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Span returns the earliest and latest event time. ok is false when there
// are no events.
func Span(events []Event) (start, end int64, ok bool) {
	for i, ev := range events {
		if i == 0 || ev.Time < start {
			start = ev.Time
		}
		if i == 0 || ev.Time > end {
			end = ev.Time
		}
	}
	return start, end, len(events) > 0
}

// Unit is a display time unit.
type Unit string

const (
	Microseconds Unit = "us"
	Milliseconds Unit = "ms"
)

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Microseconds, Milliseconds:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("invalid time unit %q: must be one of [us ms]", s)
	}
}

// Convert expresses a nanosecond duration in u.
func (u Unit) Convert(ns int64) float64 {
	if u == Milliseconds {
		return float64(ns) / 1e6
	}
	return float64(ns) / 1e3
}
