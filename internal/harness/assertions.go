package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/opzoom/internal/timeline"
)

// AssertionError is returned when an assertion fails.
// It includes the flat table to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Events   []timeline.Event // Full table for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nFull table:\n")
		for i, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %d pid %d %s %s %s\n", i+1, ev.Time, ev.PID, ev.ID, ev.State, ev.Op)
		}
	}

	return buf.String()
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertEventCount:
		return assertEventCount(r, a)
	case AssertEventContains:
		return assertEventContains(r, a)
	case AssertSourceOrder:
		return assertSourceOrder(r, a)
	case AssertFailureCount:
		return assertFailureCount(r, a)
	case AssertGraphEdge:
		return assertGraphEdge(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertEventCount(r *Result, a Assertion) error {
	events := r.Report.Events()
	if len(events) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d events", a.Count),
		Actual:   fmt.Sprintf("%d events", len(events)),
		Events:   events,
	}
}

func assertEventContains(r *Result, a Assertion) error {
	events := r.Report.Events()
	for _, ev := range events {
		if ev.ID == a.ID && ev.State == a.State && (a.Label == "" || ev.Op == a.Label) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("event %s %s %s", a.ID, a.State, a.Label),
		Actual:   "not found in table",
		Events:   events,
	}
}

// assertSourceOrder checks that the partial tables appear in the given
// order. Other partials may be interleaved.
func assertSourceOrder(r *Result, a Assertion) error {
	next := 0
	for _, p := range r.Report.Partials {
		if next < len(a.Sources) && p.Source == a.Sources[next] {
			next++
		}
	}
	if next == len(a.Sources) {
		return nil
	}

	actual := make([]string, 0, len(r.Report.Partials))
	for _, p := range r.Report.Partials {
		actual = append(actual, p.Source)
	}
	return &AssertionError{
		Type:     AssertSourceOrder,
		Expected: strings.Join(a.Sources, " < "),
		Actual:   strings.Join(actual, " < "),
	}
}

func assertFailureCount(r *Result, a Assertion) error {
	if len(r.Report.Failures) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFailureCount,
		Expected: fmt.Sprintf("%d failures", a.Count),
		Actual:   fmt.Sprintf("%d failures", len(r.Report.Failures)),
	}
}

func assertGraphEdge(r *Result, a Assertion) error {
	g := r.Graph(a.Op)
	if g == nil {
		return &AssertionError{
			Type:     AssertGraphEdge,
			Expected: fmt.Sprintf("graph of op %s", a.Op),
			Actual:   "no graph rendered",
		}
	}
	if g.HasEdge(a.From, a.To) {
		return nil
	}
	return &AssertionError{
		Type:     AssertGraphEdge,
		Expected: fmt.Sprintf("%s -> %s in %s", a.From, a.To, g.Name()),
		Actual:   fmt.Sprintf("%d edges, none matching", len(g.Edges())),
	}
}
