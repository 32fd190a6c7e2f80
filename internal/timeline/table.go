package timeline

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteTable writes the partial tables as text, one block per partial, with
// times relative to the earliest event of the whole run.
func WriteTable(w io.Writer, partials []Timeline, unit Unit) error {
	p := message.NewPrinter(language.English)

	start, _, ok := Span(Aggregate(partials))
	if !ok {
		_, err := fmt.Fprintln(w, "(no events)")
		return err
	}

	for i, tl := range partials {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "=== %s (%d events) ===\n", tl.Source, len(tl.Events)); err != nil {
			return err
		}
		for _, ev := range tl.Events {
			rel := p.Sprintf("%.3f", unit.Convert(ev.Time-start))
			if _, err := fmt.Fprintf(w, "  %12s %s  pid %-6d %-10s %-24s %s\n",
				"+"+rel, unit, ev.PID, ev.ID, ev.State, ev.Op); err != nil {
				return err
			}
		}
	}
	return nil
}
