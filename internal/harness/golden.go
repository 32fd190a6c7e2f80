package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/opzoom/internal/timeline"
)

// Snapshot renders a result as text: counters, the timeline table in
// microseconds, failures, then every graph's edges in insertion order.
func Snapshot(name string, r *Result) ([]byte, error) {
	var buf bytes.Buffer
	rep := r.Report

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "run: %s\n", rep.RunID)
	fmt.Fprintf(&buf, "links: %d resolved: %d failed: %d\n", rep.Links, rep.Resolved, len(rep.Failures))
	fmt.Fprintln(&buf)

	if err := timeline.WriteTable(&buf, rep.Partials, timeline.Microseconds); err != nil {
		return nil, err
	}

	for _, f := range rep.Failures {
		fmt.Fprintf(&buf, "\nfailure: op %s client request %s (pid %d), %d attempts\n", f.Op, f.MotrOp, f.PID, len(f.Attempts))
	}

	for _, g := range r.Graphs {
		edges := g.Edges()
		fmt.Fprintf(&buf, "\ngraph %s: %d nodes, %d edges\n", g.Name(), len(g.Nodes()), len(edges))
		for _, e := range edges {
			fmt.Fprintf(&buf, "  %s -> %s [%s]\n", e.From, e.To, e.Label)
		}
	}

	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	snap, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)

	return result, nil
}
