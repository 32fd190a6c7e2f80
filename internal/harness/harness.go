package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/opzoom/internal/correlate"
	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/testutil"
	"github.com/roach88/opzoom/internal/timeline"
)

// memRenderer keeps finalized graphs instead of writing them out.
type memRenderer struct {
	graphs []*graph.Graph
}

func (r *memRenderer) Render(ctx context.Context, g *graph.Graph, name string) (string, error) {
	r.graphs = append(r.graphs, g)
	return name + ".dot", nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Seed the scenario records
// 3. Correlate the scenario ops with the default extractors
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := seed(ctx, st, scenario.Records); err != nil {
		return nil, fmt.Errorf("failed to seed records: %w", err)
	}

	r := &memRenderer{}
	c := correlate.New(st,
		correlate.WithRenderer(r),
		correlate.WithRunIDs(testutil.NewFixedRunID(scenario.RunID)),
		correlate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	rep, err := c.Correlate(ctx, scenario.Ops, scenario.PID, correlate.Options{
		BuildGraph: scenario.Graph,
		Verbose:    scenario.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("correlation failed: %w", err)
	}

	result := NewResult()
	result.Report = rep
	result.Graphs = r.graphs

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

// seed writes the records table family by table family.
func seed(ctx context.Context, st *store.Store, rec Records) error {
	for _, s := range rec.Sessions {
		if err := st.WriteSessionOp(ctx, s.Time, s.PID, s.Session, s.Op); err != nil {
			return err
		}
	}
	for _, m := range rec.Mappings {
		if err := st.WriteMapping(ctx, m.Mapping, m.Time, m.PID, m.From, m.To); err != nil {
			return err
		}
	}
	for _, s := range rec.States {
		ev := timeline.Event{Time: s.Time, PID: s.PID, ID: s.ID, State: s.State}
		if err := st.WriteRequestState(ctx, store.RequestKind(s.Kind), ev); err != nil {
			return err
		}
	}
	for _, x := range rec.Exchanges {
		if err := st.WriteRPCExchange(ctx, x.exchange()); err != nil {
			return err
		}
	}
	return nil
}
