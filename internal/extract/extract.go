// Package extract holds the layer extractors: strategies that rebuild the
// timeline of a Motr client request if, and only if, the request belongs to
// their layer.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/timeline"
)

var (
	// ErrLayerMismatch means the id is not a request of the extractor's layer.
	ErrLayerMismatch = errors.New("request does not belong to layer")

	// ErrMissingData means the layer claims the id but a record the timeline
	// cannot be built without is absent.
	ErrMissingData = errors.New("required request data missing")
)

// Source is the subset of the store the extractors read.
type Source interface {
	graph.Resolver
	RequestStates(ctx context.Context, kind store.RequestKind, id string, pid int64) ([]timeline.Event, error)
	Children(ctx context.Context, mapping, id string, pid int64) ([]string, error)
	ServerFoms(ctx context.Context, rpcID string, pid int64) ([]store.Target, error)
}

// Range bounds the events kept by an extractor. Zero bounds are open.
type Range struct {
	From int64
	To   int64
}

// Contains reports whether t falls within the range.
func (r Range) Contains(t int64) bool {
	return (r.From == 0 || t >= r.From) && (r.To == 0 || t <= r.To)
}

// Request is the input shared by all extractors.
type Request struct {
	ID         string
	Range      Range
	PID        int64
	BuildGraph bool
	// ExportOnly suppresses the extractor's own structure summary; the
	// caller consumes the result.
	ExportOnly bool
	// Graph receives the extractor's sub-relations when BuildGraph is set.
	Graph *graph.Graph
}

// Extraction is an extractor's answer for one request.
type Extraction struct {
	Timelines []timeline.Timeline
	// Relations are the roots the extractor attributed to the graph.
	Relations []graph.Relation
}

// Events flattens the extraction's timelines.
func (e Extraction) Events() []timeline.Event {
	return timeline.Aggregate(e.Timelines)
}

// Extractor rebuilds the timeline of one client request.
type Extractor interface {
	Layer() string
	Extract(ctx context.Context, req Request) (Extraction, error)
}

// Default returns the extractors in priority order: metadata (DIX) first,
// then I/O, then COB.
func Default(src Source, sch *schema.Schema) []Extractor {
	return []Extractor{
		NewDIX(src, sch),
		NewIOO(src, sch),
		NewCOB(src, sch),
	}
}

// walker accumulates timelines for one extraction.
type walker struct {
	src Source
	req Request
	out Extraction
}

// states appends the timeline of (kind, id, pid) labelled label. Requests
// without recorded states are skipped.
func (w *walker) states(ctx context.Context, kind store.RequestKind, id string, pid int64, label string) (int, error) {
	events, err := w.src.RequestStates(ctx, kind, id, pid)
	if err != nil {
		return 0, err
	}

	kept := events[:0]
	for _, ev := range events {
		if !w.req.Range.Contains(ev.Time) {
			continue
		}
		ev.Op = label
		kept = append(kept, ev)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	w.out.Timelines = append(w.out.Timelines, timeline.Timeline{Source: label, Events: kept})
	return len(kept), nil
}

// rpcs appends the RPC items reached from parentID through mapping and the
// server FOMs that serviced them. RPCs and FOMs are optional annotations.
func (w *walker) rpcs(ctx context.Context, mapping, parentID string, pid int64) error {
	rpcIDs, err := w.src.Children(ctx, mapping, parentID, pid)
	if err != nil {
		return err
	}

	for _, rpcID := range rpcIDs {
		if _, err := w.states(ctx, store.KindRPC, rpcID, pid, "rpc "+rpcID); err != nil {
			return err
		}

		foms, err := w.src.ServerFoms(ctx, rpcID, pid)
		if err != nil {
			return err
		}
		for _, fom := range foms {
			label := fmt.Sprintf("fom %s (pid %d)", fom.ID, fom.PID)
			if _, err := w.states(ctx, store.KindFOM, fom.ID, fom.PID, label); err != nil {
				return err
			}
		}
	}
	return nil
}

// attribute adds the layer's sub-relations rooted at the client request.
func (w *walker) attribute(ctx context.Context, attr *graph.Attributor, rows []schema.Row) error {
	if !w.req.BuildGraph || w.req.Graph == nil {
		return nil
	}

	pid := w.req.PID
	root := graph.Relation{Kind: "motr_op", ID: w.req.ID, ClientPID: &pid}
	if err := attr.Attribute(ctx, w.req.Graph, []graph.Relation{root}, rows); err != nil {
		return err
	}
	w.out.Relations = append(w.out.Relations, root)
	return nil
}

// summarize logs the request structure unless the caller only exports.
func (w *walker) summarize(layer string) {
	if w.req.ExportOnly {
		return
	}
	sources := make([]string, 0, len(w.out.Timelines))
	for _, tl := range w.out.Timelines {
		sources = append(sources, tl.Source)
	}
	slog.Info("request structure",
		"layer", layer,
		"id", w.req.ID,
		"pid", w.req.PID,
		"timelines", sources,
	)
}
