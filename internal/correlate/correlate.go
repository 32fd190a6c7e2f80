// Package correlate rebuilds the timeline of MIO operations across the MIO,
// Motr client, DIX/IOO/COB, RPC and server layers.
//
// For each operation the correlator looks up the Motr client requests the
// operation was translated into (links), then hands every link to the layer
// extractors in a fixed priority order. The first extractor that accepts the
// link wins; a link no extractor accepts is reported and skipped.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/opzoom/internal/extract"
	"github.com/roach88/opzoom/internal/graph"
	"github.com/roach88/opzoom/internal/metrics"
	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/timeline"
)

// Store is what the correlator reads. Implemented by *store.Store.
type Store interface {
	extract.Source
	LinksForOp(ctx context.Context, op string, pid *int64) ([]store.Link, error)
	ClientRequestRows(ctx context.Context, id string, pid int64) ([]timeline.Event, error)
}

// Options select the optional parts of a run.
type Options struct {
	// BuildGraph creates and renders one attribute graph per operation.
	BuildGraph bool
	// Verbose skips the direct client request query; the extractors'
	// detailed timelines are reported alone.
	Verbose bool
}

// Failure is a link no extractor could build a timeline for.
type Failure struct {
	Op       string   `json:"op"`
	MotrOp   string   `json:"motr_op"`
	PID      int64    `json:"pid"`
	Attempts []string `json:"attempts"`
}

// GraphArtifact is a rendered attribute graph.
type GraphArtifact struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// Report is the outcome of one correlation run.
type Report struct {
	RunID    string              `json:"run_id"`
	Partials []timeline.Timeline `json:"partials"`
	Links    int                 `json:"links"`
	Resolved int                 `json:"resolved"`
	Failures []Failure           `json:"failures"`
	Graphs   []GraphArtifact     `json:"graphs,omitempty"`
}

// Events returns the flat table: every partial, in processing order.
func (r *Report) Events() []timeline.Event {
	return timeline.Aggregate(r.Partials)
}

// Correlator runs correlation against one store.
type Correlator struct {
	store      Store
	schema     *schema.Schema
	extractors []extract.Extractor
	attr       *graph.Attributor
	renderer   graph.Renderer
	metrics    *metrics.Metrics
	runIDs     RunIDGenerator
	logger     *slog.Logger
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithSchema replaces the built-in relation schema.
func WithSchema(s *schema.Schema) Option {
	return func(c *Correlator) { c.schema = s }
}

// WithExtractors replaces the default extractors. Order is priority order.
func WithExtractors(ex ...extract.Extractor) Option {
	return func(c *Correlator) { c.extractors = ex }
}

// WithRenderer sets where attribute graphs are finalized.
func WithRenderer(r graph.Renderer) Option {
	return func(c *Correlator) { c.renderer = r }
}

// WithMetrics sets the collectors updated by the run.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Correlator) { c.metrics = m }
}

// WithRunIDs sets the run id generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(c *Correlator) { c.runIDs = g }
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Correlator) { c.logger = l }
}

// New creates a Correlator. Unless overridden, it uses the built-in schema,
// the default extractors (DIX, IOO, COB), a DOT renderer writing to the
// current directory, fresh metrics and UUIDv7 run ids.
func New(st Store, opts ...Option) *Correlator {
	c := &Correlator{
		store:    st,
		schema:   schema.Default(),
		renderer: &graph.DOTRenderer{},
		runIDs:   UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.extractors == nil {
		c.extractors = extract.Default(st, c.schema)
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	c.attr = graph.NewAttributor(st)

	return c
}

// Correlate builds the timeline table of ops. pid, when set, restricts links
// to one client process.
//
// Failures of a single link are absorbed into Report.Failures; failures of
// the store itself abort the run.
func (c *Correlator) Correlate(ctx context.Context, ops []string, pid *int64, opts Options) (*Report, error) {
	rep := &Report{RunID: c.runIDs.Generate(), Failures: []Failure{}}
	log := c.logger.With("run", rep.RunID)

	for _, op := range ops {
		if err := c.correlateOp(ctx, log, rep, op, pid, opts); err != nil {
			return nil, err
		}
	}

	log.Info("correlation finished",
		"ops", len(ops),
		"links", rep.Links,
		"resolved", rep.Resolved,
		"failed", len(rep.Failures),
	)
	return rep, nil
}

func (c *Correlator) correlateOp(ctx context.Context, log *slog.Logger, rep *Report, op string, pid *int64, opts Options) error {
	c.metrics.Ops.Inc()

	links, err := c.store.LinksForOp(ctx, op, pid)
	if err != nil {
		return fmt.Errorf("find client requests of op %s: %w", op, err)
	}
	rep.Links += len(links)
	if len(links) == 0 {
		log.Warn("no client requests found", "op", op)
	}

	if !opts.Verbose {
		for _, l := range links {
			rows, err := c.store.ClientRequestRows(ctx, l.MotrOp, l.PID)
			if err != nil {
				return fmt.Errorf("read client request %s: %w", l.MotrOp, err)
			}
			rep.Partials = append(rep.Partials, timeline.Timeline{
				Source: fmt.Sprintf("client %s (pid %d)", l.MotrOp, l.PID),
				Events: rows,
			})
			c.metrics.Events.Add(float64(len(rows)))
		}
	}

	// One graph per operation; it never outlives this call.
	var g *graph.Graph
	if opts.BuildGraph {
		g = graph.New("mio_op_graph_" + op)
		root := graph.Relation{Kind: "mio_op", ID: op, ClientPID: pid}
		if err := c.attr.Attribute(ctx, g, []graph.Relation{root}, c.schema.Set(schema.SetMIO)); err != nil {
			return fmt.Errorf("attribute op %s: %w", op, err)
		}
	}

	for _, l := range links {
		log.Info("processing client request", "op", op, "id", l.MotrOp, "pid", l.PID)

		res, layer, attempts, err := c.resolve(ctx, log, l, g, opts.Verbose)
		if err != nil {
			return fmt.Errorf("client request %s (pid %d): %w", l.MotrOp, l.PID, err)
		}

		if layer == "" {
			c.metrics.Links.WithLabelValues(metrics.OutcomeFailed).Inc()
			log.Warn(fmt.Sprintf("Could not build timelines for client request %s (pid: %d)", l.MotrOp, l.PID),
				"op", op, "attempts", len(attempts))
			rep.Failures = append(rep.Failures, Failure{Op: op, MotrOp: l.MotrOp, PID: l.PID, Attempts: attempts})
			continue
		}

		c.metrics.Links.WithLabelValues(metrics.OutcomeResolved).Inc()
		events := res.Events()
		c.metrics.Events.Add(float64(len(events)))
		log.Info("client request done", "id", l.MotrOp, "layer", layer, "events", len(events))

		rep.Partials = append(rep.Partials, res.Timelines...)
		rep.Resolved++
	}

	if g != nil {
		path, err := c.renderer.Render(ctx, g, g.Name())
		if err != nil {
			return fmt.Errorf("render graph of op %s: %w", op, err)
		}
		edges := len(g.Edges())
		c.metrics.GraphEdges.Add(float64(edges))
		rep.Graphs = append(rep.Graphs, GraphArtifact{Op: op, Path: path, Nodes: len(g.Nodes()), Edges: edges})
		log.Info("attribute graph rendered", "op", op, "path", path, "edges", edges)
	}

	return nil
}

// resolve tries the extractors in priority order and returns the first
// success with its layer. An empty layer means every extractor declined;
// attempts then holds one message per extractor. err is set only for
// failures that invalidate the whole run. In verbose mode the winning
// extractor also logs the request structure.
func (c *Correlator) resolve(ctx context.Context, log *slog.Logger, l store.Link, g *graph.Graph, verbose bool) (extract.Extraction, string, []string, error) {
	req := extract.Request{
		ID:         l.MotrOp,
		PID:        l.PID,
		BuildGraph: g != nil,
		ExportOnly: !verbose,
		Graph:      g,
	}

	var attempts []string
	for _, ex := range c.extractors {
		res, err := ex.Extract(ctx, req)
		if err == nil {
			c.metrics.Attempts.WithLabelValues(ex.Layer(), "ok").Inc()
			return res, ex.Layer(), attempts, nil
		}
		if isFatal(err) {
			return extract.Extraction{}, "", attempts, err
		}

		c.metrics.Attempts.WithLabelValues(ex.Layer(), "declined").Inc()
		log.Debug("extractor declined", "layer", ex.Layer(), "id", l.MotrOp, "error", err)
		attempts = append(attempts, ex.Layer()+": "+err.Error())
	}

	return extract.Extraction{}, "", attempts, nil
}

// isFatal reports whether err comes from the store or the context rather
// than from the extractor's judgement of the request.
func isFatal(err error) bool {
	return errors.Is(err, store.ErrQuery) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
