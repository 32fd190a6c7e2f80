package graph

import (
	"context"
	"fmt"

	"github.com/roach88/opzoom/internal/schema"
	"github.com/roach88/opzoom/internal/store"
)

// DefaultSampleSize is the number of destination ids kept by a stash row.
const DefaultSampleSize = 3

// Relation is an observed entity the attributor starts from: an entity kind,
// its id and the pids to resolve mappings with.
type Relation struct {
	Kind      string
	ID        string
	ClientPID *int64
	ServerPID *int64
	// PID owns the entity; zero means the client pid.
	PID int64
}

func (r Relation) owner() int64 {
	if r.PID != 0 {
		return r.PID
	}
	return pidValue(r.ClientPID)
}

// Resolver answers mapping lookups. Implemented by *store.Store.
type Resolver interface {
	ResolveMapping(ctx context.Context, mapping, id string, pid *int64) ([]store.Target, error)
}

// Attributor turns relation records into graph edges following schema rows.
type Attributor struct {
	Resolver   Resolver
	SampleSize int
}

// NewAttributor creates an Attributor with the default sample size.
func NewAttributor(r Resolver) *Attributor {
	return &Attributor{Resolver: r, SampleSize: DefaultSampleSize}
}

// Attribute adds to g one edge From_<id>_<pid> -> To_<id>_<pid> per
// destination of every row whose From kind matches a relation, then expands
// the new destinations breadth-first with the same rows. Leaf destinations
// are not expanded.
func (a *Attributor) Attribute(ctx context.Context, g *Graph, relations []Relation, rows []schema.Row) error {
	queue := append([]Relation(nil), relations...)
	visited := make(map[string]bool)

	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]

		from := g.AddNode(r.Kind, r.ID, r.owner())
		if visited[from] || g.IsLeaf(from) {
			continue
		}
		visited[from] = true

		for _, row := range rows {
			if row.From != r.Kind {
				continue
			}

			next, err := a.applyRow(ctx, g, from, r, row)
			if err != nil {
				return err
			}
			queue = append(queue, next...)
		}
	}

	return nil
}

// applyRow adds the edges of one row for one relation and returns the
// destination relations to expand.
func (a *Attributor) applyRow(ctx context.Context, g *Graph, from string, r Relation, row schema.Row) ([]Relation, error) {
	pid := r.ClientPID
	if row.Flags.ServerPID() {
		pid = r.ServerPID
	}

	var targets []store.Target
	if row.Flags.OneToOne() {
		targets = []store.Target{{ID: r.ID, PID: pidValue(pid)}}
	} else {
		var err error
		targets, err = a.Resolver.ResolveMapping(ctx, row.Mapping, r.ID, pid)
		if err != nil {
			return nil, fmt.Errorf("resolve %s for %s: %w", row.Relation, from, err)
		}
	}

	var next []Relation
	for _, t := range targets {
		to := g.AddNode(row.To, t.ID, t.PID)
		g.AddEdge(from, to, row.Relation)
		if row.Flags.Leaf() {
			g.MarkLeaf(to)
			continue
		}

		nr := Relation{Kind: row.To, ID: t.ID, ClientPID: r.ClientPID, ServerPID: r.ServerPID, PID: t.PID}
		if row.Flags.ServerPID() || (pid != nil && t.PID != *pid) {
			srv := t.PID
			nr.ServerPID = &srv
		}
		next = append(next, nr)
	}

	if row.Flags.Stash() && len(targets) > 0 {
		n := a.SampleSize
		if n <= 0 || n > len(targets) {
			n = len(targets)
		}
		samples := make([]string, 0, n)
		for _, t := range targets[:n] {
			samples = append(samples, t.ID)
		}
		g.AddSatellite(from, row.Relation, samples, len(targets))
	}

	return next, nil
}

func pidValue(pid *int64) int64 {
	if pid == nil {
		return 0
	}
	return *pid
}
