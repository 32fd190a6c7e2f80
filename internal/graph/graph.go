package graph

import (
	"fmt"
	"strings"
)

// Node is an entity instance in the attribute graph.
type Node struct {
	ID        string // "<kind>_<value>[_<pid>]"
	Kind      string
	Value     string
	PID       int64
	Satellite bool
	Samples   []string
	Total     int
}

// Label is the text shown for the node.
func (n Node) Label() string {
	if n.Satellite {
		more := ""
		if n.Total > len(n.Samples) {
			more = fmt.Sprintf(" (+%d more)", n.Total-len(n.Samples))
		}
		return fmt.Sprintf("%s: %s%s", n.Kind, strings.Join(n.Samples, ", "), more)
	}
	if n.PID != 0 {
		return fmt.Sprintf("%s %s (pid %d)", n.Kind, n.Value, n.PID)
	}
	return fmt.Sprintf("%s %s", n.Kind, n.Value)
}

// Edge is a labelled, directed relation between two nodes.
type Edge struct {
	From      string
	To        string
	Label     string
	Satellite bool
}

type edgeKey struct {
	from, to string
}

// Graph is a strict directed graph: at most one edge per (from, to) pair.
// A Graph belongs to a single correlation run and is not safe for concurrent
// use.
type Graph struct {
	name      string
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[edgeKey]Edge
	edgeOrder []edgeKey
	leaves    map[string]bool
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		name:   name,
		nodes:  make(map[string]*Node),
		edges:  make(map[edgeKey]Edge),
		leaves: make(map[string]bool),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// NodeID returns the node id for an entity of kind with the given value.
// Request ids are only unique within a process, so a non-zero pid is part of
// the id.
func NodeID(kind, value string, pid int64) string {
	if pid == 0 {
		return kind + "_" + value
	}
	return fmt.Sprintf("%s_%s_%d", kind, value, pid)
}

// AddNode adds an entity node if it is not present yet and returns its id.
func (g *Graph) AddNode(kind, value string, pid int64) string {
	id := NodeID(kind, value, pid)
	if _, ok := g.nodes[id]; ok {
		return id
	}
	g.nodes[id] = &Node{ID: id, Kind: kind, Value: value, PID: pid}
	g.nodeOrder = append(g.nodeOrder, id)
	return id
}

// AddEdge adds from -> to. Adding an existing pair is a no-op; edges out of
// a leaf node are refused. Returns whether the edge was added.
func (g *Graph) AddEdge(from, to, label string) bool {
	return g.addEdge(Edge{From: from, To: to, Label: label})
}

func (g *Graph) addEdge(e Edge) bool {
	if g.leaves[e.From] {
		return false
	}
	k := edgeKey{e.From, e.To}
	if _, ok := g.edges[k]; ok {
		return false
	}
	g.edges[k] = e
	g.edgeOrder = append(g.edgeOrder, k)
	return true
}

// AddSatellite attaches a sample node to from. total is the number of values
// the samples were drawn from.
func (g *Graph) AddSatellite(from, relation string, samples []string, total int) string {
	id := "sample_" + relation + "_" + from
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = &Node{
			ID:        id,
			Kind:      relation,
			Satellite: true,
			Samples:   append([]string(nil), samples...),
			Total:     total,
		}
		g.nodeOrder = append(g.nodeOrder, id)
	}
	g.addEdge(Edge{From: from, To: id, Label: "samples", Satellite: true})
	return id
}

// MarkLeaf forbids any outgoing edge from node. Edges already leaving it are
// dropped.
func (g *Graph) MarkLeaf(node string) {
	if g.leaves[node] {
		return
	}
	g.leaves[node] = true

	kept := g.edgeOrder[:0]
	for _, k := range g.edgeOrder {
		if k.from == node {
			delete(g.edges, k)
			continue
		}
		kept = append(kept, k)
	}
	g.edgeOrder = kept
}

// IsLeaf reports whether node was marked as a leaf.
func (g *Graph) IsLeaf(node string) bool { return g.leaves[node] }

// HasEdge reports whether the from -> to edge exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[edgeKey{from, to}]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, g.edges[k])
	}
	return out
}
