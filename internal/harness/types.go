package harness

import (
	"github.com/roach88/opzoom/internal/correlate"
	"github.com/roach88/opzoom/internal/graph"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Report is the correlation report.
	Report *correlate.Report `json:"report"`

	// Graphs are the attribute graphs in render order.
	Graphs []*graph.Graph `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Graph returns the graph of op, or nil when none was rendered.
func (r *Result) Graph(op string) *graph.Graph {
	for _, g := range r.Graphs {
		if g.Name() == "mio_op_graph_"+op {
			return g
		}
	}
	return nil
}
