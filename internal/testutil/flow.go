package testutil

// FixedRunID generates the same run id every time.
//
// Unlike correlate.FixedGenerator which returns ids in sequence, this
// generator never runs out, which suits commands that may be executed any
// number of times within a test.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a new fixed run id generator.
// If id is empty, Generate() returns "test-run".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}
