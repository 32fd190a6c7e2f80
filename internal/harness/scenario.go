package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/opzoom/internal/store"
)

// Scenario defines a correlation scenario: the records to seed, the ops to
// correlate and the assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run id. Defaults to "test-run".
	RunID string `yaml:"run_id,omitempty"`

	// Ops are the MIO operation ids to correlate, in order.
	Ops []string `yaml:"ops"`

	// PID restricts links to one client process.
	PID *int64 `yaml:"pid,omitempty"`

	// Verbose skips the direct client request query.
	Verbose bool `yaml:"verbose,omitempty"`

	// Graph builds one attribute graph per op.
	Graph bool `yaml:"graph,omitempty"`

	// Records are written to the store before correlation.
	Records Records `yaml:"records"`

	// Assertions validate the report.
	Assertions []Assertion `yaml:"assertions"`
}

// Records groups the seeded rows by table family.
type Records struct {
	Sessions  []SessionRecord  `yaml:"sessions,omitempty"`
	Mappings  []MappingRecord  `yaml:"mappings,omitempty"`
	States    []StateRecord    `yaml:"states,omitempty"`
	Exchanges []ExchangeRecord `yaml:"exchanges,omitempty"`
}

// SessionRecord is a mio_session_to_op row.
type SessionRecord struct {
	Time    int64  `yaml:"time"`
	PID     int64  `yaml:"pid"`
	Session string `yaml:"session"`
	Op      string `yaml:"op"`
}

// MappingRecord is a row of one of the link tables.
type MappingRecord struct {
	Mapping string `yaml:"mapping"`
	Time    int64  `yaml:"time"`
	PID     int64  `yaml:"pid"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
}

// StateRecord is a state transition of a request.
type StateRecord struct {
	Kind  string `yaml:"kind"`
	Time  int64  `yaml:"time"`
	PID   int64  `yaml:"pid"`
	ID    string `yaml:"id"`
	State string `yaml:"state"`
}

// ExchangeRecord is a client RPC delivered to a server FOM.
type ExchangeRecord struct {
	Time      int64  `yaml:"time"`
	ClientPID int64  `yaml:"client_pid"`
	ClientRPC string `yaml:"client_rpc"`
	XID       int64  `yaml:"xid"`
	SessionID int64  `yaml:"session_id"`
	ServerPID int64  `yaml:"server_pid"`
	ServerRPC string `yaml:"server_rpc"`
	FOM       string `yaml:"fom"`
	Service   string `yaml:"service,omitempty"`
}

func (r ExchangeRecord) exchange() store.RPCExchange {
	return store.RPCExchange{
		Time:      r.Time,
		ClientPID: r.ClientPID,
		ClientRPC: r.ClientRPC,
		XID:       r.XID,
		SessionID: r.SessionID,
		ServerPID: r.ServerPID,
		ServerRPC: r.ServerRPC,
		FOM:       r.FOM,
		Service:   r.Service,
	}
}

// Assertion validates the report.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (event_count, failure_count).
	Count int `yaml:"count,omitempty"`

	// Sources is the expected partial order (source_order).
	Sources []string `yaml:"sources,omitempty"`

	// ID, State and Label select an event (event_contains). An empty Label
	// matches any.
	ID    string `yaml:"id,omitempty"`
	State string `yaml:"state,omitempty"`
	Label string `yaml:"label,omitempty"`

	// Op, From and To select a graph edge (graph_edge).
	Op   string `yaml:"op,omitempty"`
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount    = "event_count"
	AssertEventContains = "event_contains"
	AssertSourceOrder   = "source_order"
	AssertFailureCount  = "failure_count"
	AssertGraphEdge     = "graph_edge"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Ops) == 0 {
		return fmt.Errorf("ops list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, m := range s.Records.Mappings {
		if _, ok := store.Mappings[m.Mapping]; !ok {
			return fmt.Errorf("records.mappings[%d]: unknown mapping %q", i, m.Mapping)
		}
	}

	for i, st := range s.Records.States {
		if st.Kind == "" || st.ID == "" || st.State == "" {
			return fmt.Errorf("records.states[%d]: kind, id and state are required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventCount, AssertFailureCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertEventContains:
		if a.ID == "" || a.State == "" {
			return fmt.Errorf("assertions[%d]: id and state are required for event_contains", index)
		}
	case AssertSourceOrder:
		if len(a.Sources) == 0 {
			return fmt.Errorf("assertions[%d]: sources list is required for source_order", index)
		}
	case AssertGraphEdge:
		if a.Op == "" || a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: op, from and to are required for graph_edge", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
