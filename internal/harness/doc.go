// Package harness runs correlation scenarios against a seeded trace store.
//
// A scenario seeds an in-memory store with addb2 records, correlates a list
// of MIO operations and checks the resulting report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: io_write
//	description: "What this scenario validates"
//	ops: ["42"]
//	graph: true
//	records:
//	  sessions:
//	    - {time: 1000, pid: 7, session: "1", op: "42"}
//	  mappings:
//	    - {mapping: mio_op_to_motr_op, time: 1001, pid: 7, from: "42", to: "99"}
//	  states:
//	    - {kind: client_req, time: 2000, pid: 7, id: "99", state: initialised}
//	  exchanges:
//	    - {time: 4500, client_pid: 7, client_rpc: "300", xid: 1, session_id: 1,
//	       server_pid: 9, server_rpc: "301", fom: "800"}
//	assertions:
//	  - type: event_count
//	    count: 10
//	  - type: graph_edge
//	    op: "42"
//	    from: mio_op_42
//	    to: motr_op_99_7
//
// Ids are quoted: the store keeps them as integers but they travel as
// strings.
//
// # Assertion Types
//
//   - event_count: the flat table has exactly count events
//   - event_contains: some event has the given id and state (and label)
//   - source_order: the partial tables appear in the given order
//   - failure_count: exactly count links could not be resolved
//   - graph_edge: the graph of op holds the from -> to edge
//
// # Deterministic Testing
//
// Record times come from the scenario and the run id is fixed
// (scenario.run_id, or "test-run"), so the same scenario always produces
// the same report. RunWithGolden compares a text snapshot of the report
// with testdata/golden/<name>.golden.
package harness
