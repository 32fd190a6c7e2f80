// Package store provides read access to the SQLite database produced from
// addb2 dumps of a MIO/Motr client and its servers.
//
// The database holds, per process (pid):
//   - Request tables (client_req, ioo_req, cob_req, dix_req, cas_req,
//     rpc_req, fom_req): one row per state transition
//   - Link tables (client_to_ioo, ioo_to_rpc, dix_to_cas, ...): which request
//     spawned which
//   - MIO tables (mio_session_to_op, mio_op_to_motr_op): the entry point from
//     a client-visible MIO operation
//   - RPC exchange tables (rpc_to_sxid, sxid_to_rpc, fom_desc): the crossing
//     from a client process to a server process
//
// # Query Rules
//
//   - Every value is a bound parameter.
//   - Table and column names come only from the static catalogue in
//     tables.go (Tables, Mappings, RequestKind).
//   - Failures of the database itself wrap ErrQuery.
//
// # Database Configuration
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - Single connection: correlation runs are sequential
package store
