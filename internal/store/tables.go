package store

// Table describes one store table and the columns worth indexing.
// Indexed lists every column whose name carries an id or a timestamp.
type Table struct {
	Name    string
	Indexed []string
}

// Tables is the static catalogue of tables known to opzoom, in schema order.
var Tables = []Table{
	{Name: "mio_session_to_op", Indexed: []string{"time", "pid", "session_id"}},
	{Name: "mio_op_to_motr_op", Indexed: []string{"time", "pid", "mio_op", "motr_op"}},
	{Name: "client_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "client_to_ioo", Indexed: []string{"time", "pid", "client_id", "ioo_id"}},
	{Name: "client_to_cob", Indexed: []string{"time", "pid", "client_id", "cob_id"}},
	{Name: "client_to_dix", Indexed: []string{"time", "pid", "client_id", "dix_id"}},
	{Name: "ioo_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "cob_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "dix_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "dix_to_mdix", Indexed: []string{"time", "pid", "dix_id", "mdix_id"}},
	{Name: "dix_to_cas", Indexed: []string{"time", "pid", "dix_id", "cas_id"}},
	{Name: "cas_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "ioo_to_rpc", Indexed: []string{"time", "pid", "ioo_id", "rpc_id"}},
	{Name: "cob_to_rpc", Indexed: []string{"time", "pid", "cob_id", "rpc_id"}},
	{Name: "cas_to_rpc", Indexed: []string{"time", "pid", "cas_id", "rpc_id"}},
	{Name: "rpc_req", Indexed: []string{"time", "pid", "id"}},
	{Name: "rpc_to_sxid", Indexed: []string{"time", "pid", "rpc_id", "xid", "session_id"}},
	{Name: "sxid_to_rpc", Indexed: []string{"time", "pid", "xid", "session_id", "rpc_id"}},
	{Name: "fom_desc", Indexed: []string{"time", "pid", "rpc_sm_id", "fom_sm_id", "fom_state_sm_id"}},
	{Name: "fom_req", Indexed: []string{"time", "pid", "id"}},
}

// RequestKind names a table holding per-request state transitions
// (time, pid, id, state).
type RequestKind string

const (
	KindClient RequestKind = "client_req"
	KindIOO    RequestKind = "ioo_req"
	KindCOB    RequestKind = "cob_req"
	KindDIX    RequestKind = "dix_req"
	KindCAS    RequestKind = "cas_req"
	KindRPC    RequestKind = "rpc_req"
	KindFOM    RequestKind = "fom_req"
)

var requestKinds = map[RequestKind]bool{
	KindClient: true,
	KindIOO:    true,
	KindCOB:    true,
	KindDIX:    true,
	KindCAS:    true,
	KindRPC:    true,
	KindFOM:    true,
}

// Mapping describes a link table joining one request id to another within
// the same process.
type Mapping struct {
	Table string
	From  string
	To    string
}

// Mappings is the whitelist of link tables that may be named by callers.
// Table and column names are never taken from anywhere else.
var Mappings = map[string]Mapping{
	"mio_op_to_motr_op": {Table: "mio_op_to_motr_op", From: "mio_op", To: "motr_op"},
	"client_to_ioo":     {Table: "client_to_ioo", From: "client_id", To: "ioo_id"},
	"client_to_cob":     {Table: "client_to_cob", From: "client_id", To: "cob_id"},
	"client_to_dix":     {Table: "client_to_dix", From: "client_id", To: "dix_id"},
	"dix_to_mdix":       {Table: "dix_to_mdix", From: "dix_id", To: "mdix_id"},
	"dix_to_cas":        {Table: "dix_to_cas", From: "dix_id", To: "cas_id"},
	"ioo_to_rpc":        {Table: "ioo_to_rpc", From: "ioo_id", To: "rpc_id"},
	"cob_to_rpc":        {Table: "cob_to_rpc", From: "cob_id", To: "rpc_id"},
	"cas_to_rpc":        {Table: "cas_to_rpc", From: "cas_id", To: "rpc_id"},
}

// MappingRPCToFOM is the pseudo-mapping that crosses from a client RPC to the
// server FOM handling it (rpc_to_sxid, sxid_to_rpc and fom_desc joined).
const MappingRPCToFOM = "rpc_to_fom"
