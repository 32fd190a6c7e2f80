package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/opzoom/internal/store"
	"github.com/roach88/opzoom/internal/timeline"
)

// Trace time origin and resolution: one microsecond between records.
const (
	TraceStart int64 = 1_000_000
	TraceStep  int64 = 1_000
)

// Trace seeds a temporary store with addb2-shaped records.
type Trace struct {
	t     testing.TB
	Store *store.Store
	Path  string
	Clock *TraceClock
	xid   int64
}

// NewTrace opens a fresh store under t.TempDir(). The store is closed when
// the test ends.
func NewTrace(t testing.TB) *Trace {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m0play.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &Trace{t: t, Store: st, Path: path, Clock: NewTraceClock(TraceStart, TraceStep)}
}

// MIOOp records op under session and its translation into motrOps.
func (tr *Trace) MIOOp(pid int64, session, op string, motrOps ...string) {
	tr.t.Helper()
	ctx := context.Background()
	if err := tr.Store.WriteSessionOp(ctx, tr.Clock.Next(), pid, session, op); err != nil {
		tr.t.Fatalf("WriteSessionOp() failed: %v", err)
	}
	tr.Map("mio_op_to_motr_op", pid, op, motrOps...)
}

// States records the state transitions of request id, one clock tick apart.
func (tr *Trace) States(kind store.RequestKind, pid int64, id string, states ...string) {
	tr.t.Helper()
	for _, state := range states {
		ev := timeline.Event{Time: tr.Clock.Next(), PID: pid, ID: id, State: state}
		if err := tr.Store.WriteRequestState(context.Background(), kind, ev); err != nil {
			tr.t.Fatalf("WriteRequestState(%s) failed: %v", kind, err)
		}
	}
}

// Map records from -> to rows of a link table.
func (tr *Trace) Map(mapping string, pid int64, from string, to ...string) {
	tr.t.Helper()
	for _, id := range to {
		if err := tr.Store.WriteMapping(context.Background(), mapping, tr.Clock.Next(), pid, from, id); err != nil {
			tr.t.Fatalf("WriteMapping(%s) failed: %v", mapping, err)
		}
	}
}

// Exchange records a client RPC item delivered to a server FOM. Every call
// uses a new xid.
func (tr *Trace) Exchange(clientPID int64, clientRPC string, serverPID int64, serverRPC, fom string) {
	tr.t.Helper()
	tr.xid++
	x := store.RPCExchange{
		Time:      tr.Clock.Next(),
		ClientPID: clientPID,
		ClientRPC: clientRPC,
		XID:       tr.xid,
		SessionID: 1,
		ServerPID: serverPID,
		ServerRPC: serverRPC,
		FOM:       fom,
		Service:   "ios",
	}
	if err := tr.Store.WriteRPCExchange(context.Background(), x); err != nil {
		tr.t.Fatalf("WriteRPCExchange() failed: %v", err)
	}
}

// IOScenario describes an object I/O op: MIO op -> client request -> ioo
// request -> rpc -> server fom.
type IOScenario struct {
	PID       int64
	Session   string
	Op        string
	MotrOp    string
	IOO       string
	RPC       string
	ServerPID int64
	ServerRPC string
	FOM       string
}

// DefaultIO is op 42 of pid 7 served by fom 800 of pid 9.
var DefaultIO = IOScenario{
	PID: 7, Session: "1", Op: "42", MotrOp: "99", IOO: "5", RPC: "300",
	ServerPID: 9, ServerRPC: "301", FOM: "800",
}

// SeedIO records s. Every request gets two states; the scenario yields
// eight extracted events and two client events.
func (tr *Trace) SeedIO(s IOScenario) {
	tr.t.Helper()
	tr.MIOOp(s.PID, s.Session, s.Op, s.MotrOp)
	tr.States(store.KindClient, s.PID, s.MotrOp, "initialised", "stable")
	tr.Map("client_to_ioo", s.PID, s.MotrOp, s.IOO)
	tr.States(store.KindIOO, s.PID, s.IOO, "IRS_INITIALIZED", "IRS_REQ_COMPLETE")
	tr.Map("ioo_to_rpc", s.PID, s.IOO, s.RPC)
	tr.States(store.KindRPC, s.PID, s.RPC, "SENT", "REPLIED")
	tr.Exchange(s.PID, s.RPC, s.ServerPID, s.ServerRPC, s.FOM)
	tr.States(store.KindFOM, s.ServerPID, s.FOM, "init", "finish")
}

// DIXScenario describes an index op: MIO op -> client request -> dix request
// -> cas request -> rpc -> server fom.
type DIXScenario struct {
	PID       int64
	Session   string
	Op        string
	MotrOp    string
	DIX       string
	CAS       string
	RPC       string
	ServerPID int64
	ServerRPC string
	FOM       string
}

// DefaultDIX is op 50 of pid 7 served by fom 810 of pid 9.
var DefaultDIX = DIXScenario{
	PID: 7, Session: "1", Op: "50", MotrOp: "120", DIX: "15", CAS: "25", RPC: "310",
	ServerPID: 9, ServerRPC: "311", FOM: "810",
}

// SeedDIX records s with two states per request.
func (tr *Trace) SeedDIX(s DIXScenario) {
	tr.t.Helper()
	tr.MIOOp(s.PID, s.Session, s.Op, s.MotrOp)
	tr.States(store.KindClient, s.PID, s.MotrOp, "initialised", "stable")
	tr.Map("client_to_dix", s.PID, s.MotrOp, s.DIX)
	tr.States(store.KindDIX, s.PID, s.DIX, "DIXREQ_INIT", "DIXREQ_FINAL")
	tr.Map("dix_to_cas", s.PID, s.DIX, s.CAS)
	tr.States(store.KindCAS, s.PID, s.CAS, "CASREQ_INIT", "CASREQ_FINAL")
	tr.Map("cas_to_rpc", s.PID, s.CAS, s.RPC)
	tr.States(store.KindRPC, s.PID, s.RPC, "SENT", "REPLIED")
	tr.Exchange(s.PID, s.RPC, s.ServerPID, s.ServerRPC, s.FOM)
	tr.States(store.KindFOM, s.ServerPID, s.FOM, "init", "finish")
}
