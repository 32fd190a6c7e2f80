package store

import (
	"context"
	"fmt"

	"github.com/roach88/opzoom/internal/timeline"
)

// WriteRequestState inserts one state transition into the table for kind.
// ev.Op is not stored; labels are computed at read time.
func (s *Store) WriteRequestState(ctx context.Context, kind RequestKind, ev timeline.Event) error {
	if !requestKinds[kind] {
		return fmt.Errorf("write request state: %w: %q", ErrUnknownKind, kind)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+string(kind)+" (time, pid, id, state) VALUES (?, ?, ?, ?)",
		ev.Time, ev.PID, ev.ID, ev.State)
	if err != nil {
		return queryErr("write "+string(kind), err)
	}
	return nil
}

// WriteMapping records that from maps to to through a whitelisted mapping.
func (s *Store) WriteMapping(ctx context.Context, mapping string, time, pid int64, from, to string) error {
	m, ok := Mappings[mapping]
	if !ok {
		return fmt.Errorf("write mapping: %w: %q", ErrUnknownMapping, mapping)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+m.Table+" (time, pid, "+m.From+", "+m.To+") VALUES (?, ?, ?, ?)",
		time, pid, from, to)
	if err != nil {
		return queryErr("write "+m.Table, err)
	}
	return nil
}

// WriteSessionOp records that op was issued under a MIO session.
func (s *Store) WriteSessionOp(ctx context.Context, time, pid int64, sessionID, op string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mio_session_to_op (time, pid, session_id, op)
		VALUES (?, ?, ?, ?)
	`, time, pid, sessionID, op)
	if err != nil {
		return queryErr("write mio_session_to_op", err)
	}
	return nil
}

// RPCExchange describes one client RPC item delivered to a server FOM.
type RPCExchange struct {
	Time      int64
	ClientPID int64
	ClientRPC string
	XID       int64
	SessionID int64
	ServerPID int64
	ServerRPC string
	FOM       string
	Service   string
}

// WriteRPCExchange records both ends of an RPC exchange and the FOM
// descriptor that links the server RPC item to its FOM.
func (s *Store) WriteRPCExchange(ctx context.Context, x RPCExchange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("begin rpc exchange", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rpc_to_sxid (time, pid, rpc_id, xid, session_id)
		VALUES (?, ?, ?, ?, ?)
	`, x.Time, x.ClientPID, x.ClientRPC, x.XID, x.SessionID); err != nil {
		return queryErr("write rpc_to_sxid", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sxid_to_rpc (time, pid, xid, session_id, rpc_id)
		VALUES (?, ?, ?, ?, ?)
	`, x.Time, x.ServerPID, x.XID, x.SessionID, x.ServerRPC); err != nil {
		return queryErr("write sxid_to_rpc", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fom_desc (time, pid, service, rpc_sm_id, fom_sm_id)
		VALUES (?, ?, ?, ?, ?)
	`, x.Time, x.ServerPID, x.Service, x.ServerRPC, x.FOM); err != nil {
		return queryErr("write fom_desc", err)
	}

	if err := tx.Commit(); err != nil {
		return queryErr("commit rpc exchange", err)
	}
	return nil
}
