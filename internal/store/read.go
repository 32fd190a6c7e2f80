package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/opzoom/internal/timeline"
)

// ErrUnknownMapping is returned when a caller names a mapping that is not in
// the Mappings whitelist.
var ErrUnknownMapping = errors.New("unknown mapping")

// ErrUnknownKind is returned for request kinds outside the catalogue.
var ErrUnknownKind = errors.New("unknown request kind")

// Link is one Motr client operation a MIO operation was translated into.
type Link struct {
	MotrOp string
	PID    int64
}

// Target is a request id reached through a mapping, with the process that
// owns it.
type Target struct {
	ID  string
	PID int64
}

// LinksForOp returns the Motr operations backing the MIO operation op.
// The session table is joined so that only ops opened under a MIO session
// are returned. When pid is non-nil only links from that process are kept.
//
// Results are ordered by first appearance. Returns an empty slice (not nil)
// if the op is unknown.
func (s *Store) LinksForOp(ctx context.Context, op string, pid *int64) ([]Link, error) {
	query := `
		SELECT m.motr_op, m.pid
		FROM mio_op_to_motr_op m
		JOIN mio_session_to_op s ON m.mio_op = s.op
		WHERE s.op = ?`
	args := []any{op}
	if pid != nil {
		query += ` AND m.pid = ?`
		args = append(args, *pid)
	}
	query += `
		GROUP BY m.motr_op, m.pid
		ORDER BY MIN(m.time) ASC, m.motr_op ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryErr("query op links", err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.MotrOp, &l.PID); err != nil {
			return nil, queryErr("scan op link", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate op links", err)
	}

	return links, nil
}

// ClientRequestRows returns the state transitions of a client request with an
// op label naming every sub-layer (cob, dix, ioo) that referenced the same
// (id, pid) pair, e.g. "client[ioo] 99".
func (s *Store) ClientRequestRows(ctx context.Context, id string, pid int64) ([]timeline.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.time, r.pid, r.id, r.state,
			'client[' || IFNULL(cob.op, '') || IFNULL(dix.op, '') || IFNULL(ioo.op, '') || '] ' || r.id AS op
		FROM client_req r
		LEFT JOIN (SELECT DISTINCT 'cob' AS op, client_id, pid FROM client_to_cob) AS cob
			ON cob.client_id = r.id AND cob.pid = r.pid
		LEFT JOIN (SELECT DISTINCT 'dix' AS op, client_id, pid FROM client_to_dix) AS dix
			ON dix.client_id = r.id AND dix.pid = r.pid
		LEFT JOIN (SELECT DISTINCT 'ioo' AS op, client_id, pid FROM client_to_ioo) AS ioo
			ON ioo.client_id = r.id AND ioo.pid = r.pid
		WHERE r.id = ? AND r.pid = ?
		ORDER BY r.time ASC
	`, id, pid)
	if err != nil {
		return nil, queryErr("query client request", err)
	}
	defer rows.Close()

	return scanEvents(rows, true)
}

// RequestStates returns the state transitions of request id in the table for
// kind, ordered by time. Op is left empty for the caller to label.
func (s *Store) RequestStates(ctx context.Context, kind RequestKind, id string, pid int64) ([]timeline.Event, error) {
	if !requestKinds[kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	// kind is checked against the catalogue above; only values are bound.
	rows, err := s.db.QueryContext(ctx,
		"SELECT time, pid, id, state FROM "+string(kind)+
			" WHERE id = ? AND pid = ? ORDER BY time ASC",
		id, pid)
	if err != nil {
		return nil, queryErr("query "+string(kind), err)
	}
	defer rows.Close()

	return scanEvents(rows, false)
}

// Children returns the ids reached from id through a whitelisted mapping
// within process pid, in order of first appearance.
func (s *Store) Children(ctx context.Context, mapping, id string, pid int64) ([]string, error) {
	targets, err := s.ResolveMapping(ctx, mapping, id, &pid)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// ResolveMapping returns the targets reached from id through mapping.
// A nil pid matches every process. MappingRPCToFOM crosses to the server
// process and therefore requires a pid.
func (s *Store) ResolveMapping(ctx context.Context, mapping, id string, pid *int64) ([]Target, error) {
	if mapping == MappingRPCToFOM {
		if pid == nil {
			return nil, fmt.Errorf("%s requires a client pid", MappingRPCToFOM)
		}
		return s.ServerFoms(ctx, id, *pid)
	}

	m, ok := Mappings[mapping]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMapping, mapping)
	}

	query := "SELECT " + m.To + ", pid FROM " + m.Table + " WHERE " + m.From + " = ?"
	args := []any{id}
	if pid != nil {
		query += " AND pid = ?"
		args = append(args, *pid)
	}
	query += " GROUP BY " + m.To + ", pid ORDER BY MIN(time) ASC, " + m.To + " ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryErr("query "+m.Table, err)
	}
	defer rows.Close()

	return scanTargets(rows)
}

// ServerFoms follows a client RPC to the server FOMs that serviced it:
// the client (rpc_id, pid) is matched to its (xid, session) pair, which the
// server side records against its own RPC item, which fom_desc in turn ties
// to a FOM state machine.
func (s *Store) ServerFoms(ctx context.Context, rpcID string, pid int64) ([]Target, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.fom_sm_id, f.pid
		FROM rpc_to_sxid c
		JOIN sxid_to_rpc x ON x.xid = c.xid AND x.session_id = c.session_id
		JOIN fom_desc f ON f.rpc_sm_id = x.rpc_id AND f.pid = x.pid
		WHERE c.rpc_id = ? AND c.pid = ?
		GROUP BY f.fom_sm_id, f.pid
		ORDER BY MIN(f.time) ASC, f.fom_sm_id ASC
	`, rpcID, pid)
	if err != nil {
		return nil, queryErr("query server foms", err)
	}
	defer rows.Close()

	return scanTargets(rows)
}

func scanTargets(rows *sql.Rows) ([]Target, error) {
	targets := []Target{}
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.PID); err != nil {
			return nil, queryErr("scan target", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate targets", err)
	}
	return targets, nil
}

// scanEvents reads (time, pid, id, state[, op]) rows.
func scanEvents(rows *sql.Rows, withOp bool) ([]timeline.Event, error) {
	events := []timeline.Event{}
	for rows.Next() {
		var ev timeline.Event
		dest := []any{&ev.Time, &ev.PID, &ev.ID, &ev.State}
		if withOp {
			dest = append(dest, &ev.Op)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, queryErr("scan event", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("iterate events", err)
	}
	return events, nil
}
