package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/opzoom/internal/timeline"
)

func TestWriteRequestState_UnknownKind(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteRequestState(context.Background(), RequestKind("bogus"), timeline.Event{ID: "1"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestWriteMapping_UnknownMapping(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteMapping(context.Background(), MappingRPCToFOM, 1, 7, "300", "800")
	if !errors.Is(err, ErrUnknownMapping) {
		t.Errorf("error = %v, want ErrUnknownMapping", err)
	}
}

func TestWriteRequestState_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustWriteState(t, s, KindRPC, 30, 7, "300", "REPLIED")
	mustWriteState(t, s, KindRPC, 10, 7, "300", "SENT")

	events, err := s.RequestStates(ctx, KindRPC, "300", 7)
	if err != nil {
		t.Fatalf("RequestStates() failed: %v", err)
	}
	want := []timeline.Event{
		{Time: 10, PID: 7, ID: "300", State: "SENT"},
		{Time: 30, PID: 7, ID: "300", State: "REPLIED"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestWriteRPCExchange_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec("DROP TABLE fom_desc"); err != nil {
		t.Fatalf("drop fom_desc: %v", err)
	}

	err := s.WriteRPCExchange(ctx, RPCExchange{
		Time: 10, ClientPID: 7, ClientRPC: "300", XID: 1, SessionID: 1,
		ServerPID: 9, ServerRPC: "301", FOM: "800",
	})
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("error = %v, want ErrQuery", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM rpc_to_sxid").Scan(&count); err != nil {
		t.Fatalf("count rpc_to_sxid: %v", err)
	}
	if count != 0 {
		t.Errorf("rpc_to_sxid has %d rows after rollback, want 0", count)
	}
}
