package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/opzoom/internal/timeline"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustWriteState(t *testing.T, s *Store, kind RequestKind, time, pid int64, id, state string) {
	t.Helper()
	ev := timeline.Event{Time: time, PID: pid, ID: id, State: state}
	if err := s.WriteRequestState(context.Background(), kind, ev); err != nil {
		t.Fatalf("WriteRequestState(%s) failed: %v", kind, err)
	}
}

func mustWriteMapping(t *testing.T, s *Store, mapping string, time, pid int64, from, to string) {
	t.Helper()
	if err := s.WriteMapping(context.Background(), mapping, time, pid, from, to); err != nil {
		t.Fatalf("WriteMapping(%s) failed: %v", mapping, err)
	}
}

func mustWriteSessionOp(t *testing.T, s *Store, time, pid int64, session, op string) {
	t.Helper()
	if err := s.WriteSessionOp(context.Background(), time, pid, session, op); err != nil {
		t.Fatalf("WriteSessionOp() failed: %v", err)
	}
}

func ptr(v int64) *int64 { return &v }
