package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_CreatesEveryKnownTable(t *testing.T) {
	s := createTestStore(t)

	for _, tbl := range Tables {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + tbl.Name).Scan(&count); err != nil {
			t.Errorf("table %s: %v", tbl.Name, err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_KeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	mustWriteState(t, s1, KindClient, 10, 7, "99", "initialised")
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	events, err := s2.RequestStates(context.Background(), KindClient, "99", 7)
	if err != nil {
		t.Fatalf("RequestStates() failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after reopen, want 1", len(events))
	}
}

func TestClosedStore_ReturnsErrQuery(t *testing.T) {
	s := createTestStore(t)
	s.Close()

	_, err := s.LinksForOp(context.Background(), "42", nil)
	if !errors.Is(err, ErrQuery) {
		t.Errorf("LinksForOp() on closed store: error = %v, want ErrQuery", err)
	}

	_, err = s.RequestStates(context.Background(), KindClient, "99", 7)
	if !errors.Is(err, ErrQuery) {
		t.Errorf("RequestStates() on closed store: error = %v, want ErrQuery", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store = %v, want nil", err)
	}
}
