package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/gridyield/internal/ir"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestStore opens a fresh file-backed store under t.TempDir().
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

func seedUser(t *testing.T, s *Store, id string, votes int64, networker bool) {
	t.Helper()
	err := s.InTx(context.Background(), func(tx *Tx) error {
		return tx.SaveProfile(ir.Profile{UserID: id, AvailableVotes: votes, IsNetworker: networker})
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func testModule(id, owner string, pos *ir.GridPos) ir.Module {
	return ir.Module{
		ID:          id,
		Owner:       owner,
		Item:        "lemonade_stand",
		Pos:         pos,
		LastHarvest: testEpoch,
		State:       ir.NeedsSetup,
	}
}
