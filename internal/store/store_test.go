package store

import (
	"context"
	"testing"
	"time"

	"github.com/unc0mm0n/kung-fu-chess/internal/board"
)

func newTestRecord(t *testing.T) *GameRecord {
	t.Helper()
	b, err := board.ParseNfen(board.StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	return NewGameRecord(b, 1000, 0, time.Hour)
}

func TestMemoryStoreCreateLoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := "manager:test:games:1"

	rec := newTestRecord(t)
	created, err := s.Create(ctx, key, rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("expected Create to report created=true on first insert")
	}

	created, err = s.Create(ctx, key, rec)
	if err != nil {
		t.Fatalf("Create (second): %v", err)
	}
	if created {
		t.Fatal("expected Create to report created=false on existing key")
	}

	loaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.State != Waiting {
		t.Errorf("expected waiting state, got %s", loaded.State)
	}

	if err := loaded.SetWhite("alice"); err != nil {
		t.Fatalf("SetWhite: %v", err)
	}
	if err := s.Save(ctx, key, loaded); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if reloaded.White == nil || *reloaded.White != "alice" {
		t.Errorf("expected white=alice, got %v", reloaded.White)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Load(context.Background(), "manager:test:games:missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreMutateAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := "manager:test:games:2"
	rec := newTestRecord(t)
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := s.Mutate(ctx, key, func(r *GameRecord) error {
		return r.SetWhite("bob")
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	loaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.White == nil || *loaded.White != "bob" {
		t.Errorf("expected white=bob, got %v", loaded.White)
	}
}

func TestGameRecordSetWhiteBlackTransitionsToPlaying(t *testing.T) {
	rec := newTestRecord(t)
	if err := rec.SetWhite("alice"); err != nil {
		t.Fatalf("SetWhite: %v", err)
	}
	if rec.State != Waiting {
		t.Errorf("expected waiting with only one player set, got %s", rec.State)
	}
	if err := rec.SetBlack("bob"); err != nil {
		t.Fatalf("SetBlack: %v", err)
	}
	if rec.State != Playing {
		t.Errorf("expected playing once both players set, got %s", rec.State)
	}
}

func TestGameRecordSetWhiteTwiceFails(t *testing.T) {
	rec := newTestRecord(t)
	if err := rec.SetWhite("alice"); err != nil {
		t.Fatalf("SetWhite: %v", err)
	}
	if err := rec.SetWhite("carol"); err != ErrPlayerAlreadySet {
		t.Errorf("expected ErrPlayerAlreadySet, got %v", err)
	}
}

func TestGameRecordCheckWinner(t *testing.T) {
	rec := newTestRecord(t)
	rec.State = Playing
	whiteID, blackID := "alice", "bob"
	rec.White, rec.Black = &whiteID, &blackID

	if err := rec.Board.Put(rec.Board.King(board.Black), board.EmptyPiece); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !rec.CheckWinner() {
		t.Fatal("expected CheckWinner to detect black king capture")
	}
	if rec.State != WhiteWins {
		t.Errorf("expected w_wins, got %s", rec.State)
	}
	if rec.Winner() == nil || *rec.Winner() != whiteID {
		t.Errorf("expected winner alice, got %v", rec.Winner())
	}
}

func TestMemoryStoreIdleTTLSurvivesReload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := "manager:test:games:ttl"
	b, err := board.ParseNfen(board.StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := NewGameRecord(b, 1000, 0, 30*time.Minute)
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.IdleTTL != 30*time.Minute {
		t.Fatalf("expected IdleTTL to round-trip as 30m, got %s", loaded.IdleTTL)
	}

	// A second access must still see the same configured window, not
	// an untimed record that silently lost its TTL on first reload.
	if err := s.Mutate(ctx, key, func(r *GameRecord) error { return nil }); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	reloaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load after Mutate: %v", err)
	}
	if reloaded.IdleTTL != 30*time.Minute {
		t.Fatalf("expected IdleTTL to still be 30m after a mutate round-trip, got %s", reloaded.IdleTTL)
	}
}
