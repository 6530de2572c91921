package applier

import (
	"context"
	"testing"
	"time"

	"github.com/unc0mm0n/kung-fu-chess/internal/board"
	"github.com/unc0mm0n/kung-fu-chess/internal/store"
)

func clockAt(ms int64) Clock {
	return func() int64 { return ms }
}

func newPlayingGame(t *testing.T) (store.Store, string) {
	t.Helper()
	b, err := board.ParseNfen(board.StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := store.NewGameRecord(b, 1000, 0, time.Hour)
	white, black := "pA", "pB"
	rec.White, rec.Black = &white, &black
	rec.State = store.Playing

	s := store.NewMemoryStore()
	key := "manager:test:games:1"
	if _, err := s.Create(context.Background(), key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s, key
}

func TestApplyLegalMove(t *testing.T) {
	ctx := context.Background()
	s, key := newPlayingGame(t)

	res, err := Apply(ctx, s, key, "pA", "e2", "e4", nil, clockAt(500))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res == nil {
		t.Fatal("expected a legal move to succeed")
	}
	if res.Move.From.String() != "e2" || res.Move.To.String() != "e4" {
		t.Errorf("unexpected move %+v", res.Move)
	}
	if res.Move.Time == nil || *res.Move.Time != 500 {
		t.Errorf("expected move time 500, got %v", res.Move.Time)
	}
	if res.State != store.Playing {
		t.Errorf("expected state still playing, got %s", res.State)
	}

	rec, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	times := rec.Board.Times()
	if times["e4"] != 500 {
		t.Errorf("expected times[e4]=500, got %v", times)
	}
	if _, ok := times["e2"]; ok {
		t.Error("expected no time entry left at e2")
	}
}

func TestApplyCooldownViolation(t *testing.T) {
	ctx := context.Background()
	s, key := newPlayingGame(t)

	if _, err := Apply(ctx, s, key, "pA", "e2", "e4", nil, clockAt(0)); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	res, err := Apply(ctx, s, key, "pA", "e4", "e5", nil, clockAt(500))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != nil {
		t.Fatalf("expected cooldown violation to be rejected, got %+v", res)
	}

	res, err = Apply(ctx, s, key, "pA", "e4", "e5", nil, clockAt(1000))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res == nil {
		t.Fatal("expected move to succeed once cooldown has elapsed")
	}
}

func TestApplyWrongOwner(t *testing.T) {
	ctx := context.Background()
	s, key := newPlayingGame(t)

	res, err := Apply(ctx, s, key, "pB", "e2", "e4", nil, clockAt(0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != nil {
		t.Fatal("expected black player moving a white pawn to be rejected")
	}
}

func TestApplyIllegalDestination(t *testing.T) {
	ctx := context.Background()
	s, key := newPlayingGame(t)

	res, err := Apply(ctx, s, key, "pA", "e2", "e5", nil, clockAt(0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != nil {
		t.Fatal("expected an unreachable destination to be rejected")
	}
}

func TestApplyUnparsableCoordinatesRejectedSilently(t *testing.T) {
	ctx := context.Background()
	s, key := newPlayingGame(t)

	res, err := Apply(ctx, s, key, "pA", "zz", "e4", nil, clockAt(0))
	if err != nil {
		t.Fatalf("expected no error for a parse failure, got %v", err)
	}
	if res != nil {
		t.Fatal("expected a malformed coordinate to be rejected")
	}
}

func TestApplyGameNotPlaying(t *testing.T) {
	ctx := context.Background()
	b, err := board.ParseNfen(board.StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := store.NewGameRecord(b, 1000, 0, time.Hour)
	s := store.NewMemoryStore()
	key := "manager:test:games:waiting"
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := Apply(ctx, s, key, "pA", "e2", "e4", nil, clockAt(0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != nil {
		t.Fatal("expected a move before the game starts to be rejected")
	}
}

func TestApplyMissingGameReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	res, err := Apply(ctx, s, "manager:test:games:missing", "pA", "e2", "e4", nil, clockAt(0))
	if err != nil {
		t.Fatalf("expected no error for a missing game, got %v", err)
	}
	if res != nil {
		t.Fatal("expected a missing game to be rejected, not errored")
	}
}

func TestApplyCastling(t *testing.T) {
	ctx := context.Background()
	nfen := "r3k2r/8/8/8/8/8/8/R3K2R KQkq 0"
	b, err := board.ParseNfen(nfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := store.NewGameRecord(b, 1000, 0, time.Hour)
	white, black := "pA", "pB"
	rec.White, rec.Black = &white, &black
	rec.State = store.Playing

	s := store.NewMemoryStore()
	key := "manager:test:games:castle"
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := Apply(ctx, s, key, "pA", "e1", "g1", nil, clockAt(100))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res == nil || !res.Move.KingsideCastle {
		t.Fatalf("expected a kingside castle to succeed, got %+v", res)
	}

	loaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Board.Get(mustSquare("g1")).Type != board.King {
		t.Error("expected king on g1 after castling")
	}
	if loaded.Board.Get(mustSquare("f1")).Type != board.Rook {
		t.Error("expected rook on f1 after castling")
	}
	if loaded.Board.CanCastle(board.White, board.QueensideCastle) {
		t.Error("expected queenside right revoked once the king has moved")
	}
}

func TestApplyPromotion(t *testing.T) {
	ctx := context.Background()
	nfen := "8/P6k/8/8/8/8/8/7K - 0"
	b, err := board.ParseNfen(nfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := store.NewGameRecord(b, 1000, 0, time.Hour)
	white, black := "pA", "pB"
	rec.White, rec.Black = &white, &black
	rec.State = store.Playing

	s := store.NewMemoryStore()
	key := "manager:test:games:promote"
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	promote := "q"
	res, err := Apply(ctx, s, key, "pA", "a7", "a8", &promote, clockAt(0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res == nil || !res.Move.IsPromotion() || res.Move.Promote != board.Queen {
		t.Fatalf("expected a queen promotion, got %+v", res)
	}

	loaded, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	promoted := loaded.Board.Get(mustSquare("a8"))
	if promoted.Type != board.Queen || promoted.Color != board.White {
		t.Errorf("expected a white queen on a8, got %+v", promoted)
	}
}

func TestApplyKingCaptureEndsGame(t *testing.T) {
	ctx := context.Background()
	nfen := "k7/8/8/8/8/8/8/Q6K - 0"
	b, err := board.ParseNfen(nfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	rec := store.NewGameRecord(b, 0, 0, time.Hour)
	white, black := "pA", "pB"
	rec.White, rec.Black = &white, &black
	rec.State = store.Playing

	s := store.NewMemoryStore()
	key := "manager:test:games:mate"
	if _, err := s.Create(ctx, key, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := Apply(ctx, s, key, "pA", "a1", "a8", nil, clockAt(100))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res == nil {
		t.Fatal("expected the queen to reach a8")
	}
	if res.State != store.WhiteWins {
		t.Errorf("expected white to win after capturing the black king, got %s", res.State)
	}
}
