package board

import "testing"

func TestParseNfenStarting(t *testing.T) {
	b, err := ParseNfen(StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	if got := b.Nfen(); got != StartingNfen {
		t.Errorf("round trip: got %q, want %q", got, StartingNfen)
	}
	wk, _ := NewSquare(5, 1)
	bk, _ := NewSquare(5, 8)
	if b.King(White) != wk {
		t.Errorf("white king at wrong square: %s", b.King(White))
	}
	if b.King(Black) != bk {
		t.Errorf("black king at wrong square: %s", b.King(Black))
	}
	for _, side := range []CastleSide{KingsideCastle, QueensideCastle} {
		if !b.CanCastle(White, side) || !b.CanCastle(Black, side) {
			t.Errorf("expected full castling rights from %q", StartingNfen)
		}
	}
}

func TestParseNfenNoCastles(t *testing.T) {
	b, err := ParseNfen("8/8/8/8/8/8/8/4K2k - 0")
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	if b.CastlesString() != "-" {
		t.Errorf("expected no castling rights, got %q", b.CastlesString())
	}
}

func TestParseNfenRejectsMissingKing(t *testing.T) {
	if _, err := ParseNfen("8/8/8/8/8/8/8/8 - 0"); err == nil {
		t.Error("expected ErrBadBoardSetup for a board with no king")
	}
}

func TestParseNfenRejectsDuplicateKings(t *testing.T) {
	if _, err := ParseNfen("8/8/8/8/8/8/8/KK5K - 0"); err == nil {
		t.Error("expected ErrBadBoardSetup for a board with two kings of the same color")
	}
}

func TestParseNfenRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR KQkq",
		"not-a-board KQkq 0",
	}
	for _, c := range cases {
		if _, err := ParseNfen(c); err == nil {
			t.Errorf("ParseNfen(%q) expected error, got none", c)
		}
	}
}

func TestBoardLayoutRoundTrip(t *testing.T) {
	b, err := ParseNfen(StartingNfen)
	if err != nil {
		t.Fatalf("ParseNfen: %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	if got := b.BoardLayout(); got != want {
		t.Errorf("BoardLayout() = %q, want %q", got, want)
	}
}
