// Package applier implements the Move Applier: the eight-step
// validate-then-mutate procedure that turns a (player, game key, from,
// to, promote?) request into either a committed board mutation or a
// flat rejection. Modeled on original_source/src/kfchess/game.py's
// Game.move(), reworked against the store.Store contract instead of
// direct in-process field access.
package applier

import (
	"context"

	"github.com/unc0mm0n/kung-fu-chess/internal/board"
	"github.com/unc0mm0n/kung-fu-chess/internal/store"
)

// Clock returns the current wall-clock time in milliseconds since the
// Unix epoch. Tests substitute a deterministic clock; production code
// wires time.Now().UnixMilli.
type Clock func() int64

// Result is what a successful Apply produces: the committed move (with
// its Time field stamped) and the game's state after the mutation.
type Result struct {
	Move  board.Move
	State store.GameState
}

// Apply runs the Move Applier's eight-step procedure against s.
//
// A (nil, nil) return means the request was rejected — unparsable
// coordinates or promotion letter, a missing game, or a move that is
// illegal or mistimed — a uniform rejection, which the manager turns
// into a move-cnf with a null payload. A non-nil error
// means the store itself failed (the backend is unavailable, a
// mutation round-trip failed to serialize); that is an infrastructure
// fault, not a ruling on the move, and the manager logs it as an
// error-ind instead of answering the move request at all.
func Apply(ctx context.Context, s store.Store, key, playerID, fromNotation, toNotation string, promote *string, now Clock) (*Result, error) {
	// Step 1: parse coordinates. A parse failure is indistinguishable
	// from an illegal move to the caller.
	from, err := board.ParseSquare(fromNotation)
	if err != nil {
		return nil, nil
	}
	to, err := board.ParseSquare(toNotation)
	if err != nil {
		return nil, nil
	}
	promoteType := board.Empty
	if promote != nil && *promote != "" {
		pt, ok := board.PieceTypeFromChar((*promote)[0])
		if !ok {
			return nil, nil
		}
		promoteType = pt
	}

	var result *Result
	mutateErr := s.Mutate(ctx, key, func(rec *store.GameRecord) error {
		r, rejected := applyToRecord(rec, playerID, from, to, promoteType, now())
		if rejected {
			return errRejected
		}
		result = r
		return nil
	})

	if mutateErr == errRejected || mutateErr == store.ErrNotFound {
		return nil, nil
	}
	if mutateErr != nil {
		return nil, mutateErr
	}
	return result, nil
}

// errRejected is a private sentinel used to unwind Mutate's callback
// without committing a write, and is never observed outside this file.
var errRejected = rejectedErr{}

type rejectedErr struct{}

func (rejectedErr) Error() string { return "applier: move rejected" }

// applyToRecord performs steps 2-8 against an already-loaded record.
// The bool return is true when the request is rejected and rec must
// not be persisted.
func applyToRecord(rec *store.GameRecord, playerID string, from, to board.Square, promote board.PieceType, nowMs int64) (*Result, bool) {
	// Step 2: game must be in progress.
	if rec.State != store.Playing {
		return nil, true
	}

	// Step 3: the piece at from must exist and be owned by playerID.
	piece := rec.Board.Get(from)
	if piece.IsEmpty() {
		return nil, true
	}
	ownedColor, owns := rec.OwnsColor(playerID)
	if !owns || piece.Color != ownedColor {
		return nil, true
	}

	// Step 4: the move must be among from's pseudo-legal moves, with a
	// matching promotion request.
	move, found := board.FindMove(rec.Board, from, to, promote)
	if !found {
		return nil, true
	}

	// Step 5: cooldown check, relative to game start.
	relativeMoveTime := nowMs - rec.StartTimeMs
	if piece.LastMoveTime != nil && rec.CooldownMs > relativeMoveTime-*piece.LastMoveTime {
		return nil, true
	}

	// Step 6: mutate.
	rec.Board.Move(from, to, relativeMoveTime)

	if move.KingsideCastle {
		rec.Board.Move(to.Right(), to.Left(), relativeMoveTime)
	} else if move.QueensideCastle {
		rec.Board.Move(to.Left().Left(), to.Right(), relativeMoveTime)
	}

	if move.IsPromotion() {
		t := relativeMoveTime
		_ = rec.Board.Put(to, board.Piece{Type: move.Promote, Color: piece.Color, LastMoveTime: &t})
	}

	disableCastlesFor(rec.Board, board.White, from, to)
	disableCastlesFor(rec.Board, board.Black, from, to)

	// Step 7: win transition.
	rec.CheckWinner()

	// Step 8: stamp the move's own metadata and record it on the
	// record for sync-cnf reporting.
	move.Time = &relativeMoveTime
	rec.RecordMove(relativeMoveTime)

	return &Result{Move: move, State: rec.State}, false
}

// castleAnchors names, per color, the king-start and rook-start
// squares whose occupation by a from/to move revokes that side's
// castling right.
type castleAnchors struct {
	king, kingRook, queenRook board.Square
}

var anchorsByColor = map[board.Color]castleAnchors{
	board.White: {king: mustSquare("e1"), kingRook: mustSquare("h1"), queenRook: mustSquare("a1")},
	board.Black: {king: mustSquare("e8"), kingRook: mustSquare("h8"), queenRook: mustSquare("a8")},
}

func mustSquare(s string) board.Square {
	sq, err := board.ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func disableCastlesFor(b *board.Board, c board.Color, from, to board.Square) {
	a := anchorsByColor[c]
	touched := func(sq board.Square) bool { return from == sq || to == sq }
	if touched(a.king) {
		b.DisableCastle(c, board.KingsideCastle)
		b.DisableCastle(c, board.QueensideCastle)
		return
	}
	if touched(a.kingRook) {
		b.DisableCastle(c, board.KingsideCastle)
	}
	if touched(a.queenRook) {
		b.DisableCastle(c, board.QueensideCastle)
	}
}
