package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartingNfen is the nFEN for a standard chess starting position with
// full castling rights and a zero half-move count.
const StartingNfen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR KQkq 0"

// ParseNfen parses a reduced FEN ("nFEN"): board layout, castling
// rights, half-move counter — space separated, omitting side-to-move,
// en-passant square, half-move clock, and full-move number from
// standard FEN. Fails with ErrBadBoardSetup if the resulting board
// holds zero or more than two kings, or the string is malformed.
func ParseNfen(nfen string) (*Board, error) {
	fields := strings.Fields(nfen)
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: expected 3 fields, got %d", ErrBadBoardSetup, len(fields))
	}

	b := NewEmptyBoard()
	if err := parseBoardLayout(b, fields[0]); err != nil {
		return nil, err
	}
	if err := parseCastles(b, fields[1]); err != nil {
		return nil, err
	}
	moveNumber, err := strconv.Atoi(fields[2])
	if err != nil || moveNumber < 0 {
		return nil, fmt.Errorf("%w: bad half-move count %q", ErrBadBoardSetup, fields[2])
	}
	b.SetMoveNumber(moveNumber)

	if b.King(White) == NoSquare && b.King(Black) == NoSquare {
		return nil, fmt.Errorf("%w: no king", ErrBadBoardSetup)
	}

	return b, nil
}

func parseBoardLayout(b *Board, layout string) error {
	ranks := strings.Split(layout, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrBadBoardSetup, len(ranks))
	}
	for i, rankStr := range ranks {
		rank := 8 - i
		file := 1
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			if file > 8 {
				return fmt.Errorf("%w: rank %d overflows", ErrBadBoardSetup, rank)
			}
			pt, ok := PieceTypeFromChar(c)
			if !ok {
				return fmt.Errorf("%w: unknown piece letter %q", ErrBadBoardSetup, string(c))
			}
			color := Black
			if c >= 'A' && c <= 'Z' {
				color = White
			}
			sq, err := NewSquare(file, rank)
			if err != nil {
				return err
			}
			if err := b.Put(sq, Piece{Type: pt, Color: color}); err != nil {
				return fmt.Errorf("%w: %v", ErrBadBoardSetup, err)
			}
			file++
		}
		if file != 9 {
			return fmt.Errorf("%w: rank %d has wrong width", ErrBadBoardSetup, rank)
		}
	}
	return nil
}

func parseCastles(b *Board, s string) error {
	if s == "-" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'K':
			b.SetCastle(White, KingsideCastle, true)
		case 'Q':
			b.SetCastle(White, QueensideCastle, true)
		case 'k':
			b.SetCastle(Black, KingsideCastle, true)
		case 'q':
			b.SetCastle(Black, QueensideCastle, true)
		default:
			return fmt.Errorf("%w: bad castling letter %q", ErrBadBoardSetup, string(s[i]))
		}
	}
	return nil
}

// Nfen renders the board back into nFEN form: layout, castles,
// half-move count.
func (b *Board) Nfen() string {
	return fmt.Sprintf("%s %s %d", b.BoardLayout(), b.CastlesString(), b.MoveNumber())
}
