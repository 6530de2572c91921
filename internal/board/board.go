package board

import "encoding/json"

// CastleSide distinguishes kingside from queenside castling rights.
type CastleSide uint8

const (
	KingsideCastle CastleSide = iota
	QueensideCastle
)

// Board is the in-memory representation of one game's pieces, king
// locators, and castling rights. It has no notion of players, store
// keys, or TTL — those live one layer up, in package store. Board is
// deliberately small and copyable-by-value-of-its-fields so the store
// layer can (de)serialize it wholesale as part of a game's persisted
// record.
type Board struct {
	squares [128]Piece
	kings   [2]Square // indexed by Color; NoSquare if captured

	castleK [2]bool // indexed by Color; kingside right remaining
	castleQ [2]bool // indexed by Color; queenside right remaining

	moveNumber int
}

// NewEmptyBoard returns a board with every square empty and no
// castling rights.
func NewEmptyBoard() *Board {
	b := &Board{}
	for i := range b.squares {
		b.squares[i] = EmptyPiece
	}
	b.kings = [2]Square{NoSquare, NoSquare}
	return b
}

// Get returns the piece at sq. An off-board or unoccupied square
// returns EmptyPiece.
func (b *Board) Get(sq Square) Piece {
	if !sq.Valid() {
		return EmptyPiece
	}
	return b.squares[sq]
}

// Put places p at sq, overwriting any occupant. If the overwritten
// piece was a king, that color's locator is cleared. If p is a king,
// Put fails with ErrDuplicateKing when a king of that color is
// already located elsewhere.
func (b *Board) Put(sq Square, p Piece) error {
	if !sq.Valid() {
		return ErrBadCoordinate
	}
	prev := b.squares[sq]
	if prev.Type == King && (p.Type != King || p.Color != prev.Color) {
		b.kings[prev.Color] = NoSquare
	}
	if p.Type == King {
		if cur := b.kings[p.Color]; cur != NoSquare && cur != sq {
			return ErrDuplicateKing
		}
		b.kings[p.Color] = sq
	}
	b.squares[sq] = p
	return nil
}

// Move relocates the piece at from to to, deleting any prior occupant
// of to, stamping LastMoveTime = newTime on the moved piece, and
// incrementing MoveNumber. Returns the moved piece, or EmptyPiece and
// false if from was empty. If the moved piece is a king, its locator
// is cleared before Put runs so Put sees the color as unlocated and
// relocates it to to instead of rejecting the move as a duplicate
// king at its own old square.
func (b *Board) Move(from, to Square, newTime int64) (Piece, bool) {
	p := b.Get(from)
	if p.IsEmpty() {
		return EmptyPiece, false
	}
	var prevKingSq Square
	if p.Type == King {
		prevKingSq = b.kings[p.Color]
		b.kings[p.Color] = NoSquare
	}
	t := newTime
	p.LastMoveTime = &t
	if err := b.Put(to, p); err != nil {
		if p.Type == King {
			b.kings[p.Color] = prevKingSq
		}
		return EmptyPiece, false
	}
	b.squares[from] = EmptyPiece
	b.moveNumber++
	return p, true
}

// King returns the square of the given color's king, or NoSquare if
// captured.
func (b *Board) King(c Color) Square {
	return b.kings[c]
}

// CanCastle reports whether color still holds the castling right on
// the given side.
func (b *Board) CanCastle(c Color, side CastleSide) bool {
	if side == KingsideCastle {
		return b.castleK[c]
	}
	return b.castleQ[c]
}

// SetCastle sets the castling right for color/side explicitly (used
// when constructing a board from an nFEN).
func (b *Board) SetCastle(c Color, side CastleSide, allowed bool) {
	if side == KingsideCastle {
		b.castleK[c] = allowed
	} else {
		b.castleQ[c] = allowed
	}
}

// DisableCastle permanently revokes a castling right. Rights are
// monotonically non-increasing over a game's lifetime; there is no
// corresponding Enable.
func (b *Board) DisableCastle(c Color, side CastleSide) {
	b.SetCastle(c, side, false)
}

// MoveNumber returns the half-move counter.
func (b *Board) MoveNumber() int {
	return b.moveNumber
}

// SetMoveNumber overrides the half-move counter (used when restoring
// from an nFEN half-move field).
func (b *Board) SetMoveNumber(n int) {
	b.moveNumber = n
}

// CastlesString renders castling rights in FEN order (KQkq), or "-"
// if none remain.
func (b *Board) CastlesString() string {
	res := make([]byte, 0, 4)
	if b.castleK[White] {
		res = append(res, 'K')
	}
	if b.castleQ[White] {
		res = append(res, 'Q')
	}
	if b.castleK[Black] {
		res = append(res, 'k')
	}
	if b.castleQ[Black] {
		res = append(res, 'q')
	}
	if len(res) == 0 {
		return "-"
	}
	return string(res)
}

// BoardLayout renders the 8x8 piece placement field of an nFEN: 8
// ranks top-to-bottom ('/'-separated), runs of empty squares
// collapsed to a digit.
func (b *Board) BoardLayout() string {
	out := make([]byte, 0, 72)
	for rank := 8; rank >= 1; rank-- {
		empty := 0
		for file := 1; file <= 8; file++ {
			sq, _ := NewSquare(file, rank)
			p := b.Get(sq)
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				out = append(out, byte('0'+empty))
				empty = 0
			}
			out = append(out, p.San())
		}
		if empty > 0 {
			out = append(out, byte('0'+empty))
		}
		if rank > 1 {
			out = append(out, '/')
		}
	}
	return string(out)
}

// Ascii renders a human-readable 8x8 grid, rank 8 first, for
// debugging/logging.
func (b *Board) Ascii() string {
	out := make([]byte, 0, 8*17)
	for rank := 8; rank >= 1; rank-- {
		for file := 1; file <= 8; file++ {
			sq, _ := NewSquare(file, rank)
			p := b.Get(sq)
			if p.IsEmpty() {
				out = append(out, '.')
			} else {
				out = append(out, p.San())
			}
			out = append(out, ' ')
		}
		out = append(out, '\n')
	}
	return string(out)
}

// PieceFilter selects which squares GetAllPieces reports.
type PieceFilter struct {
	Color     Color // NoColor matches both
	NonEmpty  bool  // when true, skip empty squares
}

// GetAllPieces returns every (square, piece) pair matching filter,
// keyed by square. The result is a map, so iterating it visits the
// squares in no particular order.
func (b *Board) GetAllPieces(filter PieceFilter) map[Square]Piece {
	out := make(map[Square]Piece)
	for rank := 1; rank <= 8; rank++ {
		for file := 1; file <= 8; file++ {
			sq, _ := NewSquare(file, rank)
			p := b.Get(sq)
			if filter.NonEmpty && p.IsEmpty() {
				continue
			}
			if filter.Color != NoColor && p.Color != filter.Color {
				continue
			}
			out[sq] = p
		}
	}
	return out
}

// Times returns the relative last-move time for every piece that has
// moved, keyed by algebraic square — the "times" field of a board
// sync snapshot.
func (b *Board) Times() map[string]int64 {
	out := make(map[string]int64)
	for rank := 1; rank <= 8; rank++ {
		for file := 1; file <= 8; file++ {
			sq, _ := NewSquare(file, rank)
			p := b.Get(sq)
			if p.LastMoveTime != nil {
				out[sq.String()] = *p.LastMoveTime
			}
		}
	}
	return out
}

// boardJSON is the wire/storage representation of a Board: Board's own
// fields are unexported so that callers can't bypass Put/Move's
// king-locator bookkeeping, but the store layer needs a faithful
// round-trip for persistence.
type boardJSON struct {
	Squares    [128]Piece `json:"squares"`
	Kings      [2]Square  `json:"kings"`
	CastleK    [2]bool    `json:"castle_k"`
	CastleQ    [2]bool    `json:"castle_q"`
	MoveNumber int        `json:"move_number"`
}

// MarshalJSON implements json.Marshaler.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		Squares:    b.squares,
		Kings:      b.kings,
		CastleK:    b.castleK,
		CastleQ:    b.castleQ,
		MoveNumber: b.moveNumber,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Board) UnmarshalJSON(data []byte) error {
	var aux boardJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.squares = aux.Squares
	b.kings = aux.Kings
	b.castleK = aux.CastleK
	b.castleQ = aux.CastleQ
	b.moveNumber = aux.MoveNumber
	return nil
}
