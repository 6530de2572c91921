package board

// Move is an intended transition from one square to another, with
// sparse metadata: absent fields read as their zero value (nil for
// pointers, false for flags). The metadata vocabulary is closed to the
// fields below — this mirrors the closed metadata keys of the source
// engine's Move class (capture, promote, kingside-castle,
// queenside-castle, time).
type Move struct {
	From Square
	To   Square

	// Captured is the type of piece captured by this move, or Empty if
	// none.
	Captured PieceType

	// Promote is the piece type a pawn promotes to, or Empty if this
	// move is not a promotion.
	Promote PieceType

	KingsideCastle  bool
	QueensideCastle bool

	// Time is the relative move time (ms since game start) stamped by
	// the applier once the move is committed. Nil until then.
	Time *int64
}

// IsCapture reports whether this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured != Empty
}

// IsPromotion reports whether this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promote != Empty
}

// sameDestination reports whether m is the candidate move a requested
// (to, promote) pair is asking for — promotion must match exactly,
// with Empty standing in for "no promotion requested".
func (m Move) sameDestination(to Square, promote PieceType) bool {
	return m.To == to && m.Promote == promote
}
