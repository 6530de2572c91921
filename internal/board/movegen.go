package board

// offsets and sliding are looked up by piece type rather than selected
// with per-type branching.
var offsets = map[PieceType][]Square{
	King:   {Up, Down, Left, Right, Up + Left, Up + Right, Down + Left, Down + Right},
	Queen:  {Up, Down, Left, Right, Up + Left, Up + Right, Down + Left, Down + Right},
	Rook:   {Up, Down, Left, Right},
	Bishop: {Up + Left, Up + Right, Down + Left, Down + Right},
	Knight: {
		Up + Up + Left, Up + Up + Right,
		Down + Down + Left, Down + Down + Right,
		Left + Left + Up, Left + Left + Down,
		Right + Right + Up, Right + Right + Down,
	},
}

var sliding = map[PieceType]bool{
	King:   false,
	Queen:  true,
	Rook:   true,
	Bishop: true,
	Knight: false,
}

// pawnStartRank and pawnPromoteRank are indexed by Color.
var pawnStartRank = [2]int{White: 2, Black: 7}
var pawnPromoteRank = [2]int{White: 8, Black: 1}
var pawnDirection = [2]Square{White: Up, Black: Down}

var promotionTargets = []PieceType{Queen, Rook, Bishop, Knight}

// GenerateMoves returns every pseudo-legal move from sq: board
// geometry and occupancy rules only, no cooldown check (cooldown is
// applied only at move time). Empty squares yield nil.
func GenerateMoves(b *Board, sq Square) []Move {
	if !sq.Valid() {
		return nil
	}
	p := b.Get(sq)
	if p.IsEmpty() {
		return nil
	}
	if p.Type == Pawn {
		return generatePawnMoves(b, sq, p)
	}

	var moves []Move
	for _, off := range offsets[p.Type] {
		o := sq.Offset(off)
		for o.Valid() {
			target := b.Get(o)
			if target.IsEmpty() {
				moves = append(moves, Move{From: sq, To: o})
			} else {
				if target.Color != p.Color {
					moves = append(moves, Move{From: sq, To: o, Captured: target.Type})
				}
				break
			}
			if !sliding[p.Type] {
				break
			}
			o = o.Offset(off)
		}
	}

	if p.Type == King {
		moves = append(moves, generateCastlingMoves(b, sq, p.Color)...)
	}

	return moves
}

func generateCastlingMoves(b *Board, sq Square, c Color) []Move {
	var moves []Move
	if b.CanCastle(c, KingsideCastle) {
		moves = append(moves, Move{From: sq, To: sq.Right().Right(), KingsideCastle: true})
	}
	if b.CanCastle(c, QueensideCastle) {
		moves = append(moves, Move{From: sq, To: sq.Left().Left(), QueensideCastle: true})
	}
	return moves
}

func generatePawnMoves(b *Board, sq Square, p Piece) []Move {
	var moves []Move
	dir := pawnDirection[p.Color]

	oneForward := sq.Offset(dir)
	if oneForward.Valid() && b.Get(oneForward).IsEmpty() {
		moves = append(moves, expandPawnMove(sq, oneForward, p.Color, Empty)...)
		if sq.Rank() == pawnStartRank[p.Color] {
			twoForward := oneForward.Offset(dir)
			if twoForward.Valid() && b.Get(twoForward).IsEmpty() {
				moves = append(moves, expandPawnMove(sq, twoForward, p.Color, Empty)...)
			}
		}
	}

	for _, side := range []Square{Left, Right} {
		diag := sq.Offset(dir).Offset(side)
		if !diag.Valid() {
			continue
		}
		target := b.Get(diag)
		if target.IsEmpty() {
			// A capture-only square with nothing to capture yields no
			// move: the relaxed rules here do not add an en-passant
			// square, so a diagonal onto empty is never a legal move.
			continue
		}
		if target.Color != p.Color {
			moves = append(moves, expandPawnMove(sq, diag, p.Color, target.Type)...)
		}
	}

	return moves
}

// expandPawnMove returns either a single move, or — when to's rank is
// the promotion rank — one move per promotion target.
func expandPawnMove(from, to Square, color Color, captured PieceType) []Move {
	if to.Rank() == pawnPromoteRank[color] {
		moves := make([]Move, 0, len(promotionTargets))
		for _, promo := range promotionTargets {
			moves = append(moves, Move{From: from, To: to, Captured: captured, Promote: promo})
		}
		return moves
	}
	return []Move{{From: from, To: to, Captured: captured}}
}

// FindMove returns the pseudo-legal move from sq to to matching the
// requested promotion (Empty meaning "no promotion"), or (Move{},
// false) if no such move exists.
func FindMove(b *Board, from, to Square, promote PieceType) (Move, bool) {
	for _, m := range GenerateMoves(b, from) {
		if m.sameDestination(to, promote) {
			return m, true
		}
	}
	return Move{}, false
}
