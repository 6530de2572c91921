package board

import "errors"

// Sentinel errors surfaced by board construction and parsing. Callers
// above this package (the applier, the manager) test against these
// with errors.Is rather than string matching.
var (
	// ErrBadCoordinate is returned by NewSquare/ParseSquare on a
	// malformed or out-of-range coordinate.
	ErrBadCoordinate = errors.New("board: bad coordinate")

	// ErrBadBoardSetup is returned when an nFEN describes a board with
	// zero or more than two kings, or is otherwise malformed.
	ErrBadBoardSetup = errors.New("board: bad board setup")

	// ErrDuplicateKing is returned by Put when placing a king of a
	// color that already has a located king elsewhere on the board.
	ErrDuplicateKing = errors.New("board: duplicate king")
)
