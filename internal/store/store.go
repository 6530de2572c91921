// Package store implements the persistence-backed Board Store: a
// per-game record (board, players, state, cooldown, timing) keyed by a
// store key, with idle-TTL expiry refreshed on every access. Store is
// an interface so in-memory and disk-backed implementations are
// interchangeable; see memory.go and badger.go.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/unc0mm0n/kung-fu-chess/internal/board"
)

// GameState is one of the four lifecycle states a game record can be
// in.
type GameState string

const (
	Waiting GameState = "waiting"
	Playing GameState = "playing"
	WhiteWins GameState = "w_wins"
	BlackWins GameState = "b_wins"
)

// Errors returned by Store implementations.
var (
	// ErrNotFound is returned by Load when the key does not exist.
	ErrNotFound = errors.New("store: game not found")

	// ErrPlayerAlreadySet is returned by SetWhite/SetBlack when the
	// color already has an assigned player.
	ErrPlayerAlreadySet = errors.New("store: player already set")
)

// GameRecord is the full persisted state of one game. It is the unit
// of (de)serialization for every Store backend: a command loads the
// record, mutates it through the helper methods below, and writes it
// back in one shot — a whole-record strategy that makes routing all
// commands for a key through one owner sufficient for correctness
// without finer-grained locking inside a single backend call.
type GameRecord struct {
	Board *board.Board `json:"board"`

	White *string `json:"white"`
	Black *string `json:"black"`

	State GameState `json:"state"`

	// CooldownMs is the per-piece cooldown duration in milliseconds.
	CooldownMs int64 `json:"cd"`

	// StartTimeMs is wall-clock milliseconds at creation; every
	// LastMoveTime on the board is relative to this.
	StartTimeMs int64 `json:"start_time"`

	// LastMoveMs is the most recent relative move time recorded on
	// this board (nil if no move has been made yet).
	LastMoveMs *int64 `json:"last_move"`

	// IdleTTL is the idle expiration window; every access to this
	// record refreshes it. Persisted as "exp" so a reload reconstructs
	// the same window instead of losing it on the next access.
	IdleTTL time.Duration `json:"exp"`
}

// NewGameRecord builds a fresh waiting-state record from a parsed
// board, the requested per-piece cooldown, and the wall-clock "now".
func NewGameRecord(b *board.Board, cooldownMs int64, nowMs int64, ttl time.Duration) *GameRecord {
	return &GameRecord{
		Board:       b,
		State:       Waiting,
		CooldownMs:  cooldownMs,
		StartTimeMs: nowMs,
		IdleTTL:     ttl,
	}
}

// SetWhite assigns the white player. Fails with ErrPlayerAlreadySet if
// white is already assigned. Transitions to Playing if black is also
// set.
func (g *GameRecord) SetWhite(playerID string) error {
	if g.White != nil {
		return ErrPlayerAlreadySet
	}
	g.White = &playerID
	g.maybeStartPlaying()
	return nil
}

// SetBlack assigns the black player. Fails with ErrPlayerAlreadySet if
// black is already assigned. Transitions to Playing if white is also
// set.
func (g *GameRecord) SetBlack(playerID string) error {
	if g.Black != nil {
		return ErrPlayerAlreadySet
	}
	g.Black = &playerID
	g.maybeStartPlaying()
	return nil
}

func (g *GameRecord) maybeStartPlaying() {
	if g.White != nil && g.Black != nil && g.State == Waiting {
		g.State = Playing
	}
}

// RecordMove stamps LastMoveMs after a move has been committed to the
// board by the applier.
func (g *GameRecord) RecordMove(relativeTimeMs int64) {
	g.LastMoveMs = &relativeTimeMs
}

// CheckWinner transitions State to w_wins/b_wins if the opposing
// king has been captured. Returns true if a transition occurred.
func (g *GameRecord) CheckWinner() bool {
	if g.State != Playing {
		return false
	}
	if g.Board.King(board.Black) == board.NoSquare {
		g.State = WhiteWins
		return true
	}
	if g.Board.King(board.White) == board.NoSquare {
		g.State = BlackWins
		return true
	}
	return false
}

// Winner returns the winning color's player id, or nil if the game
// has no winner yet.
func (g *GameRecord) Winner() *string {
	switch g.State {
	case WhiteWins:
		return g.White
	case BlackWins:
		return g.Black
	default:
		return nil
	}
}

// OwnsColor reports which color, if any, playerID controls.
func (g *GameRecord) OwnsColor(playerID string) (board.Color, bool) {
	if g.White != nil && *g.White == playerID {
		return board.White, true
	}
	if g.Black != nil && *g.Black == playerID {
		return board.Black, true
	}
	return board.NoColor, false
}

// Store is the Board Store contract. Every operation implicitly
// refreshes the record's idle TTL.
type Store interface {
	// Create inserts a new record at key, failing if one already
	// exists. Returns (false, nil) without error when the key is
	// already present — a game-creation request treats "already
	// exists" as a normal, non-error outcome.
	Create(ctx context.Context, key string, rec *GameRecord) (created bool, err error)

	// Load reads the record at key. Returns ErrNotFound if absent.
	Load(ctx context.Context, key string) (*GameRecord, error)

	// Save writes rec back to key, refreshing its TTL. The key must
	// already exist (created via Create).
	Save(ctx context.Context, key string, rec *GameRecord) error

	// Exists reports whether key is present, without refreshing TTL
	// semantics beyond what the backend does for a read.
	Exists(ctx context.Context, key string) (bool, error)

	// Mutate loads the record at key, applies fn, and saves it back —
	// atomically with respect to other callers of Mutate/Save on the
	// same key, so per-key serialization holds even for a backend that
	// cannot rely on external single-owner routing. fn returning an
	// error aborts the write.
	Mutate(ctx context.Context, key string, fn func(*GameRecord) error) error

	// Close releases any resources held by the backend.
	Close() error
}
