package manager

import (
	"context"
	"encoding/json"
	"time"

	"github.com/unc0mm0n/kung-fu-chess/internal/applier"
	"github.com/unc0mm0n/kung-fu-chess/internal/board"
	"github.com/unc0mm0n/kung-fu-chess/internal/queue"
	"github.com/unc0mm0n/kung-fu-chess/internal/store"
)

// gameReqPayload is game-req's payload for game creation: a
// requested per-piece cooldown, an optional starting nFEN (defaulting
// to the standard opening position), and an optional idle-TTL override
// in seconds.
type gameReqPayload struct {
	Cd   int64   `json:"cd"`
	Nfen *string `json:"nfen,omitempty"`
	Exp  *int64  `json:"exp,omitempty"`
}

type moveReqPayload struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Promote *string `json:"promote,omitempty"`
}

func (m *Manager) handleGameReq(ctx context.Context, req queue.Request) (queue.Response, error) {
	var payload gameReqPayload
	if err := json.Unmarshal(req.Data, &payload); err != nil {
		return nullResponse(req, "game-cnf"), nil
	}

	nfen := board.StartingNfen
	if payload.Nfen != nil {
		nfen = *payload.Nfen
	}
	b, err := board.ParseNfen(nfen)
	if err != nil {
		return nullResponse(req, "game-cnf"), nil
	}

	ttl := time.Hour
	if payload.Exp != nil {
		ttl = time.Duration(*payload.Exp) * time.Second
	}

	rec := store.NewGameRecord(b, payload.Cd, m.clock(), ttl)
	if err := rec.SetWhite(req.PlayerID); err != nil {
		return queue.Response{}, err
	}

	key := m.gameKey(req.GameID)
	created, err := m.store.Create(ctx, key, rec)
	if err != nil {
		return queue.Response{}, err
	}
	if !created {
		return nullResponse(req, "game-cnf"), nil
	}

	return dataResponse(req, "game-cnf", map[string]any{
		"state":     rec.State,
		"store_key": key,
	})
}

func (m *Manager) handleJoinReq(ctx context.Context, req queue.Request) (queue.Response, error) {
	key := m.gameKey(req.GameID)

	var state store.GameState
	mutateErr := m.store.Mutate(ctx, key, func(rec *store.GameRecord) error {
		if rec.Black != nil {
			return store.ErrPlayerAlreadySet
		}
		if err := rec.SetBlack(req.PlayerID); err != nil {
			return err
		}
		state = rec.State
		return nil
	})

	if mutateErr == store.ErrNotFound {
		return nullResponse(req, "join-cnf"), nil
	}
	if mutateErr != nil {
		return queue.Response{}, mutateErr
	}

	return dataResponse(req, "join-cnf", map[string]any{
		"state":     state,
		"store_key": key,
	})
}

func (m *Manager) handleMoveReq(ctx context.Context, req queue.Request) (queue.Response, error) {
	var payload moveReqPayload
	if err := json.Unmarshal(req.Data, &payload); err != nil {
		return nullResponse(req, "move-cnf"), nil
	}

	key := m.gameKey(req.GameID)
	result, err := applier.Apply(ctx, m.store, key, req.PlayerID, payload.From, payload.To, payload.Promote, m.clock)
	if err != nil {
		return queue.Response{}, err
	}
	if result == nil {
		return nullResponse(req, "move-cnf"), nil
	}

	return dataResponse(req, "move-cnf", map[string]any{
		"state": result.State,
		"move":  moveJSON(result.Move),
	})
}

func (m *Manager) handleSyncReq(ctx context.Context, req queue.Request) (queue.Response, error) {
	key := m.gameKey(req.GameID)
	rec, err := m.store.Load(ctx, key)
	if err == store.ErrNotFound {
		return nullResponse(req, "sync-cnf"), nil
	}
	if err != nil {
		return queue.Response{}, err
	}

	nowMs := m.clock()
	snapshot := map[string]any{
		"cd":           rec.CooldownMs,
		"history":      nil,
		"white":        rec.White,
		"black":        rec.Black,
		"state":        rec.State,
		"current_time": nowMs,
		"start_time":   rec.StartTimeMs,
		"nfen":         rec.Board.Nfen(),
		"times":        rec.Board.Times(),
	}

	return dataResponse(req, "sync-cnf", map[string]any{
		"board": snapshot,
		"white": rec.White,
		"black": rec.Black,
	})
}

func moveJSON(mv board.Move) map[string]any {
	var promote any
	if mv.IsPromotion() {
		promote = string(mv.Promote.Char())
	}
	return map[string]any{
		"from":    mv.From.String(),
		"to":      mv.To.String(),
		"promote": promote,
		"time":    mv.Time,
	}
}

func nullResponse(req queue.Request, cmd string) queue.Response {
	return queue.Response{GameID: req.GameID, PlayerID: req.PlayerID, Cmd: cmd, Data: json.RawMessage("null")}
}

func dataResponse(req queue.Request, cmd string, data any) (queue.Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return queue.Response{}, err
	}
	return queue.Response{GameID: req.GameID, PlayerID: req.PlayerID, Cmd: cmd, Data: raw}, nil
}
