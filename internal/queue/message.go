package queue

import (
	"encoding/json"
	"fmt"
)

// Request is one request-queue message: the JSON array
// [game_id, player_id, cmd, data] of the external wire interface.
// GameID may be -1 for a command with no associated game.
type Request struct {
	GameID   int64
	PlayerID string
	Cmd      string
	Data     json.RawMessage
}

// MarshalJSON renders r as a 4-element JSON array.
func (r Request) MarshalJSON() ([]byte, error) {
	data := r.Data
	if data == nil {
		data = json.RawMessage("{}")
	}
	return json.Marshal([4]interface{}{r.GameID, r.PlayerID, r.Cmd, data})
}

// UnmarshalJSON parses a 4-element JSON array into r.
func (r *Request) UnmarshalJSON(raw []byte) error {
	var arr [4]json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("queue: malformed request message: %w", err)
	}
	if err := json.Unmarshal(arr[0], &r.GameID); err != nil {
		return fmt.Errorf("queue: bad game_id: %w", err)
	}
	if err := json.Unmarshal(arr[1], &r.PlayerID); err != nil {
		return fmt.Errorf("queue: bad player_id: %w", err)
	}
	if err := json.Unmarshal(arr[2], &r.Cmd); err != nil {
		return fmt.Errorf("queue: bad cmd: %w", err)
	}
	r.Data = arr[3]
	return nil
}

// Response is one response-queue message. Ordinarily the JSON array
// [game_id, player_id, cmd, data]; for cmd == "exit-cnf" it instead
// renders as [cmd, worker_name].
type Response struct {
	GameID     int64
	PlayerID   string
	Cmd        string
	Data       json.RawMessage
	WorkerName string
}

const exitCnf = "exit-cnf"

// MarshalJSON renders r in its 4-element or 2-element form depending
// on Cmd.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Cmd == exitCnf {
		return json.Marshal([2]string{r.Cmd, r.WorkerName})
	}
	data := r.Data
	if data == nil {
		data = json.RawMessage("null")
	}
	return json.Marshal([4]interface{}{r.GameID, r.PlayerID, r.Cmd, data})
}

// UnmarshalJSON parses either the 2-element exit-cnf form or the
// 4-element general form into r.
func (r *Response) UnmarshalJSON(raw []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("queue: malformed response message: %w", err)
	}
	switch len(arr) {
	case 2:
		if err := json.Unmarshal(arr[0], &r.Cmd); err != nil {
			return fmt.Errorf("queue: bad cmd: %w", err)
		}
		if err := json.Unmarshal(arr[1], &r.WorkerName); err != nil {
			return fmt.Errorf("queue: bad worker_name: %w", err)
		}
		return nil
	case 4:
		if err := json.Unmarshal(arr[0], &r.GameID); err != nil {
			return fmt.Errorf("queue: bad game_id: %w", err)
		}
		if err := json.Unmarshal(arr[1], &r.PlayerID); err != nil {
			return fmt.Errorf("queue: bad player_id: %w", err)
		}
		if err := json.Unmarshal(arr[2], &r.Cmd); err != nil {
			return fmt.Errorf("queue: bad cmd: %w", err)
		}
		r.Data = arr[3]
		return nil
	default:
		return fmt.Errorf("queue: expected 2 or 4 elements, got %d", len(arr))
	}
}

// NewResponse builds an ordinary (game_id, player_id, cmd, data)
// response.
func NewResponse(gameID int64, playerID, cmd string, data interface{}) (Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{}, err
	}
	return Response{GameID: gameID, PlayerID: playerID, Cmd: cmd, Data: raw}, nil
}

// NewExitResponse builds the two-element exit-cnf response.
func NewExitResponse(workerName string) Response {
	return Response{Cmd: exitCnf, WorkerName: workerName}
}
