// Package fanout implements the Response Fan-out: a consumer of the
// response queue that turns each manager response into a client-facing
// event, delivered to one of two room kinds (the game room — every
// subscriber of a game — or a single player's room), while maintaining
// the waiting/playing side indices a lobby view needs. Grounded on
// ayushgupta5-GoLLD/19_pubsub/main.go's MessageBroker/Topic shape,
// specialized here to the two topic kinds this domain needs instead of
// arbitrary named topics.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/unc0mm0n/kung-fu-chess/internal/queue"
)

// subscriberBacklog bounds each subscriber's inbox; a slow client must
// never stall delivery to other rooms, so a full channel drops the
// message rather than blocking the publisher.
const subscriberBacklog = 32

type subscriber struct {
	id string
	ch chan []byte
}

// Hub is the fan-out broker: room membership plus the waiting/playing
// side indices.
type Hub struct {
	respQueue *queue.Queue

	roomsMu sync.Mutex
	rooms   map[string][]*subscriber
	nextID  int

	indexMu sync.Mutex
	waiting map[int64]struct{}
	playing map[int64]struct{}

	numWorkers int
}

// NewHub constructs a Hub draining respQueue. numWorkers is the number
// of manager workers expected to each push their own exit-cnf; Run
// returns once that many have been observed, so the hub shuts down
// only after the manager itself has fully drained.
func NewHub(respQueue *queue.Queue, numWorkers int) *Hub {
	return &Hub{
		respQueue:  respQueue,
		rooms:      make(map[string][]*subscriber),
		waiting:    make(map[int64]struct{}),
		playing:    make(map[int64]struct{}),
		numWorkers: numWorkers,
	}
}

// GameRoom returns the room name for a game's broadcast group.
func GameRoom(gameID int64) string { return fmt.Sprintf("game:%d", gameID) }

// PlayerRoom returns the room name for a single player's inbox.
func PlayerRoom(playerID string) string { return fmt.Sprintf("player:%s", playerID) }

// Subscribe registers a new listener on room, returning its inbox and
// an unsubscribe function. The inbox is never closed by Unsubscribe;
// callers simply stop reading from it.
func (h *Hub) Subscribe(room string) (<-chan []byte, func()) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	h.nextID++
	sub := &subscriber{id: fmt.Sprintf("sub-%d", h.nextID), ch: make(chan []byte, subscriberBacklog)}
	h.rooms[room] = append(h.rooms[room], sub)

	unsubscribe := func() {
		h.roomsMu.Lock()
		defer h.roomsMu.Unlock()
		subs := h.rooms[room]
		for i, s := range subs {
			if s == sub {
				h.rooms[room] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return sub.ch, unsubscribe
}

// publish delivers payload to every subscriber of room. A subscriber
// whose inbox is full has the message dropped and logged rather than
// stalling every other room.
func (h *Hub) publish(room string, payload []byte) {
	h.roomsMu.Lock()
	subs := append([]*subscriber(nil), h.rooms[room]...)
	h.roomsMu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- payload:
		default:
			log.Printf("[fanout] room %s: subscriber %s inbox full, dropping message", room, s.id)
		}
	}
}

// ActiveGames returns the sorted game ids currently in the playing
// side index.
func (h *Hub) ActiveGames() []int64 {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	return sortedKeys(h.playing)
}

// WaitingGames returns the sorted game ids currently in the waiting
// side index.
func (h *Hub) WaitingGames() []int64 {
	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	return sortedKeys(h.waiting)
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Run drains the response queue until every manager worker's exit-cnf
// has been observed or ctx is done.
func (h *Hub) Run(ctx context.Context) {
	seenExits := 0
	for {
		if h.numWorkers > 0 && seenExits >= h.numWorkers {
			return
		}
		raw, ok := h.respQueue.PopBlocking(ctx)
		if !ok {
			return
		}

		var resp queue.Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			log.Printf("[fanout] dropping unparsable response: %v", err)
			continue
		}

		if resp.Cmd == "exit-cnf" {
			seenExits++
			continue
		}

		h.handle(resp)
	}
}

func (h *Hub) handle(resp queue.Response) {
	switch resp.Cmd {
	case "sync-cnf":
		h.handleSyncCnf(resp)
	case "move-cnf":
		h.handleMoveCnf(resp)
	case "game-cnf":
		h.handleGameCnf(resp)
	case "join-cnf":
		h.handleJoinCnf(resp)
	case "error-ind":
		log.Printf("[fanout] error-ind for game=%d player=%s: %s", resp.GameID, resp.PlayerID, string(resp.Data))
	default:
		log.Printf("[fanout] unrecognized response cmd %q, ignoring", resp.Cmd)
	}
}

type syncData struct {
	Board json.RawMessage `json:"board"`
	White *string         `json:"white"`
	Black *string         `json:"black"`
}

func (h *Hub) handleSyncCnf(resp queue.Response) {
	room := PlayerRoom(resp.PlayerID)
	if isNull(resp.Data) {
		h.publishJSON(room, map[string]any{"result": "fail"})
		return
	}
	var data syncData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		log.Printf("[fanout] malformed sync-cnf payload: %v", err)
		return
	}
	color := "o"
	switch {
	case data.White != nil && *data.White == resp.PlayerID:
		color = "w"
	case data.Black != nil && *data.Black == resp.PlayerID:
		color = "b"
	}
	h.publishJSON(room, map[string]any{"color": color, "board": data.Board})
}

type moveData struct {
	State string          `json:"state"`
	Move  json.RawMessage `json:"move"`
}

func (h *Hub) handleMoveCnf(resp queue.Response) {
	if isNull(resp.Data) {
		h.publishJSON(PlayerRoom(resp.PlayerID), map[string]any{"result": "fail", "reason": "illegal move"})
		return
	}
	var data moveData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		log.Printf("[fanout] malformed move-cnf payload: %v", err)
		return
	}
	h.publishJSON(GameRoom(resp.GameID), map[string]any{"result": "success", "move": data.Move})

	if data.State != "playing" {
		h.indexMu.Lock()
		delete(h.playing, resp.GameID)
		h.indexMu.Unlock()
	}
}

type lifecycleData struct {
	State string `json:"state"`
}

func (h *Hub) handleGameCnf(resp queue.Response) {
	if isNull(resp.Data) {
		return
	}
	var data lifecycleData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		log.Printf("[fanout] malformed game-cnf payload: %v", err)
		return
	}
	h.indexMu.Lock()
	h.waiting[resp.GameID] = struct{}{}
	h.indexMu.Unlock()
}

func (h *Hub) handleJoinCnf(resp queue.Response) {
	if isNull(resp.Data) {
		return
	}
	var data lifecycleData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		log.Printf("[fanout] malformed join-cnf payload: %v", err)
		return
	}
	h.indexMu.Lock()
	delete(h.waiting, resp.GameID)
	if data.State == "playing" {
		h.playing[resp.GameID] = struct{}{}
	}
	h.indexMu.Unlock()
}

func (h *Hub) publishJSON(room string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[fanout] failed to encode event for room %s: %v", room, err)
		return
	}
	h.publish(room, raw)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
