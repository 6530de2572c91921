// Package manager implements the Game Manager: a pool of worker
// goroutines draining the request queue, dispatching each command to
// the board/store/applier layers, and pushing a response for every
// request onto the response queue. Grounded on
// hailam-chessplay's internal/engine/engine.go worker-goroutine +
// resultCh fan-in shape, with golang.org/x/sync/errgroup promoted
// from an indirect (via ebiten) dependency of that repo to the
// direct supervisor of worker lifecycle and first-error propagation
// here.
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/unc0mm0n/kung-fu-chess/internal/applier"
	"github.com/unc0mm0n/kung-fu-chess/internal/queue"
	"github.com/unc0mm0n/kung-fu-chess/internal/store"
)

const exitReqCmd = "exit-req"

// Manager owns the worker pool. A single router goroutine drains the
// external request queue and re-pushes each message onto one of
// numWorkers internal per-worker queues, hash-partitioned by game_id
// (spec.md §5: "hashing game_id to a single worker"). Every command
// for a given game therefore lands on the same worker's queue in the
// order the router observed it, which gives per-game FIFO ordering
// independent of goroutine scheduling — relying on store.Mutate's
// per-key lock alone would only guarantee atomicity, not that two
// racing workers apply two requests for the same game in push order.
type Manager struct {
	reqQueue  *queue.Queue
	respQueue *queue.Queue
	store     store.Store

	numWorkers   int
	workerQueues []*queue.Queue
	clock        applier.Clock
	instanceID   string
}

// New constructs a Manager with numWorkers symmetric workers.
func New(reqQueue, respQueue *queue.Queue, s store.Store, numWorkers int, clock applier.Clock) *Manager {
	if numWorkers < 1 {
		numWorkers = 1
	}
	workerQueues := make([]*queue.Queue, numWorkers)
	for i := range workerQueues {
		workerQueues[i] = queue.NewQueue(0)
	}
	return &Manager{
		reqQueue:     reqQueue,
		respQueue:    respQueue,
		store:        s,
		numWorkers:   numWorkers,
		workerQueues: workerQueues,
		clock:        clock,
		instanceID:   uuid.NewString(),
	}
}

// Run starts the router and every worker, blocking until all of them
// have terminated (via exit-req) or ctx is cancelled. The router and
// the workers report no errors of their own, so Run returns nil —
// command-level faults never propagate here, they are reported as
// error-ind responses instead.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.routeLoop(ctx)
		return nil
	})
	for i := 0; i < m.numWorkers; i++ {
		workerID := i
		g.Go(func() error {
			m.workerLoop(ctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) workerName(workerID int) string {
	return fmt.Sprintf("worker-%s-%d", m.instanceID[:8], workerID)
}

// routeLoop pops every message off the external request queue exactly
// once, in arrival order, and hands it to the worker owning its
// game_id. On exit-req it pushes one copy to the front of every
// worker's queue — preserving the head-of-line preemption the caller
// asked for by pushing exit-req to the front of the external queue —
// and stops routing; each worker drains its own copy and terminates.
func (m *Manager) routeLoop(ctx context.Context) {
	for {
		raw, ok := m.reqQueue.PopBlocking(ctx)
		if !ok {
			for _, wq := range m.workerQueues {
				wq.Close()
			}
			return
		}

		var req queue.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("[manager] router: dropping unparsable request: %v", err)
			continue
		}

		if req.Cmd == exitReqCmd {
			for _, wq := range m.workerQueues {
				wq.PushFront(raw)
			}
			return
		}

		m.workerQueues[m.workerIndex(req.GameID)].PushBack(raw)
	}
}

// workerIndex hash-partitions a game_id onto [0, numWorkers).
func (m *Manager) workerIndex(gameID int64) int {
	h := gameID % int64(m.numWorkers)
	if h < 0 {
		h += int64(m.numWorkers)
	}
	return int(h)
}

func (m *Manager) workerLoop(ctx context.Context, workerID int) {
	name := m.workerName(workerID)
	wq := m.workerQueues[workerID]
	for {
		raw, ok := wq.PopBlocking(ctx)
		if !ok {
			log.Printf("[manager] %s: worker queue closed, stopping", name)
			return
		}

		var req queue.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("[manager] %s: dropping unparsable request: %v", name, err)
			continue
		}

		if req.Cmd == exitReqCmd {
			m.sendExitResponse(name)
			return
		}

		m.dispatch(ctx, name, req)
	}
}

func (m *Manager) sendExitResponse(name string) {
	resp := queue.NewExitResponse(name)
	encoded, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[manager] %s: failed to encode exit-cnf: %v", name, err)
		return
	}
	m.respQueue.PushBack(encoded)
	log.Printf("[manager] %s: exiting", name)
}

// dispatch routes req to its command handler, recovering from any
// panic and turning it into an error-ind per the HandlerException
// disposition — one malformed or buggy request must never take down a
// worker.
func (m *Manager) dispatch(ctx context.Context, workerName string, req queue.Request) {
	resp, err := m.handle(ctx, req)
	if err != nil {
		log.Printf("[manager] %s: game=%d player=%s cmd=%s failed: %v", workerName, req.GameID, req.PlayerID, req.Cmd, err)
		resp = exceptionResponse(req, err.Error())
	} else {
		log.Printf("[manager] %s: game=%d player=%s cmd=%s ok", workerName, req.GameID, req.PlayerID, req.Cmd)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[manager] %s: failed to encode response for cmd=%s: %v", workerName, req.Cmd, err)
		return
	}
	m.respQueue.PushBack(encoded)
}

// handle recovers panics from the individual command handlers and
// turns unknown commands into error-ind, satisfying the
// never-terminate-on-a-handler-fault contract.
func (m *Manager) handle(ctx context.Context, req queue.Request) (resp queue.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch req.Cmd {
	case "game-req":
		return m.handleGameReq(ctx, req)
	case "join-req":
		return m.handleJoinReq(ctx, req)
	case "move-req":
		return m.handleMoveReq(ctx, req)
	case "sync-req":
		return m.handleSyncReq(ctx, req)
	default:
		return unknownCommandResponse(req), nil
	}
}

func unknownCommandResponse(req queue.Request) queue.Response {
	data, _ := json.Marshal(map[string]string{"command": req.Cmd, "reason": "Unknown command"})
	return queue.Response{GameID: req.GameID, PlayerID: req.PlayerID, Cmd: "error-ind", Data: data}
}

func exceptionResponse(req queue.Request, exc string) queue.Response {
	data, _ := json.Marshal(map[string]string{"reason": "exception", "exc": exc})
	return queue.Response{GameID: req.GameID, PlayerID: req.PlayerID, Cmd: "error-ind", Data: data}
}

func (m *Manager) gameKey(gameID int64) string {
	return fmt.Sprintf("manager:%s:games:%d", m.instanceID, gameID)
}
