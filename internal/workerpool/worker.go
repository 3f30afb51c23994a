package workerpool

import (
	"errors"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"arcade/internal/logx"
	"arcade/internal/session"
	"arcade/internal/wire"
	"arcade/internal/world"
)

// cycleBudget is the target wall-clock length of one worker iteration
// (spec.md §4.5: "each iteration ≤50 ms").
const cycleBudget = 50 * time.Millisecond

// acceptPoll is how long Accept waits for a pending connection before
// the worker moves on to servicing its existing sessions.
const acceptPoll = 5 * time.Millisecond

// minFrameSlice/maxFrameSlice bound the per-session read deadline used
// to approximate readiness notification without epoll (see DESIGN.md):
// the cycle budget is divided across owned sessions, clamped to a
// sensible range.
const (
	minFrameSlice = 1 * time.Millisecond
	maxFrameSlice = 10 * time.Millisecond
)

// Worker owns a subset of live sessions and independently accepts new
// connections from the shared listener (spec.md §4.5). It never tracks
// a session-to-worker map globally; workers are symmetric.
type Worker struct {
	id       int
	listener *net.TCPListener
	world    *world.World
	rng      *rand.Rand
	width    int
	height   int

	sessions map[net.Conn]*session.Session
	log      *logx.Logger

	retire atomic.Bool
}

// NewWorker builds a worker bound to the shared listener.
func NewWorker(id int, listener *net.TCPListener, w *world.World, rng *rand.Rand, width, height int) *Worker {
	return &Worker{
		id:       id,
		listener: listener,
		world:    w,
		rng:      rng,
		width:    width,
		height:   height,
		sessions: make(map[net.Conn]*session.Session),
		log:      logx.Component("worker"),
	}
}

// Run blocks, servicing this worker's sessions and accepting new
// connections, until w.Running() clears or Retire is called.
func (wk *Worker) Run() {
	for wk.world.Running() && !wk.retire.Load() {
		cycleStart := time.Now()

		wk.broadcastCycle()
		wk.frameCycle()
		wk.acceptCycle()

		if remaining := cycleBudget - time.Since(cycleStart); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	cause := "server shutdown"
	if wk.retire.Load() {
		cause = "worker retired"
	}
	wk.drain(cause)
	wk.log.Info().Int("worker", wk.id).Msg("worker stopped")
}

// Retire asks the worker to drain its sessions and exit its Run loop on
// the next cycle boundary, without stopping the world. Used by Pool to
// shrink the pool when the live workers tunable drops (SPEC_FULL.md §A.2).
func (wk *Worker) Retire() {
	wk.retire.Store(true)
}

// broadcastCycle pushes the latest map snapshot and any new chat
// messages to every owned LIVE session (spec.md §4.5 steps 2-3).
func (wk *Worker) broadcastCycle() {
	if len(wk.sessions) == 0 {
		return
	}
	snap := captureSnapshot(wk.world, wk.width, wk.height)

	for conn, s := range wk.sessions {
		if s.State != session.StateLive {
			continue
		}
		if err := sendMapUpdateIfStale(s, snap); err != nil {
			wk.closeSession(conn, s, "disconnect")
			continue
		}
		if err := sendPendingChat(s, snap); err != nil {
			wk.closeSession(conn, s, "disconnect")
		}
	}
}

// frameCycle gives every owned session a chance to have one inbound
// frame processed (spec.md §4.5 step 4). Each connection gets a short
// read deadline, approximating readiness notification — see DESIGN.md.
func (wk *Worker) frameCycle() {
	n := len(wk.sessions)
	if n == 0 {
		return
	}

	slice := cycleBudget / time.Duration(2*n)
	if slice < minFrameSlice {
		slice = minFrameSlice
	}
	if slice > maxFrameSlice {
		slice = maxFrameSlice
	}

	for conn, s := range wk.sessions {
		conn.SetReadDeadline(time.Now().Add(slice))
		op, payload, err := wire.Recv(conn)
		if err != nil {
			if errors.Is(err, wire.ErrTimeout) {
				continue // deadline hit before any frame bytes arrived; safe to retry
			}
			// Anything else, including wire.ErrFrameDesync (a deadline
			// that hit mid-frame), leaves the stream unreadable for
			// this connection — never retry it.
			wk.closeSession(conn, s, "disconnect")
			continue
		}

		if err := s.HandleFrame(op, payload); err != nil {
			wk.closeSession(conn, s, "disconnect")
			continue
		}
		if s.State == session.StateClosing {
			wk.closeSession(conn, s, "logout")
		}
	}
}

// acceptCycle accepts at most one new connection per iteration. The OS
// accept queue serializes acceptance across symmetric workers (spec.md
// §4.5).
func (wk *Worker) acceptCycle() {
	wk.listener.SetDeadline(time.Now().Add(acceptPoll))
	conn, err := wk.listener.Accept()
	if err != nil {
		return
	}

	s := session.New(conn, wk.world, wk.rng, wk.width, wk.height)
	wk.sessions[conn] = s
	wk.log.Debug().Int("worker", wk.id).Str("conn", s.ConnID).Msg("accepted connection")
}

func (wk *Worker) closeSession(conn net.Conn, s *session.Session, cause string) {
	s.Close(cause)
	delete(wk.sessions, conn)
}

// drain gives every still-live session one final MAP_UPDATE if the world
// tick has advanced past the last one it was sent, then closes every
// session with cause (SPEC_FULL.md §C "graceful drain on shutdown"; also
// used when Pool retires this worker).
func (wk *Worker) drain(cause string) {
	if len(wk.sessions) == 0 {
		return
	}
	snap := captureSnapshot(wk.world, wk.width, wk.height)
	for conn, s := range wk.sessions {
		if s.State == session.StateLive {
			sendMapUpdateIfStale(s, snap)
		}
		wk.closeSession(conn, s, cause)
	}
}
