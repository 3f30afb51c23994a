// Package session implements the per-connection state machine: handshake,
// intent ingestion, heartbeat, chat emission, and orderly teardown
// (spec.md §4.4). A session is owned by exactly one worker and never
// blocks on I/O longer than one I/O cycle — the owning worker multiplexes
// readiness.
package session

import (
	"math/rand"
	"net"

	"github.com/google/uuid"

	"arcade/internal/logx"
	"arcade/internal/wire"
	"arcade/internal/world"
)

// State is the session's position in its state machine.
type State int

const (
	StateHandshake State = iota
	StateLive
	StateClosing
	StateClosed
)

// Session is one live client transport plus its bound slot, if any.
type Session struct {
	Conn   net.Conn
	ConnID string // correlation id for logs only, never sent on the wire

	World *world.World
	Rng   *rand.Rand // shared with the simulator; only touched under World.Lock

	Width, Height int // grid dims, echoed in LOGIN_RESP

	Slot        int
	LastMapTick uint64
	LastChatIdx int
	State       State

	log *logx.Logger
}

// New creates a HANDSHAKE-state session for a freshly accepted conn.
func New(conn net.Conn, w *world.World, rng *rand.Rand, width, height int) *Session {
	id := uuid.NewString()[:8]
	return &Session{
		Conn:   conn,
		ConnID: id,
		World:  w,
		Rng:    rng,
		Width:  width,
		Height: height,
		Slot:   world.NoSlot,
		State:  StateHandshake,
		log:    logx.Component("session"),
	}
}

// HandleFrame dispatches one inbound frame according to the current
// state. Any returned error is session-terminal; the caller (a worker)
// should tear down and remove the session.
func (s *Session) HandleFrame(op wire.Opcode, payload []byte) error {
	switch s.State {
	case StateHandshake:
		return s.handleHandshake(op, payload)
	case StateLive:
		return s.handleLive(op, payload)
	default:
		return nil
	}
}

func (s *Session) handleHandshake(op wire.Opcode, payload []byte) error {
	if op != wire.OpLoginReq {
		// Only LOGIN_REQ is accepted during handshake; anything else is
		// simply ignored until it arrives.
		return nil
	}

	req, err := wire.DecodeLoginReq(payload)
	if err != nil {
		return err
	}

	s.World.Lock()
	slot, claimErr := s.World.ClaimSlot(req.Name, req.IsAI)
	if claimErr != nil {
		s.World.Unlock()
		s.log.Info().Str("conn", s.ConnID).Msg("rejecting login: server full")
		if err := wire.Send(s.Conn, wire.OpError, wire.EncodeError("Server Full")); err != nil {
			return err
		}
		s.State = StateClosed
		return s.Conn.Close()
	}

	pos := s.World.ChooseSpawnPosition(s.Rng)
	s.World.Players[slot].Snake.Init(pos.X, pos.Y)
	s.Slot = slot
	s.LastChatIdx = s.World.ChatCount()
	name := s.World.Players[slot].Name
	s.World.AppendSystemChat(name + " joined!")
	sessionID := s.World.Players[slot].SessionID
	color := uint8(s.World.Players[slot].Color)
	s.World.Unlock()

	s.log.Info().Str("conn", s.ConnID).Int("slot", slot).Str("name", name).Msg("player joined")

	resp := wire.EncodeLoginResp(wire.LoginResp{
		PlayerID:   sessionID,
		Color:      color,
		GridWidth:  uint16(s.Width),
		GridHeight: uint16(s.Height),
	})
	if err := wire.Send(s.Conn, wire.OpLoginResp, resp); err != nil {
		return err
	}

	s.State = StateLive
	return nil
}

func (s *Session) handleLive(op wire.Opcode, payload []byte) error {
	switch op {
	case wire.OpMove:
		return s.handleMove(payload)
	case wire.OpChatSend:
		return s.handleChatSend(payload)
	case wire.OpHeartbeat:
		return wire.Send(s.Conn, wire.OpHeartbeatAck, nil)
	case wire.OpLogout:
		s.State = StateClosing
		return nil
	default:
		// Unknown opcodes during LIVE are ignored per spec.md §4.4.
		return nil
	}
}

func (s *Session) handleMove(payload []byte) error {
	dir, err := wire.DecodeMove(payload)
	if err != nil {
		return err
	}
	d := world.Direction(dir)
	if !d.IsValid() {
		// Out-of-range direction: silently ignored, never terminal.
		return nil
	}

	s.World.Lock()
	defer s.World.Unlock()
	if s.World.Players[s.Slot].Snake.Alive {
		s.World.QueueMove(s.Slot, d)
	}
	return nil
}

func (s *Session) handleChatSend(payload []byte) error {
	text, err := wire.DecodeChatSend(payload)
	if err != nil {
		return err
	}

	s.World.Lock()
	name := s.World.Players[s.Slot].Name
	id := s.World.Players[s.Slot].SessionID
	s.World.AppendChat(id, name, text)
	s.World.Unlock()
	return nil
}

// Close runs the CLOSING procedure (spec.md §4.4): mark the slot
// inactive, kill its snake, append a SYSTEM departure notice, then close
// the transport. Safe to call once per session after HandleFrame
// returns an error or sets State to StateClosing.
func (s *Session) Close(cause string) error {
	if s.State == StateClosed {
		return nil
	}

	if s.Slot != world.NoSlot {
		s.World.Lock()
		name := s.World.Players[s.Slot].Name
		s.World.ReleaseSlot(s.Slot)
		s.World.AppendSystemChat(name + " left the game")
		s.World.Unlock()
	}

	s.State = StateClosed
	s.log.Info().Str("conn", s.ConnID).Str("cause", cause).Msg("session closed")
	return s.Conn.Close()
}
