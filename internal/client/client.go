// Package client is the peer side of the wire protocol: connect,
// handshake, send intents/chat, and receive map/chat broadcasts. The
// interactive terminal UI and key-binding prompt built on top of this
// are out-of-scope external collaborators (spec.md §1) — this package
// only implements the wire-level interface they'd be built against.
package client

import (
	"fmt"
	"net"
	"time"

	"arcade/internal/wire"
)

// Client is one connection to a gridwars server.
type Client struct {
	Conn net.Conn

	PlayerID   uint32
	Color      uint8
	GridWidth  uint16
	GridHeight uint16

	Stats Stats
}

// Stats tracks simple per-connection counters, printed by stress mode.
type Stats struct {
	Sent, Recv     int
	Errors         int
	LastHeartbeat  time.Time
	HeartbeatRTT   time.Duration
}

// Dial opens a TCP connection to addr. Exit code 1 on failure to
// connect is the caller's responsibility (spec.md §6).
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{Conn: conn}, nil
}

// Login performs the LOGIN_REQ/LOGIN_RESP handshake (spec.md §4.4).
// Returns an error both on transport failure and on a Server Full
// rejection (ERROR frame).
func (c *Client) Login(name string, isAI bool) error {
	payload := wire.EncodeLoginReq(wire.LoginReq{Name: name, IsAI: isAI})
	if err := wire.Send(c.Conn, wire.OpLoginReq, payload); err != nil {
		return fmt.Errorf("send login: %w", err)
	}
	c.Stats.Sent++

	op, respPayload, err := wire.RecvWithDeadline(c.Conn, 10*time.Second)
	if err != nil {
		return fmt.Errorf("recv login response: %w", err)
	}
	c.Stats.Recv++

	switch op {
	case wire.OpLoginResp:
		resp, err := wire.DecodeLoginResp(respPayload)
		if err != nil {
			return fmt.Errorf("decode login response: %w", err)
		}
		c.PlayerID = resp.PlayerID
		c.Color = resp.Color
		c.GridWidth = resp.GridWidth
		c.GridHeight = resp.GridHeight
		return nil
	case wire.OpError:
		return fmt.Errorf("login rejected: %s", string(respPayload))
	default:
		return fmt.Errorf("unexpected opcode %d during handshake", op)
	}
}

// SendMove sends a MOVE frame.
func (c *Client) SendMove(dir uint8) error {
	err := wire.Send(c.Conn, wire.OpMove, wire.EncodeMove(dir))
	if err == nil {
		c.Stats.Sent++
	}
	return err
}

// SendChat sends a CHAT_SEND frame.
func (c *Client) SendChat(text string) error {
	err := wire.Send(c.Conn, wire.OpChatSend, wire.EncodeChatSend(text))
	if err == nil {
		c.Stats.Sent++
	}
	return err
}

// SendHeartbeat sends a HEARTBEAT frame and records the send time so a
// later HEARTBEAT_ACK can be timed.
func (c *Client) SendHeartbeat() error {
	c.Stats.LastHeartbeat = time.Now()
	err := wire.Send(c.Conn, wire.OpHeartbeat, nil)
	if err == nil {
		c.Stats.Sent++
	}
	return err
}

// Logout sends a LOGOUT frame; the server tears the session down on
// receipt.
func (c *Client) Logout() error {
	return wire.Send(c.Conn, wire.OpLogout, nil)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.Conn.Close()
}

// Frame is one decoded inbound message, handed to a Receive callback.
type Frame struct {
	Opcode  wire.Opcode
	Payload []byte
}

// Receive reads and dispatches inbound frames in a loop until recv
// fails (peer closed, or a framing error) or handler returns false.
// HEARTBEAT_ACK is timed automatically into Stats before being passed
// to handler.
func (c *Client) Receive(handler func(Frame) bool) error {
	for {
		op, payload, err := wire.Recv(c.Conn)
		if err != nil {
			return err
		}
		c.Stats.Recv++

		if op == wire.OpHeartbeatAck && !c.Stats.LastHeartbeat.IsZero() {
			c.Stats.HeartbeatRTT = time.Since(c.Stats.LastHeartbeat)
		}

		if !handler(Frame{Opcode: op, Payload: payload}) {
			return nil
		}
	}
}
