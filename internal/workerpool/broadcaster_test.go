package workerpool

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arcade/internal/session"
	"arcade/internal/wire"
	"arcade/internal/world"
)

func newTestSessionPair(t *testing.T, w *world.World) (*session.Session, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	rng := rand.New(rand.NewSource(1))
	s := session.New(serverConn, w, rng, w.Grid.Width, w.Grid.Height)
	return s, clientConn
}

func TestCaptureSnapshotReflectsCurrentTick(t *testing.T) {
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	w.Lock()
	w.AdvanceTick()
	w.AdvanceTick()
	w.Unlock()

	snap := captureSnapshot(w, world.DefaultWidth, world.DefaultHeight)
	require.Equal(t, uint64(2), snap.tick)
	require.Len(t, snap.grid, world.DefaultHeight)
	require.Len(t, snap.grid[0], world.DefaultWidth)
}

func TestSendMapUpdateIfStaleSkipsAlreadySeenTick(t *testing.T) {
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	s, clientConn := newTestSessionPair(t, w)

	snap := captureSnapshot(w, world.DefaultWidth, world.DefaultHeight)
	s.LastMapTick = snap.tick

	done := make(chan error, 1)
	go func() {
		done <- sendMapUpdateIfStale(s, snap)
	}()
	require.NoError(t, <-done)

	clientConn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := wire.Recv(clientConn)
	require.Error(t, err, "no frame should have been sent for an already-seen tick")
}

func TestSendMapUpdateIfStaleSendsOnNewTick(t *testing.T) {
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	s, clientConn := newTestSessionPair(t, w)

	w.Lock()
	w.AdvanceTick()
	w.Unlock()
	snap := captureSnapshot(w, world.DefaultWidth, world.DefaultHeight)

	errCh := make(chan error, 1)
	go func() { errCh <- sendMapUpdateIfStale(s, snap) }()

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	op, _, err := wire.Recv(clientConn)
	require.NoError(t, err)
	require.Equal(t, wire.OpMapUpdate, op)
	require.NoError(t, <-errCh)
	require.Equal(t, snap.tick, s.LastMapTick)
}

func TestSendPendingChatDeliversOnlyNewMessages(t *testing.T) {
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	w.Lock()
	w.AppendSystemChat("first")
	w.Unlock()

	s, clientConn := newTestSessionPair(t, w)
	s.LastChatIdx = w.ChatCount() // already caught up

	w.Lock()
	w.AppendSystemChat("second")
	w.Unlock()
	snap := captureSnapshot(w, world.DefaultWidth, world.DefaultHeight)

	errCh := make(chan error, 1)
	go func() { errCh <- sendPendingChat(s, snap) }()

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	op, payload, err := wire.Recv(clientConn)
	require.NoError(t, err)
	require.Equal(t, wire.OpChatRecv, op)

	msg, err := wire.DecodeChatRecv(payload)
	require.NoError(t, err)
	require.Equal(t, "second", msg.Text)
	require.NoError(t, <-errCh)
	require.Equal(t, snap.chatCount, s.LastChatIdx)
}

func TestSendPendingChatClampsToRingCapacity(t *testing.T) {
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	s, clientConn := newTestSessionPair(t, w)
	s.LastChatIdx = 0

	w.Lock()
	for i := 0; i < world.MaxChatHistory+10; i++ {
		w.AppendSystemChat("msg")
	}
	w.Unlock()
	snap := captureSnapshot(w, world.DefaultWidth, world.DefaultHeight)

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for received < world.MaxChatHistory {
			clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, _, err := wire.Recv(clientConn); err != nil {
				return
			}
			received++
		}
	}()

	require.NoError(t, sendPendingChat(s, snap))
	<-done
	require.Equal(t, world.MaxChatHistory, received)
	require.Equal(t, snap.chatCount, s.LastChatIdx)
}
