package workerpool

import (
	"arcade/internal/session"
	"arcade/internal/wire"
	"arcade/internal/world"
)

// worldSnapshot is what one iteration of a worker's loop reads from the
// world under a single lock acquisition, then uses to build per-session
// frames after releasing the lock (spec.md §4.5 steps 2-3; §5 "never
// perform I/O while holding the world lock").
type worldSnapshot struct {
	tick       uint64
	grid       [][]byte
	scoreboard world.Scoreboard

	chatCount int
	chatTail  [world.MaxChatHistory]world.ChatMessage
}

func captureSnapshot(w *world.World, width, height int) worldSnapshot {
	w.Lock()
	defer w.Unlock()

	snap := worldSnapshot{
		tick:       w.Tick(),
		grid:       make([][]byte, height),
		scoreboard: w.ScoreboardSnapshot(),
		chatCount:  w.ChatCount(),
	}
	for y := range snap.grid {
		snap.grid[y] = make([]byte, width)
	}
	w.GridSnapshot(snap.grid)

	start := snap.chatCount - world.MaxChatHistory
	if start < 0 {
		start = 0
	}
	for i := start; i < snap.chatCount; i++ {
		snap.chatTail[i%world.MaxChatHistory] = w.ChatAt(i)
	}

	return snap
}

// sendMapUpdateIfStale sends MAP_UPDATE to s if snap is newer than the
// last tick s was sent, per spec.md §4.5 step 2. Map updates are
// delivered at most once per new tick per client, in tick order.
func sendMapUpdateIfStale(s *session.Session, snap worldSnapshot) error {
	if snap.tick <= s.LastMapTick {
		return nil
	}

	payload := wire.EncodeMapUpdate(wire.MapUpdate{
		Tick:   uint32(snap.tick),
		Grid:   snap.grid,
		Scores: snap.scoreboard.Score,
		Alive:  snap.scoreboard.Alive,
		Active: snap.scoreboard.Active,
		Names:  snap.scoreboard.Name,
	})
	if err := wire.Send(s.Conn, wire.OpMapUpdate, payload); err != nil {
		return err
	}
	s.LastMapTick = snap.tick
	return nil
}

// sendPendingChat delivers any chat messages s hasn't seen yet, in
// strict chat_count order, clamped to the ring's capacity (spec.md §4.5
// step 3 / §5 "clients that fall more than one ring behind lose the
// oldest messages silently").
func sendPendingChat(s *session.Session, snap worldSnapshot) error {
	n := snap.chatCount - s.LastChatIdx
	if n <= 0 {
		return nil
	}
	if n > world.MaxChatHistory {
		n = world.MaxChatHistory
	}

	start := snap.chatCount - n
	for i := start; i < snap.chatCount; i++ {
		msg := snap.chatTail[i%world.MaxChatHistory]
		payload := wire.EncodeChatRecv(wire.ChatRecv{
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			Text:       msg.Text,
		})
		if err := wire.Send(s.Conn, wire.OpChatRecv, payload); err != nil {
			return err
		}
	}
	s.LastChatIdx = snap.chatCount
	return nil
}
