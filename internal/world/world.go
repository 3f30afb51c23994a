package world

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// World bundles the grid, player table, food table, chat ring, tick
// counter, and next-session-id counter (spec.md §3). A single mutex
// guards all mutable fields; callers acquire it with Lock/Unlock before
// calling any of the mutating methods below — none of them lock
// internally. The world never spawns its own goroutines.
type World struct {
	mu sync.Mutex

	Grid          *Grid
	Players       [MaxPlayers]PlayerSlot
	Food          FoodTable
	Chat          ChatRing
	tick          uint64
	nextSessionID uint32

	running atomic.Bool
}

// New builds a world with the given grid dimensions.
func New(width, height int) *World {
	w := &World{Grid: NewGrid(width, height), nextSessionID: 1}
	w.running.Store(true)
	return w
}

// Lock acquires the coarse world mutex. Holders must never perform I/O
// or acquire any other lock while holding it (spec.md §5).
func (w *World) Lock() { w.mu.Lock() }

// Unlock releases the coarse world mutex.
func (w *World) Unlock() { w.mu.Unlock() }

// Running reports whether the world is still accepting ticks/sessions.
// Backed by an atomic so both the simulator and every worker can poll it
// without contending on the coarse lock.
func (w *World) Running() bool { return w.running.Load() }

// Stop clears the running flag — the sole shutdown signal (spec.md §5).
func (w *World) Stop() { w.running.Store(false) }

// Tick returns the current tick counter. Caller must hold the lock.
func (w *World) Tick() uint64 { return w.tick }

// AdvanceTick increments the tick counter. Caller must hold the lock;
// only the simulator calls this.
func (w *World) AdvanceTick() { w.tick++ }

// NextSessionID returns a fresh, monotonically increasing session id.
// Caller must hold the lock.
func (w *World) NextSessionID() uint32 {
	id := w.nextSessionID
	w.nextSessionID++
	return id
}

// GridSnapshot copies the grid into the caller-owned dst buffer, sized
// [Height][Width]. Caller must hold the lock.
func (w *World) GridSnapshot(dst [][]byte) {
	w.Grid.CopyInto(dst)
}

// Scoreboard is a point-in-time copy of the player table's visible
// fields, in slot order (spec.md §4.1's MAP_UPDATE layout is slot-order).
type Scoreboard struct {
	Active []bool
	Alive  []bool
	Score  []int32
	Name   []string
}

// ScoreboardSnapshot returns a fresh copy of per-slot active/alive/score/
// name. Caller must hold the lock.
func (w *World) ScoreboardSnapshot() Scoreboard {
	sb := Scoreboard{
		Active: make([]bool, MaxPlayers),
		Alive:  make([]bool, MaxPlayers),
		Score:  make([]int32, MaxPlayers),
		Name:   make([]string, MaxPlayers),
	}
	for i := range w.Players {
		p := &w.Players[i]
		sb.Active[i] = p.Active
		sb.Alive[i] = p.Active && p.Snake.Alive
		sb.Score[i] = p.Score
		sb.Name[i] = p.Name
	}
	return sb
}

// ChatCount returns the monotone total chat-message count. Caller must
// hold the lock.
func (w *World) ChatCount() int { return w.Chat.Count() }

// ChatAt returns the chat message at absolute index i. Caller must hold
// the lock.
func (w *World) ChatAt(i int) ChatMessage { return w.Chat.At(i) }

// AppendChat enqueues a chat message and returns its absolute index.
// Caller must hold the lock.
func (w *World) AppendChat(senderID uint32, name, text string) int {
	if len(text) > MaxChatLen {
		text = text[:MaxChatLen]
	}
	return w.Chat.Append(ChatMessage{SenderID: senderID, SenderName: name, Text: text})
}

// AppendSystemChat enqueues a SYSTEM notice. Caller must hold the lock.
func (w *World) AppendSystemChat(text string) int {
	return w.AppendChat(SystemSenderID, SystemSenderName, text)
}

// ClaimSlot finds the first inactive slot, resets and activates it with
// the given name/is_ai, assigns it a fresh session id, and returns the
// slot index. Returns SlotFull if no slot is free. Caller must hold the
// lock.
func (w *World) ClaimSlot(name string, isAI bool) (int, error) {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	for i := range w.Players {
		if !w.Players[i].Active {
			w.Players[i].reset()
			w.Players[i].Active = true
			w.Players[i].IsAI = isAI
			w.Players[i].Name = name
			w.Players[i].SessionID = w.NextSessionID()
			w.Players[i].Color = (i % NumColors) + 1
			return i, nil
		}
	}
	return NoSlot, SlotFull{}
}

// ReleaseSlot marks a slot inactive and kills its snake. Caller must
// hold the lock.
func (w *World) ReleaseSlot(slot int) {
	if slot < 0 || slot >= MaxPlayers {
		return
	}
	w.Players[slot].Snake.Alive = false
	w.Players[slot].Active = false
}

// QueueMove records an intent: the most recent pending direction wins
// before the next tick consumes it (spec.md §5 coalescing). Caller must
// hold the lock. The session layer is responsible for validating dir
// and slot liveness before calling this.
func (w *World) QueueMove(slot int, dir Direction) {
	if slot < 0 || slot >= MaxPlayers {
		return
	}
	w.Players[slot].Snake.PendingDir = dir
}

// ChooseSpawnPosition implements spec.md §4.3's spawn selection: up to
// 100 uniformly random interior points with a 5-cell inset, accepted if
// the 5x5 box around the point contains only EMPTY or FOOD cells (walls
// ignored by construction of the inset). Falls back to the grid center.
// Caller must hold the lock.
func (w *World) ChooseSpawnPosition(rng *rand.Rand) Point {
	width, height := w.Grid.Width, w.Grid.Height
	minCoord, maxX, maxY := 5, width-6, height-6
	if maxX >= minCoord && maxY >= minCoord {
		for attempt := 0; attempt < 100; attempt++ {
			x := minCoord + rng.Intn(maxX-minCoord+1)
			y := minCoord + rng.Intn(maxY-minCoord+1)
			if w.boxIsClear(x, y) {
				return Point{x, y}
			}
		}
	}
	return Point{width / 2, height / 2}
}

func (w *World) boxIsClear(cx, cy int) bool {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			cell := w.Grid.At(cx+dx, cy+dy)
			if cell != CellEmpty && cell != CellFood {
				return false
			}
		}
	}
	return true
}

// ChooseFoodPosition samples up to 100 random interior points and
// returns the first EMPTY one. ok is false if none was found. Caller
// must hold the lock.
func (w *World) ChooseFoodPosition(rng *rand.Rand) (Point, bool) {
	width, height := w.Grid.Width, w.Grid.Height
	for attempt := 0; attempt < 100; attempt++ {
		x := 1 + rng.Intn(width-2)
		y := 1 + rng.Intn(height-2)
		if w.Grid.At(x, y) == CellEmpty {
			return Point{x, y}, true
		}
	}
	return Point{}, false
}

// RankedScoreboard returns the indices of the active slots sorted by
// score descending (ties keep slot order), for display/log purposes
// only — it never feeds the wire protocol, which stays in slot order.
// Caller must hold the lock.
func (w *World) RankedScoreboard() []int {
	ranks := make([]int, 0, MaxPlayers)
	for i := range w.Players {
		if w.Players[i].Active {
			ranks = append(ranks, i)
		}
	}
	for i := 1; i < len(ranks); i++ {
		for j := i; j > 0 && w.Players[ranks[j]].Score > w.Players[ranks[j-1]].Score; j-- {
			ranks[j], ranks[j-1] = ranks[j-1], ranks[j]
		}
	}
	return ranks
}
