package world

// PlayerSlot is one entry in the fixed player table (spec.md §3). Slots
// are the stable identity used by the grid (SnakeCell(slot)) and the
// scoreboard.
type PlayerSlot struct {
	Active    bool
	IsAI      bool
	SessionID uint32
	Name      string
	Score     int32
	Color     int // in [1, NumColors]
	Snake     Snake
}

// reset clears a slot back to its NONE state, ready to be claimed.
func (p *PlayerSlot) reset() {
	*p = PlayerSlot{}
}
