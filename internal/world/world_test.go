package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimSlotAssignsMonotonicSessionIDs(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	s1, err := w.ClaimSlot("Ada", false)
	require.NoError(t, err)
	s2, err := w.ClaimSlot("Bo", false)
	require.NoError(t, err)

	require.NotEqual(t, s1, s2)
	require.Less(t, w.Players[s1].SessionID, w.Players[s2].SessionID)
	require.Equal(t, (s1%NumColors)+1, w.Players[s1].Color)
}

func TestClaimSlotServerFull(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	for i := 0; i < MaxPlayers; i++ {
		_, err := w.ClaimSlot("p", false)
		require.NoError(t, err)
	}

	_, err := w.ClaimSlot("overflow", false)
	require.ErrorIs(t, err, SlotFull{})
}

func TestReleaseSlotFreesItForReuse(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	slot, err := w.ClaimSlot("Ada", false)
	require.NoError(t, err)
	w.ReleaseSlot(slot)
	require.False(t, w.Players[slot].Active)

	slot2, err := w.ClaimSlot("Bo", false)
	require.NoError(t, err)
	require.Equal(t, slot, slot2)
}

func TestNameTruncation(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	slot, err := w.ClaimSlot("ThisNameIsWayTooLongForTheField", false)
	require.NoError(t, err)
	require.LessOrEqual(t, len(w.Players[slot].Name), MaxNameLen)
}

func TestChooseSpawnPositionIsInteriorAndClear(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	rng := rand.New(rand.NewSource(1))
	p := w.ChooseSpawnPosition(rng)
	require.True(t, w.Grid.IsInterior(p.X, p.Y))
}

func TestChooseSpawnPositionFallsBackWhenGridIsFull(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	for y := 0; y < w.Grid.Height; y++ {
		for x := 0; x < w.Grid.Width; x++ {
			if w.Grid.IsInterior(x, y) {
				w.Grid.Set(x, y, SnakeCell(1))
			}
		}
	}

	rng := rand.New(rand.NewSource(1))
	p := w.ChooseSpawnPosition(rng)
	require.Equal(t, Point{w.Grid.Width / 2, w.Grid.Height / 2}, p)
}

func TestChatRingWrapsAndCountsMonotonically(t *testing.T) {
	w := New(DefaultWidth, DefaultHeight)
	w.Lock()
	defer w.Unlock()

	for i := 0; i < MaxChatHistory+5; i++ {
		w.AppendSystemChat("msg")
	}
	require.Equal(t, MaxChatHistory+5, w.ChatCount())

	last := w.ChatAt(w.ChatCount() - 1)
	require.Equal(t, "msg", last.Text)
}

func TestGridResetRestampsBorderOnly(t *testing.T) {
	g := NewGrid(10, 8)
	g.Set(5, 5, CellFood)
	g.Reset()

	require.Equal(t, CellEmpty, g.At(5, 5))
	require.Equal(t, CellWall, g.At(0, 0))
	require.Equal(t, CellWall, g.At(9, 7))
}

func TestSnakeAdvanceAndOppositeRejection(t *testing.T) {
	var s Snake
	s.Init(10, 10)
	require.Equal(t, Right, s.Direction)

	s.PendingDir = Left // opposite of RIGHT: must not commit
	s.Advance()
	require.Equal(t, Right, s.Direction)
	require.Equal(t, Point{11, 10}, s.Head())
}

func TestSnakeSelfHeadExcludedFromOccupies(t *testing.T) {
	var s Snake
	s.Init(10, 10)
	require.False(t, s.Occupies(s.Head(), true))
	require.True(t, s.Occupies(s.Head(), false))
}
