package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arcade/internal/config"
	"arcade/internal/world"
)

func newTestSim(t *testing.T) (*world.World, *Simulator) {
	t.Helper()
	w := world.New(world.DefaultWidth, world.DefaultHeight)
	watcher := config.WatchTunables("", config.Tunable{TickMS: 100, FoodSpawnIntervalMS: 3000})
	s := New(w, watcher, rand.New(rand.NewSource(1)))
	return w, s
}

func TestStepAdvancesTick(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	before := w.Tick()
	w.Unlock()

	s.step(time.Now())

	w.Lock()
	defer w.Unlock()
	require.Equal(t, before+1, w.Tick())
}

func TestStepKillsSnakeOnWallCollision(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	slot, err := w.ClaimSlot("Wallcrasher", false)
	require.NoError(t, err)
	w.Players[slot].Snake.Init(1, 5)
	w.Players[slot].Snake.SpawnProtection = 0
	w.Players[slot].Snake.Direction = world.Left
	w.Players[slot].Snake.PendingDir = world.Left
	w.Unlock()

	s.step(time.Now())

	w.Lock()
	defer w.Unlock()
	require.False(t, w.Players[slot].Snake.Alive)
	require.Equal(t, world.RespawnTicks, w.Players[slot].Snake.RespawnTimer)
}

func TestStepGrowsSnakeAndScoresOnFood(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	slot, err := w.ClaimSlot("Eater", false)
	require.NoError(t, err)
	w.Players[slot].Snake.Init(10, 10)
	w.Players[slot].Snake.SpawnProtection = 0
	w.Players[slot].Snake.Direction = world.Right
	w.Players[slot].Snake.PendingDir = world.Right

	head := w.Players[slot].Snake.Head()
	dx, dy := world.Right.Delta()
	foodPos := world.Point{X: head.X + dx, Y: head.Y + dy}
	w.Food.Place(foodPos)
	lengthBefore := w.Players[slot].Snake.Length()
	w.Unlock()

	s.step(time.Now())

	w.Lock()
	defer w.Unlock()
	require.True(t, w.Players[slot].Snake.Alive)
	require.Equal(t, int32(10), w.Players[slot].Score)
	require.Greater(t, w.Players[slot].Snake.Length(), lengthBefore)
}

func TestStepKillsSnakeOnSelfCollision(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	slot, err := w.ClaimSlot("Looper", false)
	require.NoError(t, err)
	snake := &w.Players[slot].Snake
	snake.Init(10, 10)
	snake.SpawnProtection = 0

	// Trace a U-turn that grows the trail back under the head's final
	// step, so the last Advance() (performed inside s.step below) drives
	// the head onto a cell still occupied by the body.
	snake.PendingDir = world.Up
	snake.Advance()
	snake.Grow()
	snake.PendingDir = world.Left
	snake.Advance()
	snake.Grow()
	snake.PendingDir = world.Down
	w.Unlock()

	s.step(time.Now())

	w.Lock()
	defer w.Unlock()
	require.False(t, w.Players[slot].Snake.Alive)
}

func TestProcessRespawnsReinitializesAtZero(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	slot, err := w.ClaimSlot("Ghost", false)
	require.NoError(t, err)
	w.Players[slot].Snake.Kill()
	w.Players[slot].Snake.RespawnTimer = 1
	w.Unlock()

	s.step(time.Now())

	w.Lock()
	defer w.Unlock()
	require.True(t, w.Players[slot].Snake.Alive)
	// The collision pass of the same tick already spends one tick of the
	// fresh spawn protection.
	require.Equal(t, world.ProtectionTicks-1, w.Players[slot].Snake.SpawnProtection)
}

func TestHeadHitsAnySnakeSkipsOwnHead(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	defer w.Unlock()

	slot, err := w.ClaimSlot("Solo", false)
	require.NoError(t, err)
	w.Players[slot].Snake.Init(10, 10)

	require.False(t, s.headHitsAnySnake(slot, w.Players[slot].Snake.Head()))
}

func TestRebuildGridStampsFoodThenSnakes(t *testing.T) {
	w, s := newTestSim(t)
	w.Lock()
	defer w.Unlock()

	slot, err := w.ClaimSlot("Render", false)
	require.NoError(t, err)
	w.Players[slot].Snake.Init(20, 20)
	w.Food.Place(world.Point{X: 15, Y: 15})

	s.rebuildGrid()

	require.Equal(t, world.CellFood, w.Grid.At(15, 15))
	head := w.Players[slot].Snake.Head()
	require.Equal(t, world.SnakeCell(slot), w.Grid.At(head.X, head.Y))
}
