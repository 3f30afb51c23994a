// Package sim runs the single authoritative tick loop that advances
// world state: applying queued intents, moving snakes, resolving
// collisions, spawning food, scheduling respawns, and rebuilding the
// rendered grid (spec.md §4.3).
package sim

import (
	"math/rand"
	"time"

	"arcade/internal/config"
	"arcade/internal/logx"
	"arcade/internal/world"
)

// quantum bounds how long the simulator sleeps between checks of the
// tick deadline, so it notices world.Stop() promptly (spec.md §4.3 step 1).
const quantum = 10 * time.Millisecond

func tickDuration(t config.Tunable) time.Duration {
	ms := t.TickMS
	if ms <= 0 {
		ms = world.GameTickMS
	}
	return time.Duration(ms) * time.Millisecond
}

func foodSpawnInterval(t config.Tunable) time.Duration {
	ms := t.FoodSpawnIntervalMS
	if ms <= 0 {
		ms = world.FoodSpawnIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

// Simulator is the single logical actor with exclusive simulation
// authority over world state. Its tick rate and food-spawn interval are
// re-read from watcher once per tick, so a config file rewrite takes
// effect on a running server (SPEC_FULL.md §A.2) without restarting it.
type Simulator struct {
	w       *world.World
	watcher *config.Watcher
	rng     *rand.Rand
	log     *logx.Logger
	aiFill  bool

	lastTick      time.Time
	lastFoodSpawn time.Time
}

// New builds a simulator over w, reading its tick/food-interval tunables
// from watcher on every tick. Pass config.WatchTunables("", initial) for
// a fixed, non-reloading source (e.g. in tests). rng seeds food/spawn
// placement — pass rand.New(rand.NewSource(time.Now().UnixNano())) in
// production and a fixed seed in tests for determinism.
func New(w *world.World, watcher *config.Watcher, rng *rand.Rand) *Simulator {
	return &Simulator{
		w:       w,
		watcher: watcher,
		rng:     rng,
		log:     logx.Component("sim"),
	}
}

// Run blocks, advancing ticks at the configured rate, until
// w.Running() clears.
func (s *Simulator) Run() {
	s.lastTick = time.Now()
	s.lastFoodSpawn = time.Now()

	for s.w.Running() {
		now := time.Now()
		if now.Sub(s.lastTick) < tickDuration(s.watcher.Tunables()) {
			time.Sleep(quantum)
			continue
		}
		s.lastTick = now
		s.step(now)
	}
	s.log.Info().Msg("simulator stopped")
}

// step performs exactly one tick under the world lock. Split out from
// Run so tests can drive single ticks directly.
func (s *Simulator) step(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			// The simulator never fails by design (spec.md §4.3); a
			// panic here is a bug, not a runtime condition to handle.
			s.log.Error().Interface("panic", r).Msg("recovered panic in simulator tick")
		}
	}()

	s.w.Lock()
	defer s.w.Unlock()

	s.processRespawns()
	s.applyIntents()
	s.resolveCollisions()
	s.rebuildGrid()
	if now.Sub(s.lastFoodSpawn) >= foodSpawnInterval(s.watcher.Tunables()) && s.w.Food.Count() < world.MaxFood/2 {
		s.spawnFood()
		s.lastFoodSpawn = now
	}
	s.w.AdvanceTick()
}

// processRespawns decrements respawn timers and re-spawns snakes whose
// timer has reached zero (spec.md §4.3 step 3).
func (s *Simulator) processRespawns() {
	for i := range s.w.Players {
		p := &s.w.Players[i]
		if !p.Active || p.Snake.Alive {
			continue
		}
		if p.Snake.RespawnTimer <= 0 {
			continue
		}
		p.Snake.RespawnTimer--
		if p.Snake.RespawnTimer == 0 {
			pos := s.w.ChooseSpawnPosition(s.rng)
			p.Snake.Init(pos.X, pos.Y)
			s.w.AppendSystemChat(p.Name + " respawned!")
		}
	}
}

// applyIntents commits each living snake's pending direction (spec.md
// §4.3 step 4), choosing a fresh heading for AI-controlled slots first.
func (s *Simulator) applyIntents() {
	for i := range s.w.Players {
		p := &s.w.Players[i]
		if !p.Active || !p.Snake.Alive {
			continue
		}
		if p.IsAI {
			p.Snake.PendingDir = ChooseAIDirection(s.w, i)
		}
		p.Snake.Advance()
	}
}

// resolveCollisions checks wall/food/snake collisions for every living
// snake, in slot order (spec.md §4.3 step 5).
func (s *Simulator) resolveCollisions() {
	for i := range s.w.Players {
		p := &s.w.Players[i]
		if !p.Active || !p.Snake.Alive {
			continue
		}

		if p.Snake.SpawnProtection > 0 {
			p.Snake.SpawnProtection--
			continue
		}

		head := p.Snake.Head()

		if !s.w.Grid.IsInterior(head.X, head.Y) {
			p.Snake.Kill()
			continue
		}

		if foodIdx := s.w.Food.FindAt(head); foodIdx >= 0 {
			p.Score += 10
			p.Snake.Grow()
			s.w.Food.Deactivate(foodIdx)
			if pos, ok := s.w.ChooseFoodPosition(s.rng); ok {
				s.w.Food.Place(pos)
			}
		}

		if s.headHitsAnySnake(i, head) {
			p.Snake.Kill()
			continue
		}
	}
}

// headHitsAnySnake reports whether slot's head collides with any live
// snake's body, including its own — but never its own head (spec.md
// §4.3: "skipped by the (p==other && i==0) rule").
func (s *Simulator) headHitsAnySnake(slot int, head world.Point) bool {
	for other := range s.w.Players {
		op := &s.w.Players[other]
		if !op.Active || !op.Snake.Alive {
			continue
		}
		skipHead := other == slot
		if op.Snake.Occupies(head, skipHead) {
			return true
		}
	}
	return false
}

// rebuildGrid clears the interior, stamps active food, then stamps every
// live snake's cells as SNAKE(slot) in slot-ascending order (spec.md
// §4.3 step 6 / Design Notes "Grid rebuild order").
func (s *Simulator) rebuildGrid() {
	s.w.Grid.ClearInterior()

	for i := 0; i < world.MaxFood; i++ {
		f := s.w.Food.At(i)
		if f.Active {
			s.w.Grid.Set(f.Pos.X, f.Pos.Y, world.CellFood)
		}
	}

	for i := range s.w.Players {
		p := &s.w.Players[i]
		if !p.Active || !p.Snake.Alive {
			continue
		}
		p.Snake.ForEachCell(func(pt world.Point) {
			s.w.Grid.Set(pt.X, pt.Y, world.SnakeCell(i))
		})
	}
}

// spawnFood places one new food entry if a clear interior cell is found
// (spec.md §4.3 step 7).
func (s *Simulator) spawnFood() {
	if pos, ok := s.w.ChooseFoodPosition(s.rng); ok {
		s.w.Food.Place(pos)
	}
}
