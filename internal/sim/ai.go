package sim

import "arcade/internal/world"

// ChooseAIDirection picks a heading for the AI-controlled snake in slot,
// turning toward the nearest active food while avoiding an immediate
// wall or self collision where a safe alternative exists. Ported from
// the original C implementation's AI behavior (spec.md leaves is_ai
// behavior unspecified; see SPEC_FULL.md §C). AI slots never receive
// MOVE frames, so this is the only source of their PendingDir.
func ChooseAIDirection(w *world.World, slot int) world.Direction {
	p := &w.Players[slot]
	head := p.Snake.Head()
	current := p.Snake.Direction

	candidates := []world.Direction{current, world.Up, world.Down, world.Left, world.Right}
	if target, found := nearestFood(w, head); found {
		candidates = append(preferredAxis(head, target), current, world.Up, world.Down, world.Left, world.Right)
	}

	for _, d := range candidates {
		if d == current.Opposite() {
			continue
		}
		if isSafeStep(w, slot, head, d) {
			return d
		}
	}
	return current
}

func nearestFood(w *world.World, from world.Point) (world.Point, bool) {
	best := world.Point{}
	bestDist := -1
	found := false
	for i := 0; i < world.MaxFood; i++ {
		f := w.Food.At(i)
		if !f.Active {
			continue
		}
		d := abs(f.Pos.X-from.X) + abs(f.Pos.Y-from.Y)
		if !found || d < bestDist {
			best, bestDist, found = f.Pos, d, true
		}
	}
	return best, found
}

// preferredAxis orders the two directions that move toward target
// first (horizontal then vertical, arbitrary but stable tiebreak).
func preferredAxis(from, target world.Point) []world.Direction {
	var dirs []world.Direction
	if target.X > from.X {
		dirs = append(dirs, world.Right)
	} else if target.X < from.X {
		dirs = append(dirs, world.Left)
	}
	if target.Y > from.Y {
		dirs = append(dirs, world.Down)
	} else if target.Y < from.Y {
		dirs = append(dirs, world.Up)
	}
	return dirs
}

func isSafeStep(w *world.World, slot int, from world.Point, d world.Direction) bool {
	dx, dy := d.Delta()
	next := world.Point{X: from.X + dx, Y: from.Y + dy}

	if !w.Grid.IsInterior(next.X, next.Y) {
		return false
	}
	for i := range w.Players {
		op := &w.Players[i]
		if !op.Active || !op.Snake.Alive {
			continue
		}
		skipHead := i == slot
		if op.Snake.Occupies(next, skipHead) {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
