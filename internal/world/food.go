package world

// Food is one entry in the fixed-size food table (spec.md §3). Invariant:
// no two active foods share a position; no food occupies a wall cell.
type Food struct {
	Pos    Point
	Active bool
}

// FoodTable holds up to MaxFood entries.
type FoodTable struct {
	entries [MaxFood]Food
}

// Count returns the number of currently active food entries.
func (t *FoodTable) Count() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Active {
			n++
		}
	}
	return n
}

// At returns the i-th food entry.
func (t *FoodTable) At(i int) Food { return t.entries[i] }

// Occupied reports whether an active food sits at p.
func (t *FoodTable) Occupied(p Point) bool {
	for i := range t.entries {
		if t.entries[i].Active && t.entries[i].Pos == p {
			return true
		}
	}
	return false
}

// Deactivate clears the i-th entry's Active flag.
func (t *FoodTable) Deactivate(i int) { t.entries[i].Active = false }

// FindAt returns the index of the active food at p, or -1.
func (t *FoodTable) FindAt(p Point) int {
	for i := range t.entries {
		if t.entries[i].Active && t.entries[i].Pos == p {
			return i
		}
	}
	return -1
}

// Place activates the first inactive slot at p and returns true, or
// returns false if the table is full.
func (t *FoodTable) Place(p Point) bool {
	for i := range t.entries {
		if !t.entries[i].Active {
			t.entries[i] = Food{Pos: p, Active: true}
			return true
		}
	}
	return false
}
