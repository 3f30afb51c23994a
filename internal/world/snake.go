package world

// Point is an integer grid coordinate.
type Point struct {
	X, Y int
}

// Snake is a ring buffer of body segments (spec.md §3). Body cells are
// body[(headIdx - length + 1 + k) mod MaxSnakeLen] for k in [0, length).
// Invariant: length >= 3 whenever Alive; all body cells lie in the grid
// interior.
type Snake struct {
	body       [MaxSnakeLen]Point
	headIdx    int
	length     int
	Direction  Direction
	PendingDir Direction
	Alive      bool

	SpawnProtection int
	RespawnTimer    int
}

// Length returns the current body length.
func (s *Snake) Length() int { return s.length }

// Head returns the current head position.
func (s *Snake) Head() Point { return s.body[s.headIdx] }

// BodyAt returns the k-th body segment, k=0 is the head.
func (s *Snake) BodyAt(k int) Point {
	idx := (s.headIdx - k + MaxSnakeLen*2) % MaxSnakeLen
	return s.body[idx]
}

// ForEachCell invokes fn for every occupied body cell, head first.
func (s *Snake) ForEachCell(fn func(p Point)) {
	for k := 0; k < s.length; k++ {
		fn(s.BodyAt(k))
	}
}

// Occupies reports whether any body segment sits at p. skipHead leaves
// the head cell out of the check (used for self-head exclusion on
// collision: "including its own body but NOT its own head").
func (s *Snake) Occupies(p Point, skipHead bool) bool {
	for k := 0; k < s.length; k++ {
		if skipHead && k == 0 {
			continue
		}
		if s.BodyAt(k) == p {
			return true
		}
	}
	return false
}

// Init (re)initializes the snake for a fresh spawn at (sx, sy), heading
// RIGHT with length 3 (spec.md §4.3 "Snake init").
func (s *Snake) Init(sx, sy int) {
	s.headIdx = 0
	s.length = 3
	s.body[0] = Point{sx, sy}
	s.body[(0-1+MaxSnakeLen)%MaxSnakeLen] = Point{sx - 1, sy}
	s.body[(0-2+MaxSnakeLen)%MaxSnakeLen] = Point{sx - 2, sy}
	s.Direction = Right
	s.PendingDir = Right
	s.Alive = true
	s.SpawnProtection = ProtectionTicks
	s.RespawnTimer = 0
}

// Advance commits PendingDir (unless it is the exact opposite of the
// current Direction) and moves the head one cell in the committed
// direction, advancing the ring's head index by one slot. Length is
// unchanged, so the old tail cell drops out of the body. Returns the new
// head.
func (s *Snake) Advance() Point {
	if s.PendingDir != s.Direction.Opposite() {
		s.Direction = s.PendingDir
	}
	dx, dy := s.Direction.Delta()
	s.headIdx = (s.headIdx + 1) % MaxSnakeLen
	newHead := Point{s.BodyAt(1).X + dx, s.BodyAt(1).Y + dy}
	s.body[s.headIdx] = newHead
	return newHead
}

// Grow increases length by one, capped at MaxSnakeLen-1.
func (s *Snake) Grow() {
	if s.length < MaxSnakeLen-1 {
		s.length++
	}
}

// Kill marks the snake dead and starts its respawn countdown.
func (s *Snake) Kill() {
	s.Alive = false
	s.RespawnTimer = RespawnTicks
}
