package tavla

import "fmt"

const (
	// BoardPoints is the number of points a checker can occupy.
	BoardPoints = 24
	// CheckersPerSide is the number of checkers each side plays with.
	CheckersPerSide = 15
)

// Sentinel spaces used by engine commands and legal move listings.
const (
	// SpaceBar marks a move originating on the bar.
	SpaceBar int8 = -1
	// SpaceOff marks a move that bears the checker off.
	SpaceOff int8 = -2
)

// BoardEvent describes what a board mutation did. A zero event means the
// request was rejected and the board is unchanged.
type BoardEvent struct {
	Moved    bool `json:"moved"`
	Hit      bool `json:"hit"`
	HitSide  Side `json:"hitSide,omitempty"`
	BorneOff bool `json:"borneOff,omitempty"`
}

// Board is the sole owner of positional truth: point occupancy, per-side bar
// counts and per-side borne-off counts. Positive point values are Side1
// checkers, negative values Side2, so a point can never hold both sides at
// once. All mutations validate first; a rejected call leaves the board
// unchanged. The board performs no locking and assumes callers serialize
// access.
type Board struct {
	points [BoardPoints]int8
	bar    [2]int8
	off    [2]int8
}

// NewBoard returns a board in the standard starting layout: each side's
// fifteen checkers split 2/5/3/5, mirrored by direction.
func NewBoard() *Board {
	b := &Board{}
	b.points[0] = 2
	b.points[11] = 5
	b.points[16] = 3
	b.points[18] = 5
	b.points[23] = -2
	b.points[12] = -5
	b.points[7] = -3
	b.points[5] = -5
	return b
}

func checkPoint(point int8) {
	if point < 0 || point >= BoardPoints {
		panic(fmt.Sprintf("tavla: point %d out of range", point))
	}
}

// checkers returns how many of side's checkers occupy the point.
func (b *Board) checkers(point int8, side Side) int8 {
	v := b.points[point]
	if side == Side2 {
		v = -v
	}
	if v < 0 {
		return 0
	}
	return v
}

// sign returns the point delta representing one checker of side.
func sign(side Side) int8 {
	if side == Side2 {
		return -1
	}
	return 1
}

// Point returns the owning side and checker count of a point.
func (b *Board) Point(point int8) (Side, int8) {
	checkPoint(point)
	v := b.points[point]
	switch {
	case v > 0:
		return Side1, v
	case v < 0:
		return Side2, -v
	}
	return SideNone, 0
}

// Bar returns how many of side's checkers await re-entry.
func (b *Board) Bar(side Side) int8 {
	return b.bar[side.index()]
}

// Off returns how many of side's checkers have been borne off.
func (b *Board) Off(side Side) int8 {
	return b.off[side.index()]
}

// IsLegalMove reports whether side may move a checker between two points: the
// side has nothing on the bar, owns a checker on from, travels in its fixed
// direction, and to is not held by two or more opposing checkers. Dice
// payability is the engine's concern, not the board's.
func (b *Board) IsLegalMove(side Side, from int8, to int8) bool {
	checkPoint(from)
	checkPoint(to)
	if b.bar[side.index()] != 0 {
		return false
	}
	if b.checkers(from, side) == 0 {
		return false
	}
	if (to-from)*side.Direction() <= 0 {
		return false
	}
	return b.checkers(to, side.Opponent()) < 2
}

// MoveChecker applies a regular move. A single opposing checker on the
// destination is captured and sent to the opponent's bar. Illegal requests
// return a zero event with no mutation.
func (b *Board) MoveChecker(side Side, from int8, to int8) BoardEvent {
	var event BoardEvent
	if !b.IsLegalMove(side, from, to) {
		return event
	}

	b.points[from] -= sign(side)
	if b.checkers(to, side.Opponent()) == 1 {
		b.points[to] = sign(side)
		b.bar[side.Opponent().index()]++
		event.Hit = true
		event.HitSide = side.Opponent()
	} else {
		b.points[to] += sign(side)
	}
	event.Moved = true

	b.assertConserved()
	return event
}

// EnterFromBar moves one of side's captured checkers onto a point in its
// entry range. A single opposing checker there is captured exactly as in
// MoveChecker.
func (b *Board) EnterFromBar(side Side, point int8) BoardEvent {
	var event BoardEvent
	checkPoint(point)
	if b.bar[side.index()] == 0 {
		return event
	}
	lo, hi := side.EntryRange()
	if point < lo || point > hi {
		return event
	}
	if b.checkers(point, side.Opponent()) >= 2 {
		return event
	}

	if b.checkers(point, side.Opponent()) == 1 {
		b.points[point] = sign(side)
		b.bar[side.Opponent().index()]++
		event.Hit = true
		event.HitSide = side.Opponent()
	} else {
		b.points[point] += sign(side)
	}
	b.bar[side.index()]--
	event.Moved = true

	b.assertConserved()
	return event
}

// AllInHomeBoard reports whether every on-board checker owned by side lies
// within its home range. Checkers on the bar are not in the home board.
func (b *Board) AllInHomeBoard(side Side) bool {
	if b.bar[side.index()] != 0 {
		return false
	}
	lo, hi := side.HomeRange()
	for point := int8(0); point < BoardPoints; point++ {
		if point >= lo && point <= hi {
			continue
		}
		if b.checkers(point, side) != 0 {
			return false
		}
	}
	return true
}

// Farthest reports whether no checker owned by side sits farther from its
// bear-off edge than the given point. A larger quantum may only substitute
// for the exact bear-off distance from such a point.
func (b *Board) Farthest(side Side, point int8) bool {
	checkPoint(point)
	for p := int8(0); p < BoardPoints; p++ {
		if side.BearOffDistance(p) > side.BearOffDistance(point) && b.checkers(p, side) != 0 {
			return false
		}
	}
	return true
}

// BearOff permanently removes a checker once all of side's checkers are in
// its home board. Die matching is enforced by the engine.
func (b *Board) BearOff(side Side, point int8) bool {
	checkPoint(point)
	if !b.AllInHomeBoard(side) {
		return false
	}
	if b.checkers(point, side) == 0 {
		return false
	}

	b.points[point] -= sign(side)
	b.off[side.index()]++

	b.assertConserved()
	return true
}

// CheckWinner returns the side with all fifteen checkers borne off, or
// SideNone.
func (b *Board) CheckWinner() Side {
	if b.off[Side1.index()] == CheckersPerSide {
		return Side1
	}
	if b.off[Side2.index()] == CheckersPerSide {
		return Side2
	}
	return SideNone
}

// assertConserved panics when checker conservation is violated. A breach can
// only come from a bug in this package.
func (b *Board) assertConserved() {
	for _, side := range []Side{Side1, Side2} {
		total := b.bar[side.index()] + b.off[side.index()]
		for point := int8(0); point < BoardPoints; point++ {
			total += b.checkers(point, side)
		}
		if total != CheckersPerSide {
			panic(fmt.Sprintf("tavla: %s has %d checkers, want %d", side, total, CheckersPerSide))
		}
	}
}
