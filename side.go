package tavla

import "fmt"

// Side identifies one of the two competing sides. Side1 travels from low
// point indices toward high, Side2 travels high toward low. Each side has a
// fixed six point home range at its bear-off edge and re-enters captured
// checkers inside the opponent's home.
type Side int8

const (
	SideNone Side = 0
	Side1    Side = 1
	Side2    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideNone:
		return "none"
	case Side1:
		return "side1"
	case Side2:
		return "side2"
	}
	return fmt.Sprintf("side(%d)", int8(s))
}

func (s Side) Opponent() Side {
	switch s {
	case Side1:
		return Side2
	case Side2:
		return Side1
	}
	panic(fmt.Sprintf("tavla: no opponent for %s", s))
}

// Direction returns the sign of travel along the point indices.
func (s Side) Direction() int8 {
	switch s {
	case Side1:
		return 1
	case Side2:
		return -1
	}
	panic(fmt.Sprintf("tavla: no direction for %s", s))
}

// HomeRange returns the inclusive bounds of the side's home board.
func (s Side) HomeRange() (int8, int8) {
	switch s {
	case Side1:
		return 18, 23
	case Side2:
		return 0, 5
	}
	panic(fmt.Sprintf("tavla: no home range for %s", s))
}

// EntryRange returns the inclusive bounds of the points on which the side
// re-enters from the bar.
func (s Side) EntryRange() (int8, int8) {
	switch s {
	case Side1:
		return 0, 5
	case Side2:
		return 18, 23
	}
	panic(fmt.Sprintf("tavla: no entry range for %s", s))
}

// EntryPoint returns the point a checker entering from the bar lands on when
// paying the given quantum.
func (s Side) EntryPoint(quantum int8) int8 {
	switch s {
	case Side1:
		return quantum - 1
	case Side2:
		return BoardPoints - quantum
	}
	panic(fmt.Sprintf("tavla: no entry point for %s", s))
}

// EntryDistance returns the quantum paid by a bar entry landing on the given
// point. It is the inverse of EntryPoint.
func (s Side) EntryDistance(point int8) int8 {
	switch s {
	case Side1:
		return point + 1
	case Side2:
		return BoardPoints - point
	}
	panic(fmt.Sprintf("tavla: no entry distance for %s", s))
}

// BearOffDistance returns the exact quantum required to bear off from the
// given point.
func (s Side) BearOffDistance(point int8) int8 {
	switch s {
	case Side1:
		return BoardPoints - point
	case Side2:
		return point + 1
	}
	panic(fmt.Sprintf("tavla: no bear-off distance for %s", s))
}

// index maps a side to a storage slot, failing loudly on an undefined side.
func (s Side) index() int {
	switch s {
	case Side1:
		return 0
	case Side2:
		return 1
	}
	panic(fmt.Sprintf("tavla: undefined %s", s))
}
