package tavla

import (
	"fmt"

	"lukechampine.com/frand"
)

// Dice produces the movement quanta for each turn: two uniform faces in
// [1,6], expanded to four usable quanta on doubles. It also provides the
// single-die-per-side initial roll that decides who starts.
type Dice struct {
	roll1  int8
	roll2  int8
	rolled bool

	// intn returns a uniform value in [0,n). Tests replace it with a
	// scripted source.
	intn func(n int) int
}

func NewDice() *Dice {
	return &Dice{intn: frand.Intn}
}

func (d *Dice) face() int8 {
	return int8(d.intn(6)) + 1
}

// Roll draws two independent faces and stores them as the current roll.
func (d *Dice) Roll() (int8, int8) {
	d.roll1, d.roll2 = d.face(), d.face()
	d.rolled = true
	return d.roll1, d.roll2
}

// Rolled reports whether any roll has been made.
func (d *Dice) Rolled() bool {
	return d.rolled
}

// Faces returns the current roll. Reading dice that were never rolled is a
// programmer error.
func (d *Dice) Faces() (int8, int8) {
	if !d.rolled {
		panic("tavla: dice read before roll")
	}
	return d.roll1, d.roll2
}

// IsDoubles reports whether both current faces match.
func (d *Dice) IsDoubles() bool {
	r1, r2 := d.Faces()
	return r1 == r2
}

// MovesFor returns the usable movement quanta of the current roll: the two
// faces, or four copies of the face on doubles.
func (d *Dice) MovesFor() []int8 {
	r1, r2 := d.Faces()
	if r1 == r2 {
		return []int8{r1, r1, r1, r1}
	}
	return []int8{r1, r2}
}

// InitialRoll draws one face per side to decide who starts. It does not
// disturb the current roll.
func (d *Dice) InitialRoll() (int8, int8) {
	return d.face(), d.face()
}

// HigherInitialRoller compares the two initial draws and returns the starting
// side, or SideNone on a tie. Ties are re-rolled by the caller.
func HigherInitialRoller(roll1 int8, roll2 int8) Side {
	if roll1 < 1 || roll1 > 6 || roll2 < 1 || roll2 > 6 {
		panic(fmt.Sprintf("tavla: initial rolls %d and %d out of range", roll1, roll2))
	}
	switch {
	case roll1 > roll2:
		return Side1
	case roll2 > roll1:
		return Side2
	}
	return SideNone
}
