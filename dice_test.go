package tavla

import (
	"testing"

	"github.com/matryer/is"
)

// scriptDice replaces the randomness source with a fixed sequence of faces.
func scriptDice(d *Dice, faces ...int8) {
	i := 0
	d.intn = func(n int) int {
		f := faces[i%len(faces)]
		i++
		return int(f) - 1
	}
}

func TestDiceRoll(t *testing.T) {
	is := is.New(t)
	d := NewDice()
	scriptDice(d, 3, 5)
	r1, r2 := d.Roll()
	is.Equal(r1, int8(3))
	is.Equal(r2, int8(5))
	is.True(d.Rolled())
	is.True(!d.IsDoubles())
	is.Equal(d.MovesFor(), []int8{3, 5})
}

func TestDiceDoublesYieldFourQuanta(t *testing.T) {
	is := is.New(t)
	d := NewDice()
	scriptDice(d, 4, 4)
	d.Roll()
	is.True(d.IsDoubles())
	is.Equal(d.MovesFor(), []int8{4, 4, 4, 4})
}

func TestDiceReadBeforeRollPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading dice before roll")
		}
	}()
	NewDice().IsDoubles()
}

func TestDiceFacesUniform(t *testing.T) {
	is := is.New(t)
	d := NewDice()
	var seen [7]bool
	for i := 0; i < 1000; i++ {
		r1, r2 := d.Roll()
		is.True(r1 >= 1 && r1 <= 6)
		is.True(r2 >= 1 && r2 <= 6)
		seen[r1] = true
		seen[r2] = true
	}
	for face := 1; face <= 6; face++ {
		is.True(seen[face])
	}
}

func TestDiceInitialRollIndependent(t *testing.T) {
	is := is.New(t)
	d := NewDice()
	scriptDice(d, 6, 2)
	r1, r2 := d.InitialRoll()
	is.Equal(r1, int8(6))
	is.Equal(r2, int8(2))
	// The current turn roll is untouched.
	is.True(!d.Rolled())
}

func TestHigherInitialRoller(t *testing.T) {
	is := is.New(t)
	is.Equal(HigherInitialRoller(6, 2), Side1)
	is.Equal(HigherInitialRoller(1, 4), Side2)
	is.Equal(HigherInitialRoller(3, 3), SideNone)
}

func TestHigherInitialRollerRejectsBadFaces(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out of range face")
		}
	}()
	HigherInitialRoller(0, 3)
}
