package tavla

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matryer/is"
)

func TestSnapshotRoundTrip(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	scriptDice(g.dice, 6, 1, 3, 5)
	g.RollInitial()
	g.RollForTurn()

	res := g.AttemptMove(0, 3)
	is.True(res.Moved)

	snap := g.Snapshot()
	data, err := json.Marshal(snap)
	is.NoErr(err)

	var decoded Snapshot
	is.NoErr(json.Unmarshal(data, &decoded))

	restored, err := RestoreGame(&decoded)
	is.NoErr(err)
	is.True(reflect.DeepEqual(restored.Snapshot(), snap))
	is.True(reflect.DeepEqual(restored.LegalMoves(), g.LegalMoves()))
	is.Equal(restored.ActiveSide(), g.ActiveSide())
	is.Equal(restored.RemainingQuanta(), g.RemainingQuanta())
}

func TestSnapshotRoundTripBetweenTurns(t *testing.T) {
	is := is.New(t)
	b := customBoard(func(b *Board) {
		b.points[11] = 15
		b.points[12] = -15
	})
	g := &Game{board: b, dice: NewDice(), phase: PhaseRoll, turn: Side2}

	restored, err := RestoreGame(g.Snapshot())
	is.NoErr(err)
	is.Equal(restored.Phase(), PhaseRoll)
	is.Equal(restored.ActiveSide(), Side2)
	is.Equal(restored.RemainingQuanta(), 0)
}

func TestSnapshotOfFinishedGame(t *testing.T) {
	is := is.New(t)
	b := customBoard(func(b *Board) {
		b.points[23] = 1
		b.off[Side1.index()] = 14
		b.points[0] = -15
	})
	g := testGame(b, Side1, 1, 2)
	res := g.AttemptBearOff(23)
	is.True(res.GameOver)

	restored, err := RestoreGame(g.Snapshot())
	is.NoErr(err)
	is.Equal(restored.Phase(), PhaseGameOver)
	is.Equal(restored.Winner(), Side1)
	is.Equal(restored.LegalMoves(), nil)
}

func TestSnapshotBeforeSetupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic snapshotting a zero game")
		}
	}()
	var g Game
	g.Snapshot()
}

func TestRestoreGameRejectsInvalidSnapshots(t *testing.T) {
	base := func() *Snapshot {
		b := customBoard(func(b *Board) {
			b.points[11] = 15
			b.points[12] = -15
		})
		g := testGame(b, Side1, 3, 5)
		return g.Snapshot()
	}

	cases := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"phase out of range", func(s *Snapshot) { s.Phase = PhaseGameOver + 1 }},
		{"missing checker", func(s *Snapshot) { s.Points[11] = 14 }},
		{"extra checker", func(s *Snapshot) { s.Bar[Side1.index()] = 1 }},
		{"negative count", func(s *Snapshot) { s.Off[Side2.index()] = -1 }},
		{"no turn in move phase", func(s *Snapshot) { s.Turn = SideNone }},
		{"move phase without roll", func(s *Snapshot) { s.Rolled = false }},
		{"move phase without quanta", func(s *Snapshot) { s.Quanta = nil }},
		{"quanta outside move phase", func(s *Snapshot) { s.Phase = PhaseRoll }},
		{"too many quanta", func(s *Snapshot) { s.Quanta = []int8{3, 3, 3, 3, 3} }},
		{"quantum out of range", func(s *Snapshot) { s.Quanta = []int8{7} }},
		{"roll out of range", func(s *Snapshot) { s.Roll1 = 0 }},
		{"winner without game over", func(s *Snapshot) { s.Winner = Side1 }},
		{"winner without fifteen off", func(s *Snapshot) {
			s.Phase = PhaseGameOver
			s.Winner = Side2
			s.Quanta = nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			s := base()
			tc.mutate(s)
			_, err := RestoreGame(s)
			is.True(err != nil)
		})
	}
}
