package tavla

import "fmt"

// Snapshot is the flat serializable record of a full game: every point, both
// bar and borne-off counts, the active side, the unconsumed ledger quanta
// and the last roll. Restoring a snapshot yields a game whose queries and
// legal-move enumeration are identical to the source.
type Snapshot struct {
	Points [BoardPoints]int8 `json:"points"`
	Bar    [2]int8           `json:"bar"`
	Off    [2]int8           `json:"off"`
	Turn   Side              `json:"turn"`
	Phase  Phase             `json:"phase"`
	Winner Side              `json:"winner"`
	Roll1  int8              `json:"roll1"`
	Roll2  int8              `json:"roll2"`
	Rolled bool              `json:"rolled"`
	Quanta []int8            `json:"quanta,omitempty"`
}

// Snapshot captures the full game state. Snapshotting a game that was never
// set up is a programmer error.
func (g *Game) Snapshot() *Snapshot {
	if g.phase == PhaseNotStarted {
		panic("tavla: snapshot of a game that was never set up")
	}
	s := &Snapshot{
		Points: g.board.points,
		Bar:    g.board.bar,
		Off:    g.board.off,
		Turn:   g.turn,
		Phase:  g.phase,
		Winner: g.winner,
	}
	if g.dice.Rolled() {
		s.Roll1, s.Roll2 = g.dice.Faces()
		s.Rolled = true
	}
	if g.ledger != nil {
		s.Quanta = g.ledger.Quanta()
	}
	return s
}

// RestoreGame rebuilds a game from a snapshot. Records that could not have
// been produced by a real game are refused.
func RestoreGame(s *Snapshot) (*Game, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	g := &Game{
		board:  &Board{points: s.Points, bar: s.Bar, off: s.Off},
		dice:   NewDice(),
		phase:  s.Phase,
		turn:   s.Turn,
		winner: s.Winner,
	}
	if s.Rolled {
		g.dice.roll1, g.dice.roll2 = s.Roll1, s.Roll2
		g.dice.rolled = true
	}
	if s.Phase == PhaseMove {
		g.ledger = NewLedger(s.Quanta)
	}
	return g, nil
}

func (s *Snapshot) validate() error {
	if s.Phase <= PhaseNotStarted || s.Phase > PhaseGameOver {
		return fmt.Errorf("invalid phase %d", s.Phase)
	}

	for _, side := range []Side{Side1, Side2} {
		if s.Bar[side.index()] < 0 || s.Off[side.index()] < 0 {
			return fmt.Errorf("negative checker count for %s", side)
		}
		total := s.Bar[side.index()] + s.Off[side.index()]
		for point := int8(0); point < BoardPoints; point++ {
			v := s.Points[point]
			if side == Side2 {
				v = -v
			}
			if v > 0 {
				total += v
			}
		}
		if total != CheckersPerSide {
			return fmt.Errorf("%s has %d checkers, want %d", side, total, CheckersPerSide)
		}
	}

	switch s.Turn {
	case SideNone:
		if s.Phase != PhaseInitialRoll {
			return fmt.Errorf("no active side while %s", s.Phase)
		}
	case Side1, Side2:
	default:
		return fmt.Errorf("invalid side %d", s.Turn)
	}

	if s.Phase == PhaseMove {
		if !s.Rolled {
			return fmt.Errorf("move phase without a roll")
		}
		if len(s.Quanta) == 0 || len(s.Quanta) > 4 {
			return fmt.Errorf("move phase with %d quanta", len(s.Quanta))
		}
	} else if len(s.Quanta) != 0 {
		return fmt.Errorf("quanta held while %s", s.Phase)
	}
	if s.Rolled && (s.Roll1 < 1 || s.Roll1 > 6 || s.Roll2 < 1 || s.Roll2 > 6) {
		return fmt.Errorf("invalid roll %d-%d", s.Roll1, s.Roll2)
	}
	for _, q := range s.Quanta {
		if q < 1 || q > 6 {
			return fmt.Errorf("invalid quantum %d", q)
		}
	}

	switch {
	case s.Winner != SideNone && s.Phase != PhaseGameOver:
		return fmt.Errorf("winner set while %s", s.Phase)
	case s.Winner == SideNone && s.Phase == PhaseGameOver:
		return fmt.Errorf("game over without a winner")
	case s.Winner != SideNone && s.Off[s.Winner.index()] != CheckersPerSide:
		return fmt.Errorf("winner %s has not borne off all checkers", s.Winner)
	}
	return nil
}
