// Package tavla implements the rules core of a two-side board game in the
// backgammon family: authoritative board state, dice, the per-turn move
// ledger and the turn state machine. Rendering, input parsing and
// persistence are collaborators that drive the engine through its command
// surface and read its queries; the engine itself never blocks and performs
// no I/O.
package tavla

import "fmt"

// Phase is the engine's position in the turn state machine. The zero value
// is PhaseNotStarted, so mutating a zero Game fails loudly.
type Phase int8

const (
	PhaseNotStarted Phase = iota
	PhaseInitialRoll
	PhaseRoll
	PhaseMove
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseInitialRoll:
		return "awaiting initial roll"
	case PhaseRoll:
		return "awaiting roll"
	case PhaseMove:
		return "awaiting move"
	case PhaseGameOver:
		return "game over"
	}
	return fmt.Sprintf("phase(%d)", int8(p))
}

// initialRollCap bounds the opening tie-break loop. A tie resolves with
// probability 5/6 per round, so reaching the cap indicates a broken
// randomness source.
const initialRollCap = 4096

// Game sequences turns: initial roll, per-turn roll, zero or more validated
// moves consuming the ledger, automatic turn end and side switch, until a
// side bears off all fifteen checkers. Exactly one caller may invoke
// commands at a time; the engine performs no locking.
type Game struct {
	board  *Board
	dice   *Dice
	ledger *Ledger
	phase  Phase
	turn   Side
	winner Side
}

// NewGame returns a game with the standard starting layout applied, awaiting
// the initial roll.
func NewGame() *Game {
	return &Game{
		board: NewBoard(),
		dice:  NewDice(),
		phase: PhaseInitialRoll,
	}
}

// ensure panics unless the engine is in the given phase. Correct callers
// never trigger this; it guards programmer errors, not player input.
func (g *Game) ensure(phase Phase, op string) {
	if g.phase != phase {
		panic(fmt.Sprintf("tavla: %s invoked while %s", op, g.phase))
	}
}

func rejected(reason string) MoveResult {
	return MoveResult{Reason: reason}
}

func validPoint(point int8) bool {
	return point >= 0 && point < BoardPoints
}

// RollInitial draws one die per side until the tie is broken and returns the
// decisive rolls along with the starting side.
func (g *Game) RollInitial() InitialRoll {
	g.ensure(PhaseInitialRoll, "RollInitial")
	for i := 0; i < initialRollCap; i++ {
		r1, r2 := g.dice.InitialRoll()
		if starter := HigherInitialRoller(r1, r2); starter != SideNone {
			g.turn = starter
			g.phase = PhaseRoll
			return InitialRoll{Roll1: r1, Roll2: r2, Starter: starter, Rerolls: i}
		}
	}
	panic("tavla: initial roll tie-break never resolved")
}

// RollForTurn rolls for the active side and seeds its ledger. When the roll
// leaves the side without a legal move the turn is skipped immediately and
// play passes to the opponent.
func (g *Game) RollForTurn() TurnRoll {
	g.ensure(PhaseRoll, "RollForTurn")
	r1, r2 := g.dice.Roll()
	g.ledger = NewLedger(g.dice.MovesFor())
	g.phase = PhaseMove

	roll := TurnRoll{Roll1: r1, Roll2: r2, Quanta: g.ledger.Quanta()}
	if len(g.LegalMoves()) == 0 {
		g.endTurn()
		roll.Skipped = true
	}
	return roll
}

// AttemptMove moves a checker of the active side from one point to another,
// or enters from the bar when from is SpaceBar. Rule violations are reported
// in the result and never mutate state.
func (g *Game) AttemptMove(from int8, to int8) MoveResult {
	g.ensure(PhaseMove, "AttemptMove")
	if from == SpaceBar {
		return g.enterFromBar(to)
	}

	side := g.turn
	if !validPoint(from) || !validPoint(to) {
		return rejected("no such point")
	}
	if g.board.Bar(side) != 0 {
		return rejected("checkers on the bar must re-enter first")
	}
	distance := (to - from) * side.Direction()
	if distance <= 0 {
		return rejected("wrong direction of travel")
	}
	if !g.ledger.CanPay(distance) {
		return rejected("remaining dice cannot pay that distance")
	}
	event := g.board.MoveChecker(side, from, to)
	if !event.Moved {
		return rejected("point is blocked or not occupied by you")
	}
	g.ledger.Pay(distance)

	res := MoveResult{Moved: true, Hit: event.Hit, HitSide: event.HitSide}
	g.afterMove(&res)
	return res
}

func (g *Game) enterFromBar(to int8) MoveResult {
	side := g.turn
	if !validPoint(to) {
		return rejected("no such point")
	}
	if g.board.Bar(side) == 0 {
		return rejected("no checkers on the bar")
	}
	lo, hi := side.EntryRange()
	if to < lo || to > hi {
		return rejected("outside your entry range")
	}
	// Entry always consumes a single die.
	distance := side.EntryDistance(to)
	if !g.ledger.Holds(distance) {
		return rejected("no die matches that entry point")
	}
	event := g.board.EnterFromBar(side, to)
	if !event.Moved {
		return rejected("entry point is blocked")
	}
	g.ledger.Pay(distance)

	res := MoveResult{Moved: true, Hit: event.Hit, HitSide: event.HitSide}
	g.afterMove(&res)
	return res
}

// AttemptBearOff bears a checker of the active side off from the given
// point, consuming the exact bear-off distance when payable or the smallest
// strictly larger die when the point is the side's farthest from the edge.
func (g *Game) AttemptBearOff(from int8) MoveResult {
	g.ensure(PhaseMove, "AttemptBearOff")
	side := g.turn
	if !validPoint(from) {
		return rejected("no such point")
	}
	if g.board.Bar(side) != 0 {
		return rejected("checkers on the bar must re-enter first")
	}
	if !g.board.AllInHomeBoard(side) {
		return rejected("all checkers must reach the home board first")
	}
	if g.board.checkers(from, side) == 0 {
		return rejected("no checker to bear off")
	}
	payment, ok := g.bearOffPayment(from)
	if !ok {
		return rejected("remaining dice cannot bear off from that point")
	}
	if !g.board.BearOff(side, from) {
		return rejected("cannot bear off from that point")
	}
	g.ledger.Pay(payment)

	res := MoveResult{Moved: true, BorneOff: true}
	g.afterMove(&res)
	return res
}

// bearOffPayment returns the distance the ledger should pay to bear off from
// the point, or false when no die allows it. The exact distance may be paid
// by a combination; a larger die substitutes only from the farthest occupied
// point and never combines.
func (g *Game) bearOffPayment(from int8) (int8, bool) {
	distance := g.turn.BearOffDistance(from)
	if g.ledger.CanPay(distance) {
		return distance, true
	}
	if !g.board.Farthest(g.turn, from) {
		return 0, false
	}
	var best int8
	for _, q := range g.ledger.Quanta() {
		if q > distance && (best == 0 || q < best) {
			best = q
		}
	}
	return best, best != 0
}

// afterMove settles the turn after an accepted command: a win freezes the
// game, an exhausted ledger or the absence of any further legal move ends
// the turn and switches sides.
func (g *Game) afterMove(res *MoveResult) {
	if winner := g.board.CheckWinner(); winner != SideNone {
		g.winner = winner
		g.ledger = nil
		g.phase = PhaseGameOver
		res.TurnEnded = true
		res.GameOver = true
		res.Winner = winner
		return
	}
	if g.ledger.Remaining() == 0 || len(g.LegalMoves()) == 0 {
		g.endTurn()
		res.TurnEnded = true
	}
}

func (g *Game) endTurn() {
	g.ledger = nil
	g.turn = g.turn.Opponent()
	g.phase = PhaseRoll
}

// LegalMoves enumerates every command the active side could play right now
// as [from, to] pairs, with SpaceBar sources for bar entries and SpaceOff
// destinations for bear-offs. Outside the move phase it returns nil. A side
// with checkers on the bar may only enter.
func (g *Game) LegalMoves() [][2]int8 {
	if g.phase != PhaseMove {
		return nil
	}
	side := g.turn
	var moves [][2]int8

	if g.board.Bar(side) != 0 {
		var seen [7]bool
		for _, q := range g.ledger.Quanta() {
			if seen[q] {
				continue
			}
			seen[q] = true
			point := side.EntryPoint(q)
			if g.board.checkers(point, side.Opponent()) < 2 {
				moves = append(moves, [2]int8{SpaceBar, point})
			}
		}
		return moves
	}

	home := g.board.AllInHomeBoard(side)
	for from := int8(0); from < BoardPoints; from++ {
		if g.board.checkers(from, side) == 0 {
			continue
		}
		dir := side.Direction()
		for to := from + dir; to >= 0 && to < BoardPoints; to += dir {
			distance := (to - from) * dir
			if g.ledger.CanPay(distance) && g.board.IsLegalMove(side, from, to) {
				moves = append(moves, [2]int8{from, to})
			}
		}
		if home {
			if _, ok := g.bearOffPayment(from); ok {
				moves = append(moves, [2]int8{from, SpaceOff})
			}
		}
	}
	return moves
}

// Query surface. All queries are pure and safe in any phase.

// ActiveSide returns the side whose turn it is, or SideNone before the
// initial roll resolves.
func (g *Game) ActiveSide() Side {
	return g.turn
}

func (g *Game) Phase() Phase {
	return g.phase
}

// Winner returns the winning side, or SideNone while the game is live.
func (g *Game) Winner() Side {
	return g.winner
}

// Point returns the owning side and checker count of a point.
func (g *Game) Point(point int8) (Side, int8) {
	return g.board.Point(point)
}

// Bar returns how many of side's checkers await re-entry.
func (g *Game) Bar(side Side) int8 {
	return g.board.Bar(side)
}

// Off returns how many of side's checkers have been borne off.
func (g *Game) Off(side Side) int8 {
	return g.board.Off(side)
}

// RemainingQuanta returns how many movement quanta the active side still
// holds this turn.
func (g *Game) RemainingQuanta() int {
	if g.ledger == nil {
		return 0
	}
	return g.ledger.Remaining()
}

// Quanta returns a copy of the active side's unconsumed quanta, or nil
// outside the move phase.
func (g *Game) Quanta() []int8 {
	if g.ledger == nil {
		return nil
	}
	return g.ledger.Quanta()
}

// LastRoll returns the most recent turn roll. ok is false before any roll.
func (g *Game) LastRoll() (roll1 int8, roll2 int8, ok bool) {
	if !g.dice.Rolled() {
		return 0, 0, false
	}
	roll1, roll2 = g.dice.Faces()
	return roll1, roll2, true
}

// Checkers returns a derived per-checker view for renderers: one entry per
// checker holding its point index, SpaceBar, or SpaceOff. The slice is
// recomputed from board state on every call and is never read back.
func (g *Game) Checkers(side Side) []int8 {
	positions := make([]int8, 0, CheckersPerSide)
	for i := int8(0); i < g.board.Bar(side); i++ {
		positions = append(positions, SpaceBar)
	}
	for point := int8(0); point < BoardPoints; point++ {
		for i := int8(0); i < g.board.checkers(point, side); i++ {
			positions = append(positions, point)
		}
	}
	for i := int8(0); i < g.board.Off(side); i++ {
		positions = append(positions, SpaceOff)
	}
	return positions
}
