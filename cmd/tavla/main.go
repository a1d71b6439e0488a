// Command tavla plays a hotseat game in the terminal. Both players share
// the keyboard; points are entered using the printed 1-24 labels.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/tavlalab/tavla"
)

const helpText = `Commands:
  roll        roll the dice
  move f t    move a checker from point f to point t
  enter t     enter a checker from the bar on point t
  off f       bear off the checker on point f
  moves       list legal moves
  board       print the board
  help        print this help
  quit        abandon the game`

func main() {
	g := tavla.NewGame()

	initial := g.RollInitial()
	fmt.Printf("Opening roll: x %d, o %d", initial.Roll1, initial.Roll2)
	if initial.Rerolls > 0 {
		fmt.Printf(" (after %d tied rolls)", initial.Rerolls)
	}
	fmt.Printf("\n%s begins.\n\n", sideName(initial.Starter))
	fmt.Print(renderBoard(g))

	scanner := bufio.NewScanner(os.Stdin)
	for g.Phase() != tavla.PhaseGameOver {
		fmt.Printf("%s> ", sideName(g.ActiveSide()))
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "roll":
			if g.Phase() != tavla.PhaseRoll {
				fmt.Println("You have already rolled. Play your dice.")
				continue
			}
			roll := g.RollForTurn()
			fmt.Printf("%s rolled %d-%d.\n", sideName(g.ActiveSide()), roll.Roll1, roll.Roll2)
			if roll.Skipped {
				fmt.Println("No legal moves. The turn passes.")
			}
			fmt.Print(renderBoard(g))
		case "move":
			from, to, ok := parsePoints(fields[1:], 2)
			if !ok {
				fmt.Println("Usage: move <from> <to>")
				continue
			}
			if !mustRoll(g) {
				report(g, g.AttemptMove(from, to))
			}
		case "enter":
			to, _, ok := parsePoints(fields[1:], 1)
			if !ok {
				fmt.Println("Usage: enter <point>")
				continue
			}
			if !mustRoll(g) {
				report(g, g.AttemptMove(tavla.SpaceBar, to))
			}
		case "off":
			from, _, ok := parsePoints(fields[1:], 1)
			if !ok {
				fmt.Println("Usage: off <point>")
				continue
			}
			if !mustRoll(g) {
				report(g, g.AttemptBearOff(from))
			}
		case "moves":
			printMoves(g)
		case "board":
			fmt.Print(renderBoard(g))
		case "help":
			fmt.Println(helpText)
		case "quit":
			return
		default:
			fmt.Printf("Unknown command %q. Type help for help.\n", fields[0])
		}
	}

	fmt.Printf("\n%s wins!\n", sideName(g.Winner()))
}

func sideName(side tavla.Side) string {
	switch side {
	case tavla.Side1:
		return "x"
	case tavla.Side2:
		return "o"
	}
	return "nobody"
}

// parsePoints reads up to two 1-based point labels.
func parsePoints(fields []string, want int) (int8, int8, bool) {
	if len(fields) != want {
		return 0, 0, false
	}
	var points [2]int8
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 1 || v > tavla.BoardPoints {
			return 0, 0, false
		}
		points[i] = int8(v - 1)
	}
	return points[0], points[1], true
}

func mustRoll(g *tavla.Game) bool {
	if g.Phase() != tavla.PhaseMove {
		fmt.Println("Roll before moving.")
		return true
	}
	return false
}

func report(g *tavla.Game, result tavla.MoveResult) {
	if !result.Moved {
		fmt.Printf("Refused: %s.\n", result.Reason)
		return
	}
	if result.Hit {
		fmt.Printf("%s is hit!\n", sideName(result.HitSide))
	}
	if result.BorneOff {
		fmt.Println("Borne off.")
	}
	fmt.Print(renderBoard(g))
	if result.GameOver {
		return
	}
	if result.TurnEnded {
		fmt.Printf("It is now %s's turn.\n", sideName(g.ActiveSide()))
	}
}

func printMoves(g *tavla.Game) {
	moves := g.LegalMoves()
	if len(moves) == 0 {
		fmt.Println("No legal moves. Roll first.")
		return
	}
	var buf strings.Builder
	for i, move := range moves {
		if i > 0 {
			buf.WriteString("  ")
		}
		switch {
		case move[0] == tavla.SpaceBar:
			fmt.Fprintf(&buf, "enter %d", move[1]+1)
		case move[1] == tavla.SpaceOff:
			fmt.Fprintf(&buf, "off %d", move[0]+1)
		default:
			fmt.Fprintf(&buf, "move %d %d", move[0]+1, move[1]+1)
		}
	}
	fmt.Println(buf.String())
}
