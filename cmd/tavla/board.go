package main

import (
	"bytes"
	"fmt"
	"strconv"

	"codeberg.org/tavlalab/tavla"
)

var (
	boardTop    = []byte("+-13-14-15-16-17-18-+---+-19-20-21-22-23-24-+")
	boardBottom = []byte("+-12-11-10--9--8--7-+---+--6--5--4--3--2--1-+")
)

// renderSpace draws one cell of a point column. Stacks taller than five
// checkers show their count in the innermost cell.
func renderSpace(owner tavla.Side, count int8, row int8) string {
	if count <= row {
		return "   "
	}

	symbol := sideName(owner)
	if count > 5 && row == 4 {
		if count > 9 {
			symbol = "+"
		} else {
			symbol = strconv.Itoa(int(count))
		}
	}
	return " " + symbol + " "
}

func renderBar(g *tavla.Game, side tavla.Side, row int8) string {
	return renderSpace(side, g.Bar(side), row)
}

func renderBoard(g *tavla.Game) string {
	var t bytes.Buffer

	t.Write(boardTop)
	t.WriteByte('\n')

	// Top half: points 13-24 reading left to right, checkers stacked
	// downward. The bar column shows o's captured checkers.
	for row := int8(0); row < 5; row++ {
		t.WriteByte('|')
		for point := int8(12); point < 18; point++ {
			owner, count := g.Point(point)
			t.WriteString(renderSpace(owner, count, row))
		}
		t.WriteByte('|')
		t.WriteString(renderBar(g, tavla.Side2, row))
		t.WriteByte('|')
		for point := int8(18); point < 24; point++ {
			owner, count := g.Point(point)
			t.WriteString(renderSpace(owner, count, row))
		}
		t.WriteByte('|')
		t.WriteString(margin(g, row))
		t.WriteByte('\n')
	}

	t.WriteString("|                   |   |                   |\n")

	// Bottom half: points 12-1, checkers stacked upward.
	for row := int8(4); row >= 0; row-- {
		t.WriteByte('|')
		for point := int8(11); point > 5; point-- {
			owner, count := g.Point(point)
			t.WriteString(renderSpace(owner, count, row))
		}
		t.WriteByte('|')
		t.WriteString(renderBar(g, tavla.Side1, row))
		t.WriteByte('|')
		for point := int8(5); point >= 0; point-- {
			owner, count := g.Point(point)
			t.WriteString(renderSpace(owner, count, row))
		}
		t.WriteByte('|')
		t.WriteString(margin(g, 9-row))
		t.WriteByte('\n')
	}

	t.Write(boardBottom)
	t.WriteByte('\n')

	return t.String()
}

// margin annotates the right edge with off counts and the current roll.
func margin(g *tavla.Game, row int8) string {
	switch row {
	case 0:
		if off := g.Off(tavla.Side2); off > 0 {
			return fmt.Sprintf("  o %d off", off)
		}
	case 2:
		if roll1, roll2, ok := g.LastRoll(); ok && g.Phase() == tavla.PhaseMove {
			return fmt.Sprintf("  %s rolled %d-%d", sideName(g.ActiveSide()), roll1, roll2)
		}
	case 7:
		quanta := g.Quanta()
		if len(quanta) > 0 {
			s := "  dice left:"
			for _, q := range quanta {
				s += fmt.Sprintf(" %d", q)
			}
			return s
		}
	case 9:
		if off := g.Off(tavla.Side1); off > 0 {
			return fmt.Sprintf("  x %d off", off)
		}
	}
	return ""
}
