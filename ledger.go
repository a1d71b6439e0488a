package tavla

// Ledger holds the unconsumed movement quanta of the active side's current
// turn. It answers whether a distance is payable with one quantum or the sum
// of any two, three or four held quanta, and consumes the quanta that pay a
// distance. It is pure bookkeeping with no knowledge of the board.
//
// When several subsets can pay the same distance the ledger prefers the
// fewest quanta, then the lowest indices, so consumption order is
// deterministic.
type Ledger struct {
	quanta []int8
}

// NewLedger returns a ledger holding the given quanta. The slice is copied.
func NewLedger(quanta []int8) *Ledger {
	held := make([]int8, len(quanta))
	copy(held, quanta)
	return &Ledger{quanta: held}
}

// CanPay reports whether distance can be paid out of the quanta currently
// held. Payability is re-evaluated against the remaining multiset on every
// call; after partial consumption the answer may differ from roll time.
func (l *Ledger) CanPay(distance int8) bool {
	return l.witness(distance) != nil
}

// Pay removes the quanta of the preferred witnessing subset for distance.
// It reports false and consumes nothing when the distance is not payable.
func (l *Ledger) Pay(distance int8) bool {
	w := l.witness(distance)
	if w == nil {
		return false
	}
	// Indices ascend, so remove from the back.
	for i := len(w) - 1; i >= 0; i-- {
		l.quanta = append(l.quanta[:w[i]], l.quanta[w[i]+1:]...)
	}
	return true
}

// Holds reports whether a single held quantum equals distance exactly.
func (l *Ledger) Holds(distance int8) bool {
	for _, q := range l.quanta {
		if q == distance {
			return true
		}
	}
	return false
}

// Remaining returns the count of unconsumed quanta.
func (l *Ledger) Remaining() int {
	return len(l.quanta)
}

// Quanta returns a copy of the unconsumed quanta.
func (l *Ledger) Quanta() []int8 {
	held := make([]int8, len(l.quanta))
	copy(held, l.quanta)
	return held
}

// witness returns the indices of the preferred subset paying distance, or
// nil. Subsets are searched smallest first, then in index order.
func (l *Ledger) witness(distance int8) []int {
	q := l.quanta
	n := len(q)
	for i := 0; i < n; i++ {
		if q[i] == distance {
			return []int{i}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if q[i]+q[j] == distance {
				return []int{i, j}
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if q[i]+q[j]+q[k] == distance {
					return []int{i, j, k}
				}
			}
		}
	}
	if n == 4 && q[0]+q[1]+q[2]+q[3] == distance {
		return []int{0, 1, 2, 3}
	}
	return nil
}
