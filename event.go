package tavla

// Results returned by engine commands. They carry enough structured detail
// for a presentation layer to react without re-deriving state.

// MoveResult is the outcome of an attempted move, bar entry or bear-off. A
// rejected command reports Moved=false with Reason set and guarantees the
// game is unchanged.
type MoveResult struct {
	Moved     bool   `json:"moved"`
	Hit       bool   `json:"hit"`
	HitSide   Side   `json:"hitSide,omitempty"`
	BorneOff  bool   `json:"borneOff,omitempty"`
	TurnEnded bool   `json:"turnEnded"`
	GameOver  bool   `json:"gameOver"`
	Winner    Side   `json:"winner,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// TurnRoll is the outcome of rolling for a turn. Skipped means the roll left
// the active side without a single legal move and the turn passed with no
// quanta consumed.
type TurnRoll struct {
	Roll1   int8   `json:"roll1"`
	Roll2   int8   `json:"roll2"`
	Quanta  []int8 `json:"quanta"`
	Skipped bool   `json:"skipped"`
}

// InitialRoll is the outcome of the opening roll-off. Rerolls counts the
// tie-breaks that were needed before a side won the draw.
type InitialRoll struct {
	Roll1   int8 `json:"roll1"`
	Roll2   int8 `json:"roll2"`
	Starter Side `json:"starter"`
	Rerolls int  `json:"rerolls"`
}
