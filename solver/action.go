package solver

// Action is a player decision. The declaration order is the tie-breaking
// preference order: when two actions have equal EV, the one declared first
// wins, so results are reproducible.
type Action int

const (
	Stand Action = iota
	Hit
	Double
	Split
	Surrender
)

func (a Action) String() string {
	switch a {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	case Double:
		return "double"
	case Split:
		return "split"
	case Surrender:
		return "surrender"
	}
	return "unknown"
}

// Letter returns the single-character chart notation for the action.
func (a Action) Letter() string {
	switch a {
	case Stand:
		return "S"
	case Hit:
		return "H"
	case Double:
		return "D"
	case Split:
		return "P"
	case Surrender:
		return "R"
	}
	return "?"
}

var actionOrder = []Action{Stand, Hit, Double, Split, Surrender}
