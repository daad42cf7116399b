package sat

import "math"

// Heuristic selects the next branching variable for the search driver.
// Implementations are treated as an opaque priority source (spec.md §9,
// "Heuristics as a capability"): swapping one in for another must never
// change propagation or learning, only which variable is decided next and
// how quickly a satisfying assignment (if any) is found.
type Heuristic interface {
	// AddVar registers a newly declared variable with its initial phase.
	AddVar(initPhase bool)

	// BumpScore increases v's priority. Called for every variable that
	// participates in conflict analysis (spec.md §4.5).
	BumpScore(v int)

	// DecayScores ages all priorities, called once per conflict so that
	// recently-bumped variables outweigh variables bumped long ago.
	DecayScores()

	// Reinsert makes v a selectable candidate again after it is
	// unassigned (e.g. during backjump), recording val as its saved phase.
	Reinsert(v int, val LBool)

	// NextDecision returns the literal to assign next. The caller
	// guarantees at least one variable is unassigned.
	NextDecision(s *Solver) Literal
}

// NewHeuristic builds the named heuristic. "vsids" is the default,
// incrementally-maintained strategy described in spec.md §4.5; "static"
// is the fixed-index fallback also named there. The remaining names
// ("dlis", "dlcs", "mom", "jw") are the optional, not-incrementally
// maintained variants spec.md §4.5 and §9 mark as optional; they
// recompute their score from the solver's occurrence lists on every
// decision and so are best suited to small instances or to comparative
// benchmarking rather than to the default search path.
func NewHeuristic(name string, varDecay float64, phaseSaving bool) Heuristic {
	switch name {
	case "", "vsids":
		return NewVSIDS(varDecay, phaseSaving)
	case "static":
		return &Static{}
	case "dlis":
		return &occurrenceHeuristic{kind: heurDLIS}
	case "dlcs":
		return &occurrenceHeuristic{kind: heurDLCS}
	case "mom":
		return &occurrenceHeuristic{kind: heurMOM}
	case "jw":
		return &occurrenceHeuristic{kind: heurJW}
	default:
		return NewVSIDS(varDecay, phaseSaving)
	}
}

// VSIDS wraps a VarOrder (spec.md §4.5's dynamic, activity-decaying
// heuristic) behind the Heuristic interface.
type VSIDS struct {
	order *VarOrder
}

// NewVSIDS returns a VSIDS heuristic with the given decay factor
// (0 < decay < 1; spec.md §4.5 specifies 0.95) and phase-saving policy.
func NewVSIDS(decay float64, phaseSaving bool) *VSIDS {
	return &VSIDS{order: NewVarOrder(decay, phaseSaving)}
}

func (h *VSIDS) AddVar(initPhase bool)         { h.order.AddVar(0, initPhase) }
func (h *VSIDS) BumpScore(v int)               { h.order.BumpScore(v) }
func (h *VSIDS) DecayScores()                  { h.order.DecayScores() }
func (h *VSIDS) Reinsert(v int, val LBool)     { h.order.Reinsert(v, val) }
func (h *VSIDS) NextDecision(s *Solver) Literal { return h.order.NextDecision(s) }

// Static implements spec.md §4.5's "fixed variable order determined once
// at the start": the lowest-indexed unassigned variable is always chosen,
// defaulting to the True polarity. BumpScore/DecayScores/Reinsert are
// no-ops; Static never reorders.
type Static struct {
	numVars int
}

func (h *Static) AddVar(initPhase bool) { h.numVars++ }
func (h *Static) BumpScore(v int)       {}
func (h *Static) DecayScores()          {}
func (h *Static) Reinsert(v int, val LBool) {}

func (h *Static) NextDecision(s *Solver) Literal {
	for v := 0; v < h.numVars; v++ {
		if s.VarValue(v) == Unknown {
			return PositiveLiteral(v)
		}
	}
	panic("NextDecision called with no unassigned variable")
}

type heuristicKind int

const (
	heurDLIS heuristicKind = iota
	heurDLCS
	heurMOM
	heurJW
)

// occurrenceHeuristic implements the optional DLIS/DLCS/MOM/Jeroslow-Wang
// variable-selection rules of spec.md §4.5. Unlike VSIDS, none of these
// are incrementally maintained: each NextDecision call rescans the
// occurrence lists built from the original clauses (see
// Solver.addOccurrences), which is only practical on modest instances.
type occurrenceHeuristic struct {
	kind    heuristicKind
	numVars int
}

func (h *occurrenceHeuristic) AddVar(initPhase bool) { h.numVars++ }
func (h *occurrenceHeuristic) BumpScore(v int)       {}
func (h *occurrenceHeuristic) DecayScores()          {}
func (h *occurrenceHeuristic) Reinsert(v int, val LBool) {}

func (h *occurrenceHeuristic) NextDecision(s *Solver) Literal {
	minClauseSize := 0
	if h.kind == heurMOM {
		minClauseSize = s.minActiveClauseSize()
	}

	bestVar := -1
	bestScore := math.Inf(-1)
	bestPositive := true

	for v := 0; v < h.numVars; v++ {
		if s.VarValue(v) != Unknown {
			continue
		}

		pos, neg := s.occurrenceCounts(v, minClauseSize, h.kind == heurJW)
		var score float64
		var positive bool

		switch h.kind {
		case heurDLIS:
			if pos >= neg {
				score, positive = pos, true
			} else {
				score, positive = neg, false
			}
		case heurDLCS, heurMOM:
			score = pos + neg
			positive = pos >= neg
		case heurJW:
			score = pos + neg
			positive = pos >= neg
		}

		if bestVar == -1 || score > bestScore {
			bestVar, bestScore, bestPositive = v, score, positive
		}
	}

	if bestVar == -1 {
		panic("NextDecision called with no unassigned variable")
	}
	if bestPositive {
		return PositiveLiteral(bestVar)
	}
	return NegativeLiteral(bestVar)
}
