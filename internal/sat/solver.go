package sat

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// Solver is a CDCL SAT solver over clauses of Literal. Create one with
// NewSolver or NewDefaultSolver, declare variables with AddVariable, load
// clauses with AddClause, then call Solve.
//
// A Solver is single-threaded with respect to its own state (spec.md §5):
// all of AddVariable, AddClause, and Solve must be called from the same
// goroutine. The only cross-goroutine interaction point is Cancel, which
// may be called from any goroutine to request early termination.
type Solver struct {
	// Clause database.
	constraints []*Clause
	learnts     []*Clause
	clauseInc   float64
	clauseDecay float64

	// tau1/tau2 are the activity thresholds ReduceDB uses to decide
	// whether an "old" or "young" learnt clause (spec.md §4.6) is worth
	// evicting. tau2 defaults to 7 per spec; tau1 is configurable.
	tau1 float64
	tau2 float64

	// Variable ordering.
	heuristic Heuristic

	// Propagation and watchers.
	watchers  [][]watcher
	propQueue *Queue[Literal]

	// Value assigned to each literal.
	assigns []LBool

	// Trail.
	trail    []Literal
	trailLim []int
	reason   []*Clause
	level    []int

	// Whether the problem has reached a top level conflict.
	unsat bool

	// Search statistics.
	TotalConflicts    int64
	TotalRestarts     int64
	TotalIterations   int64
	TotalPropagations int64
	startTime         time.Time

	// Stop conditions.
	hasStopCond bool
	maxConflict int64
	timeout     time.Duration
	cancelled   atomic.Bool

	// Models.
	Models [][]bool

	// Shared by operations that need to put variables in a set and empty
	// that set efficiently.
	seenVar   *ResetSet
	seenLevel *ResetSet

	// Temporary slice used in Propagate, re-used across calls to avoid
	// allocating a new slice every time.
	tmpWatchers []watcher

	// Temporary slice used in analyze to accumulate literals before these
	// are used to create a new learnt clause.
	tmpLearnts []Literal

	// Used by clauses to explain themselves during conflict analysis.
	tmpReason []Literal

	// Occurrence lists for the optional, non-incrementally-maintained
	// heuristics (DLIS/DLCS/MOM/Jeroslow-Wang, see heuristics.go). Only
	// original (non-learnt) clauses are tracked.
	occPos [][]*Clause
	occNeg [][]*Clause

	// Verbose enables the periodic search-progress banner on stdout, as
	// in the teacher's original CLI.
	Verbose bool
}

// watcher represents a clause attached to the watch list of a literal.
type watcher struct {
	// The watching clause to be propagated when the watched literal becomes
	// true.
	clause *Clause

	// Guard is one of the clause's literals. If it is true, then there is
	// no need to propagate the clause. Note that the guard literal must be
	// different from the watcher literal.
	guard Literal
}

// Options configures a Solver. See DefaultOptions for the spec's defaults.
type Options struct {
	ClauseDecay   float64
	VariableDecay float64
	MaxConflicts  int64
	Timeout       time.Duration
	PhaseSaving   bool

	// Heuristic names the decision heuristic: "vsids" (default), "static",
	// or one of the optional variants "dlis", "dlcs", "mom", "jw" (spec.md
	// §4.5).
	Heuristic string

	// ReduceDBTau1 is the activity threshold under which an "old" learnt
	// clause (spec.md §4.6) becomes eligible for eviction. There is no
	// single universally-right constant; 1e-30 lets clauses survive many
	// decay cycles before be coming candidates.
	ReduceDBTau1 float64
}

var DefaultOptions = Options{
	ClauseDecay:   0.999,
	VariableDecay: 0.95,
	MaxConflicts:  -1,
	Timeout:       -1,
	PhaseSaving:   false,
	Heuristic:     "vsids",
	ReduceDBTau1:  1e-30,
}

// NewDefaultSolver returns a solver configured with default options. This is
// equivalent to calling NewSolver with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

func NewSolver(ops Options) *Solver {
	s := &Solver{
		clauseDecay: ops.ClauseDecay,
		clauseInc:   1,
		tau1:        ops.ReduceDBTau1,
		tau2:        7,
		heuristic:   NewHeuristic(ops.Heuristic, ops.VariableDecay, ops.PhaseSaving),
		propQueue:   NewQueue[Literal](128),
		maxConflict: -1,
		timeout:     -1,
		seenVar:     &ResetSet{},
		seenLevel:   &ResetSet{},
	}

	if ops.MaxConflicts >= 0 {
		s.hasStopCond = true
		s.maxConflict = ops.MaxConflicts
	}
	if ops.Timeout >= 0 {
		s.hasStopCond = true
		s.timeout = ops.Timeout
	}

	return s
}

// Cancel requests that the solver stop at its next decision point and
// report sat.Unknown. It is the single safe cross-goroutine entry point
// (spec.md §5): a "single shared, atomic, write-once Boolean flag". It is
// idempotent and may be called from any goroutine, including one driven by
// a timer for per-instance timeouts (see internal/bench).
func (s *Solver) Cancel() {
	s.cancelled.Store(true)
}

func (s *Solver) shouldStop() bool {
	if s.cancelled.Load() {
		return true
	}
	if !s.hasStopCond {
		return false
	}
	if s.maxConflict >= 0 && s.maxConflict <= s.TotalConflicts {
		return true
	}
	if s.timeout >= 0 && s.timeout <= time.Since(s.startTime) {
		return true
	}
	return false
}

func (s *Solver) PositiveLiteral(varID int) Literal {
	return PositiveLiteral(varID)
}

func (s *Solver) NegativeLiteral(varID int) Literal {
	return NegativeLiteral(varID)
}

func (s *Solver) NumVariables() int {
	return len(s.assigns) / 2
}

func (s *Solver) NumAssigns() int {
	return len(s.trail)
}

func (s *Solver) NumConstraints() int {
	return len(s.constraints)
}

func (s *Solver) NumLearnts() int {
	return len(s.learnts)
}

func (s *Solver) VarValue(x int) LBool {
	return s.assigns[PositiveLiteral(x)]
}

func (s *Solver) LitValue(l Literal) LBool {
	return s.assigns[l]
}

// AddVariable declares a new Boolean variable and returns its 0-based ID.
func (s *Solver) AddVariable() int {
	index := s.NumVariables()
	s.watchers = append(s.watchers, nil)
	s.watchers = append(s.watchers, nil)
	s.reason = append(s.reason, nil)
	s.seenVar.Expand()
	s.seenLevel.Expand()

	// One for each literal.
	s.assigns = append(s.assigns, Unknown)
	s.assigns = append(s.assigns, Unknown)

	s.level = append(s.level, -1)
	s.heuristic.AddVar(true)

	s.occPos = append(s.occPos, nil)
	s.occNeg = append(s.occNeg, nil)

	return index
}

// Watch registers clause c to be awoken when Literal watch is assigned true.
func (s *Solver) Watch(c *Clause, watch Literal, guard Literal) {
	s.watchers[watch] = append(s.watchers[watch], watcher{
		clause: c,
		guard:  guard,
	})
}

// Unwatch removes clause c from the list of watchers of watch.
func (s *Solver) Unwatch(c *Clause, watch Literal) {
	j := 0
	for i := 0; i < len(s.watchers[watch]); i++ {
		if s.watchers[watch][i].clause != c {
			s.watchers[watch][j] = s.watchers[watch][i]
			j++
		}
	}
	s.watchers[watch] = s.watchers[watch][:j]
}

func (s *Solver) addOccurrences(c *Clause) {
	if c.isLearnt() {
		return
	}
	for _, l := range c.literals {
		v := l.VarID()
		if l.IsPositive() {
			s.occPos[v] = append(s.occPos[v], c)
		} else {
			s.occNeg[v] = append(s.occNeg[v], c)
		}
	}
}

func (s *Solver) removeOccurrences(c *Clause) {
	if c.isLearnt() {
		return
	}
	for _, l := range c.literals {
		v := l.VarID()
		occ := s.occPos[v]
		if !l.IsPositive() {
			occ = s.occNeg[v]
		}
		for i, cc := range occ {
			if cc == c {
				occ[i] = occ[len(occ)-1]
				occ = occ[:len(occ)-1]
				break
			}
		}
		if l.IsPositive() {
			s.occPos[v] = occ
		} else {
			s.occNeg[v] = occ
		}
	}
}

// clauseSatisfied reports whether any literal of c is currently true.
func (s *Solver) clauseSatisfied(c *Clause) bool {
	for _, l := range c.literals {
		if s.LitValue(l) == True {
			return true
		}
	}
	return false
}

// minActiveClauseSize returns the size of the smallest original clause
// that is not yet satisfied, used by the MOM heuristic. Returns 0 if every
// original clause is satisfied.
func (s *Solver) minActiveClauseSize() int {
	min := -1
	for _, c := range s.constraints {
		if c.isDeleted() || s.clauseSatisfied(c) {
			continue
		}
		if min == -1 || len(c.literals) < min {
			min = len(c.literals)
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// occurrenceCounts returns the number of currently-unsatisfied original
// clauses in which variable v occurs positively (pos) and negatively
// (neg). If minSize > 0, only clauses of that exact size are counted
// (used by MOM). If jw is true, each occurrence contributes 2^-size(c)
// instead of 1 (used by Jeroslow-Wang).
func (s *Solver) occurrenceCounts(v int, minSize int, jw bool) (pos, neg float64) {
	count := func(occ []*Clause) float64 {
		var total float64
		for _, c := range occ {
			if c.isDeleted() || s.clauseSatisfied(c) {
				continue
			}
			if minSize > 0 && len(c.literals) != minSize {
				continue
			}
			if jw {
				total += jwWeight(len(c.literals))
				continue
			}
			total++
		}
		return total
	}
	return count(s.occPos[v]), count(s.occNeg[v])
}

func jwWeight(size int) float64 {
	w := 1.0
	for i := 0; i < size; i++ {
		w /= 2
	}
	return w
}

func (s *Solver) AddClause(clause []Literal) error {
	if s.decisionLevel() != 0 {
		return fmt.Errorf("can only add clauses at the root level")
	}
	c, ok := NewClause(s, clause, false)
	if c != nil {
		s.constraints = append(s.constraints, c)
	}
	if !ok {
		s.unsat = true
	}

	return nil
}

// Simplify simplifies the clause DB as well as the problem clauses according
// to the root-level assignments. Clauses that are satisfied at the root-level
// are removed.
func (s *Solver) Simplify() bool {
	if l := s.decisionLevel(); l != 0 {
		log.Fatalf("Simplify called on non root-level: %d", l)
	}
	if s.propQueue.Size() != 0 {
		log.Fatal("propQueue should be empty when calling simplify")
	}

	if s.unsat || s.Propagate() != nil {
		s.unsat = true
		return false
	}

	s.simplifyPtr(&s.learnts)
	s.simplifyPtr(&s.constraints) // could be turned off

	return true
}

// simplifyPtr simplifies the clauses in the given slice and removes clauses
// that are already satisfied.
func (s *Solver) simplifyPtr(clausesPtr *[]*Clause) {
	clauses := *clausesPtr
	j := 0
	for i := 0; i < len(clauses); i++ {
		if clauses[i].Simplify(s) {
			clauses[i].Remove(s)
		} else {
			clauses[j] = clauses[i]
			j++
		}
	}
	*clausesPtr = clauses[:j]
}

// ReduceDB evicts low-value learnt clauses per spec.md §4.6: the learnt
// region is split into an "old" prefix (the earliest 1/16 by insertion
// order) and a "young" remainder. An old clause is evicted if its activity
// is at most tau1 and its length exceeds 8; a young clause is evicted if
// its activity is at most tau2 (7 by default) and its length exceeds 42.
// A clause that is currently somebody's antecedent on the trail is never
// evicted, regardless of activity or length.
func (s *Solver) ReduceDB() {
	n := len(s.learnts)
	if n == 0 {
		return
	}
	oldBoundary := n / 16

	j := 0
	for i := 0; i < n; i++ {
		c := s.learnts[i]
		if c.locked(s) || c.isProtected() {
			s.learnts[j] = c
			j++
			continue
		}

		threshold, minLen := s.tau2, 42
		if i < oldBoundary {
			threshold, minLen = s.tau1, 8
		}

		if c.activity <= threshold && len(c.literals) > minLen {
			c.Remove(s)
			continue
		}
		s.learnts[j] = c
		j++
	}
	s.learnts = s.learnts[:j]
}

func (s *Solver) decisionLevel() int {
	return len(s.trailLim)
}

// Solve runs the search driver (spec.md §4.7) to completion: it returns
// True, False, or Unknown (on cancellation or resource-limit cutoff). It
// restarts with geometrically growing conflict and learnt-clause budgets
// between restarts, the default the teacher's source used and spec.md §9
// allows as "a defensible default."
func (s *Solver) Solve() LBool {
	numConflicts := 100
	numLearnts := s.NumConstraints() / 3
	status := Unknown
	s.startTime = time.Now()

	if s.Verbose {
		s.printSeparator()
		s.printSearchHeader()
		s.printSeparator()
	}

	for status == Unknown {
		status = s.Search(numConflicts, numLearnts)
		numConflicts += numConflicts / 10
		numLearnts += numLearnts / 20

		if s.shouldStop() {
			break
		}
	}

	if s.Verbose {
		s.printSearchStats()
		s.printSeparator()
	}

	s.cancelUntil(0)
	return status
}

func (s *Solver) BumpClaActivity(c *Clause) {
	c.activity += s.clauseInc

	if c.activity > 1e100 {
		s.clauseInc *= 1e-100 // important to keep proportions
		for _, l := range s.learnts {
			l.activity *= 1e-100
		}
	}
}

func (s *Solver) DecayClaActivity() {
	s.clauseInc *= s.clauseDecay
}

// Propagate drives unit propagation (spec.md §4.1) until the queue is
// empty (quiescent, returns nil) or some clause is falsified (conflict,
// returns that clause).
func (s *Solver) Propagate() *Clause {
	for s.propQueue.Size() > 0 {
		l := s.propQueue.Pop()
		s.TotalPropagations++

		s.tmpWatchers = s.tmpWatchers[:0]
		s.tmpWatchers = append(s.tmpWatchers, s.watchers[l]...)
		s.watchers[l] = s.watchers[l][:0]

		for i, w := range s.tmpWatchers {
			// No need to propagate the clause if its guard is true. This
			// block isn't necessary for correctness, but avoids loading
			// (and potentially repositioning the watch of) a clause that
			// doesn't need to be propagated. It does alter the order in
			// which clauses are propagated and so can yield different
			// conflict analyses and learnt clauses than a naive scan
			// would, which spec.md §4.1 explicitly permits ("clauses
			// inside a watch list may be visited in any order").
			if s.LitValue(w.guard) == True {
				s.watchers[l] = append(s.watchers[l], w)
				continue
			}

			if w.clause.Propagate(s, l) {
				continue
			}

			// Constraint is conflicting: copy the remaining watchers back
			// and return the constraint.
			s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
			s.propQueue.Clear()
			return s.tmpWatchers[i].clause
		}
	}

	return nil
}

func (s *Solver) enqueue(l Literal, from *Clause) bool {
	switch v := s.LitValue(l); v {
	case False:
		return false // conflicting assignment
	case True:
		return true // already assigned
	default:
		// New fact, store it.
		varID := l.VarID()
		s.assigns[l] = True
		s.assigns[l.Opposite()] = False
		s.level[varID] = s.decisionLevel()
		s.reason[varID] = from
		s.trail = append(s.trail, l)
		s.propQueue.Push(l)
		return true
	}
}

// analyze derives an asserting learnt clause and a backjump level from the
// conflict clause confl (spec.md §4.3). It performs a full first-UIP cut:
// traversal of antecedents stops as soon as exactly one literal from the
// current decision level remains unresolved, which is always at least as
// good as the "stop only at decisions" floor spec.md §4.3 requires and is
// explicitly allowed as an upgrade.
func (s *Solver) analyze(confl *Clause) ([]Literal, int) {
	// Current number of "implication" nodes encountered in the exploration
	// of the current decision level. A value of 0 indicates the
	// exploration has reached a single implication point (1UIP).
	nImplicationPoints := 0

	// Reserve the first slot of the learnt clause for the asserting
	// literal, set once the loop below terminates.
	s.tmpLearnts = s.tmpLearnts[:0]
	s.tmpLearnts = append(s.tmpLearnts, -1)

	// Next (unprocessed) position in the trail, walked backwards without
	// undoing any assignment.
	nextLiteral := len(s.trail) - 1

	var l Literal = -1 // the literal currently being resolved on
	s.seenVar.Clear()
	backtrackLevel := 0
	explainingConflict := true

	for {
		var reasons []Literal
		if explainingConflict {
			reasons = confl.ExplainFailure(s)
			explainingConflict = false
		} else {
			reasons = confl.ExplainAssign(s)
		}

		for _, q := range reasons {
			v := q.VarID()
			if s.seenVar.Contains(v) {
				continue
			}
			s.seenVar.Add(v)
			s.heuristic.BumpScore(v)

			if s.level[v] == s.decisionLevel() {
				nImplicationPoints++
				continue
			}

			s.tmpLearnts = append(s.tmpLearnts, q.Opposite())
			if level := s.level[v]; level > backtrackLevel {
				backtrackLevel = level
			}
		}

		// Select the next literal to resolve on: walk the trail backwards
		// until we find one that was marked seen.
		for {
			l = s.trail[nextLiteral]
			nextLiteral--
			v := l.VarID()
			confl = s.reason[v]
			if s.seenVar.Contains(v) {
				break
			}
		}

		nImplicationPoints--
		if nImplicationPoints <= 0 {
			break
		}
	}

	// l is now the first-UIP; its negation asserts the learnt clause.
	s.tmpLearnts[0] = l.Opposite()

	return s.tmpLearnts, backtrackLevel
}

// record installs a just-learnt clause and immediately enqueues its
// asserting literal, which spec.md §4.4 guarantees is unit at the
// backjump level reached just before record is called.
func (s *Solver) record(clause []Literal) {
	c, _ := NewClause(s, clause, true)
	s.enqueue(clause[0], c)
	if c != nil {
		s.learnts = append(s.learnts, c)
	}
}

// Search runs the decide/propagate/analyze/backjump state machine
// (spec.md §4.7) until a restart boundary (nConflicts conflicts since the
// last restart), a terminal result, or cancellation.
func (s *Solver) Search(nConflicts int, nLearnts int) LBool {
	if s.unsat {
		return False
	}

	s.TotalRestarts++
	conflictCount := 0

	for !s.shouldStop() {
		if s.Verbose && s.TotalIterations%10000 == 0 {
			s.printSearchStats()
		}
		s.TotalIterations++

		if conflict := s.Propagate(); conflict != nil {
			conflictCount++
			s.TotalConflicts++

			if s.decisionLevel() == 0 {
				s.unsat = true
				return False
			}

			learntClause, backtrackLevel := s.analyze(conflict)
			s.cancelUntil(backtrackLevel)

			s.record(learntClause)

			s.DecayClaActivity()
			s.heuristic.DecayScores()

			continue
		}

		// No conflict.
		// ------------

		if s.decisionLevel() == 0 {
			s.Simplify()
		}

		if len(s.learnts)-s.NumAssigns() >= nLearnts {
			s.ReduceDB()
		}

		if s.NumAssigns() == s.NumVariables() { // solution found
			s.saveModel()
			s.cancelUntil(0)
			return True
		}

		if conflictCount > nConflicts {
			s.cancelUntil(0)
			return Unknown
		}

		// Cancellation is observed once per decision (spec.md §5).
		if s.shouldStop() {
			s.cancelUntil(0)
			return Unknown
		}

		l := s.heuristic.NextDecision(s)
		s.assume(l)
	}

	return Unknown
}

func (s *Solver) undoOne() {
	l := s.trail[len(s.trail)-1]
	v := l.VarID()

	val := s.assigns[l]
	s.assigns[l] = Unknown
	s.assigns[l.Opposite()] = Unknown
	s.reason[v] = nil
	s.level[v] = -1
	s.heuristic.Reinsert(v, val)

	s.trail = s.trail[:len(s.trail)-1]
}

func (s *Solver) assume(l Literal) bool {
	s.trailLim = append(s.trailLim, len(s.trail))
	return s.enqueue(l, nil)
}

func (s *Solver) cancel() {
	c := len(s.trail) - s.trailLim[len(s.trailLim)-1]
	for ; c != 0; c-- {
		s.undoOne()
	}
	s.trailLim = s.trailLim[:len(s.trailLim)-1]
}

// cancelUntil pops the trail back to the given decision level (spec.md
// §4.4): this is pure bookkeeping, never recursion, so backtracking has no
// call-stack depth limit (spec.md §9, "Trail vs. call stack").
func (s *Solver) cancelUntil(level int) {
	for s.decisionLevel() > level {
		s.cancel()
	}
}

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVariables())
	for i := range model {
		lb := s.VarValue(i)
		if lb == Unknown {
			log.Fatal("internal invariant violation: saveModel called with an unassigned variable")
		}
		model[i] = lb == True
	}
	s.Models = append(s.Models, model)
}

func (s *Solver) printSeparator() {
	fmt.Println("c ---------------------------------------------------------------------------")
}

func (s *Solver) printSearchHeader() {
	fmt.Println("c            time     iterations      conflicts       restarts        learnts")
}

func (s *Solver) printSearchStats() {
	fmt.Printf(
		"c %14.3fs %14d %14d %14d %14d\n",
		time.Since(s.startTime).Seconds(),
		s.TotalIterations,
		s.TotalConflicts,
		s.TotalRestarts,
		len(s.learnts))
}
