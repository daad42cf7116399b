package sat

import (
	"testing"
)

func newTestSolver() *Solver {
	return NewDefaultSolver()
}

func lit(varID int, positive bool) Literal {
	if positive {
		return PositiveLiteral(varID)
	}
	return NegativeLiteral(varID)
}

func addVars(s *Solver, n int) []int {
	vars := make([]int, n)
	for i := range vars {
		vars[i] = s.AddVariable()
	}
	return vars
}

func TestSolve_unitSAT(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}

	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want %s", got, True)
	}
	if s.VarValue(v[0]) != True {
		t.Errorf("variable 0 = %s, want true", s.VarValue(v[0]))
	}
}

func TestSolve_unitUNSAT(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}
	if err := s.AddClause([]Literal{lit(v[0], false)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}

	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want %s", got, False)
	}
}

func TestSolve_threeVarBranching(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 3)
	// (x0 v x1 v x2) & (!x0 v x1) & (!x1 v x2)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true), lit(v[2], true)},
		{lit(v[0], false), lit(v[1], true)},
		{lit(v[1], false), lit(v[2], true)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause: %s", err)
		}
	}

	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want %s", got, True)
	}

	// Every satisfying assignment of this instance has x2 = true. Solve
	// backtracks to the root level, so the model is read from s.Models.
	if model := s.Models[len(s.Models)-1]; !model[v[2]] {
		t.Errorf("x2 = %v, want true", model[v[2]])
	}
}

func TestSolve_pigeonholeUNSAT(t *testing.T) {
	s := newTestSolver()
	// 3 pigeons, 2 holes: var(i, j) = i*2+j for pigeon i in [0,3), hole j
	// in [0,2).
	vars := make([][2]int, 3)
	for i := range vars {
		vars[i] = [2]int{s.AddVariable(), s.AddVariable()}
	}

	for i := 0; i < 3; i++ {
		if err := s.AddClause([]Literal{
			lit(vars[i][0], true),
			lit(vars[i][1], true),
		}); err != nil {
			t.Fatalf("AddClause: %s", err)
		}
	}
	for j := 0; j < 2; j++ {
		for i := 0; i < 3; i++ {
			for k := i + 1; k < 3; k++ {
				if err := s.AddClause([]Literal{
					lit(vars[i][j], false),
					lit(vars[k][j], false),
				}); err != nil {
					t.Fatalf("AddClause: %s", err)
				}
			}
		}
	}

	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want %s", got, False)
	}
}

func TestSolve_implicationChainUNSAT(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 3)

	clauses := [][]Literal{
		{lit(v[0], true)},
		{lit(v[0], false), lit(v[1], true)},
		{lit(v[1], false), lit(v[2], true)},
		{lit(v[2], false), lit(v[0], false)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause: %s", err)
		}
	}

	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want %s", got, False)
	}
}

// TestSolve_watchedLiteralInvariant checks that, after a solve, no
// constraint clause with at least two literals has both of its watched
// literals (the first two) assigned false.
func TestSolve_watchedLiteralInvariant(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 4)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true), lit(v[2], true)},
		{lit(v[0], false), lit(v[3], true)},
		{lit(v[1], false), lit(v[3], true)},
		{lit(v[2], false), lit(v[3], true)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause: %s", err)
		}
	}

	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want %s", got, True)
	}

	for _, c := range s.constraints {
		if c.isDeleted() || len(c.literals) < 2 {
			continue
		}
		w0, w1 := c.literals[0], c.literals[1]
		if s.LitValue(w0) == False && s.LitValue(w1) == False {
			t.Errorf("clause %s has both watched literals false", c)
		}
	}
}

// TestSolve_activitiesNonNegative checks that learnt-clause activities never
// go negative, which
// would indicate a decay or bump-scaling bug (spec.md §4.5).
func TestSolve_activitiesNonNegative(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 5)
	clauses := [][]Literal{
		{lit(v[0], true), lit(v[1], true)},
		{lit(v[1], false), lit(v[2], true)},
		{lit(v[2], false), lit(v[3], true)},
		{lit(v[3], false), lit(v[4], true)},
		{lit(v[0], false), lit(v[4], false)},
		{lit(v[0], true), lit(v[4], true)},
	}
	for _, c := range clauses {
		if err := s.AddClause(c); err != nil {
			t.Fatalf("AddClause: %s", err)
		}
	}
	s.Solve()

	for _, c := range s.learnts {
		if c.activity < 0 {
			t.Errorf("learnt clause %s has negative activity %f", c, c.activity)
		}
	}
}

func TestSolve_heuristics(t *testing.T) {
	for _, name := range []string{"vsids", "static", "dlis", "dlcs", "mom", "jw"} {
		t.Run(name, func(t *testing.T) {
			ops := DefaultOptions
			ops.Heuristic = name
			s := NewSolver(ops)

			v := addVars(s, 3)
			clauses := [][]Literal{
				{lit(v[0], true), lit(v[1], true), lit(v[2], true)},
				{lit(v[0], false), lit(v[1], true)},
				{lit(v[1], false), lit(v[2], true)},
			}
			for _, c := range clauses {
				if err := s.AddClause(c); err != nil {
					t.Fatalf("AddClause: %s", err)
				}
			}

			if got := s.Solve(); got != True {
				t.Errorf("Solve() with heuristic %q = %s, want %s", name, got, True)
			}
		})
	}
}

func TestCancel_reportsUnknown(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}

	s.Cancel()
	if got := s.Solve(); got != Unknown {
		t.Errorf("Solve() after Cancel() = %s, want %s", got, Unknown)
	}
}

func TestReduceDB_neverEvictsLockedClause(t *testing.T) {
	s := newTestSolver()
	// A learnt clause longer than the young-clause eviction threshold (42
	// literals) and with zero activity would ordinarily be the first thing
	// ReduceDB evicts; being locked (some variable's antecedent) must
	// override that.
	v := addVars(s, 50)
	literals := make([]Literal, len(v))
	for i, id := range v {
		literals[i] = lit(id, true)
	}

	c, ok := NewClause(s, literals, true)
	if !ok || c == nil {
		t.Fatalf("NewClause: unexpected ok=%v c=%v", ok, c)
	}
	s.learnts = append(s.learnts, c)
	s.reason[v[0]] = c
	s.level[v[0]] = 1
	c.activity = 0 // as evictable as it gets, but locked

	s.ReduceDB()

	stillPresent := false
	for _, l := range s.learnts {
		if l == c {
			stillPresent = true
		}
	}
	if !stillPresent {
		t.Errorf("ReduceDB() evicted a locked clause")
	}
}
