package sat

import "testing"

func TestNewClause_tautologyDropped(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 1)

	c, ok := NewClause(s, []Literal{lit(v[0], true), lit(v[0], false)}, false)
	if c != nil {
		t.Errorf("NewClause() returned a clause for a tautology, want nil")
	}
	if !ok {
		t.Errorf("NewClause() ok = false, want true for a tautology")
	}
}

func TestNewClause_duplicateLiteralsDropped(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 2)

	c, ok := NewClause(s, []Literal{
		lit(v[0], true), lit(v[1], true), lit(v[0], true),
	}, false)
	if !ok || c == nil {
		t.Fatalf("NewClause(): unexpected ok=%v c=%v", ok, c)
	}
	if len(c.literals) != 2 {
		t.Errorf("len(c.literals) = %d, want 2", len(c.literals))
	}
}

func TestNewClause_emptyClauseIsUnsat(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 1)
	if err := s.AddClause([]Literal{lit(v[0], true)}); err != nil {
		t.Fatalf("AddClause: %s", err)
	}
	s.Propagate() // Simplify requires an empty propagation queue.
	s.Simplify()

	// A clause containing only the now-false literal simplifies to empty.
	_, ok := NewClause(s, []Literal{lit(v[0], false)}, false)
	if ok {
		t.Errorf("NewClause() ok = true for an empty clause, want false")
	}
}

func TestClause_lockedPreventsRemoval(t *testing.T) {
	s := newTestSolver()
	v := addVars(s, 2)

	c, ok := NewClause(s, []Literal{lit(v[0], true), lit(v[1], true)}, true)
	if !ok || c == nil {
		t.Fatalf("NewClause(): unexpected ok=%v c=%v", ok, c)
	}

	if c.locked(s) {
		t.Errorf("locked() = true before the clause is any variable's antecedent")
	}
	s.reason[v[0]] = c
	if !c.locked(s) {
		t.Errorf("locked() = false once the clause is variable 0's antecedent")
	}
}
