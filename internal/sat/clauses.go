package sat

import (
	"strings"
)

// status is a bitmask of auxiliary clause properties.
type status uint8

const (
	statusDeleted   status = 0b001
	statusLearnt    status = 0b010
	statusProtected status = 0b100
)

// Clause holds a disjunction of literals plus the bookkeeping the solver
// needs to maintain the two-watched-literal invariant and, for learnt
// clauses, to judge whether the clause is worth keeping.
type Clause struct {
	activity float64

	// The clause's literals. The first two are always the watched pair
	// (see Propagate). The slice is nil once the clause has been deleted.
	literals []Literal

	// Position in literals from which the next search for a replacement
	// watch resumes. Speeds up Propagate on long clauses by avoiding a
	// rescan from the start every time. Always in [2, len(literals)-1]
	// when valid; reset to 2 if it falls out of range.
	prevPos int

	// Literal block distance, an estimate of how useful a learnt clause
	// is: the number of distinct decision levels among its literals.
	// Lower is better. Computed once at creation time.
	lbd uint32

	statusMask status
}

func (c *Clause) isDeleted() bool   { return c.statusMask&statusDeleted != 0 }
func (c *Clause) isLearnt() bool    { return c.statusMask&statusLearnt != 0 }
func (c *Clause) isProtected() bool { return c.statusMask&statusProtected != 0 }

func (c *Clause) setProtected()   { c.statusMask |= statusProtected }
func (c *Clause) setUnprotected() { c.statusMask &^= statusProtected }

// NewClause builds and attaches a new clause to the solver. For original
// (non-learnt) clauses it also performs the spec's input normalization:
// duplicate literals are dropped, and a clause containing both a literal
// and its negation is recognized as a tautology and discarded (ok=true,
// c=nil). The second return value is false only when the clause is
// unsatisfiable on its own (the empty clause after simplification, or a
// unit clause that immediately conflicts with the current assignment).
func NewClause(s *Solver, tmpLiterals []Literal, learnt bool) (*Clause, bool) {
	size := len(tmpLiterals)

	if !learnt {
		seen := map[Literal]struct{}{}

		for i := size - 1; i >= 0; i-- {
			// If the opposite literal is in the clause, then the clause is
			// always true.
			if _, ok := seen[tmpLiterals[i].Opposite()]; ok {
				return nil, true
			}

			// Remove the literal if it is already present.
			if _, ok := seen[tmpLiterals[i]]; ok {
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
				continue // the literal swapped in was already processed
			}

			seen[tmpLiterals[i]] = struct{}{}

			switch s.LitValue(tmpLiterals[i]) {
			case True:
				return nil, true // clause is always true
			case False:
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
			}
		}

		tmpLiterals = tmpLiterals[:size]
	}

	switch size {
	case 0:
		// Empty clauses cannot be valid.
		return nil, false
	case 1:
		// Directly enqueue unit facts.
		return nil, s.enqueue(tmpLiterals[0], nil)
	default:
		c := &Clause{prevPos: 2}
		c.literals = *allocSlice(size)
		c.literals = append(c.literals, tmpLiterals...)

		if learnt {
			c.statusMask |= statusLearnt
			c.lbd = computeLBD(s, c.literals)

			maxLevel := -1
			wl := 1 // keep the order if no literal is assigned
			for i, lit := range c.literals {
				if level := s.level[lit.VarID()]; level > maxLevel {
					maxLevel = level
					wl = i
				}
			}
			c.literals[wl], c.literals[1] = c.literals[1], c.literals[wl]
		}

		s.Watch(c, c.literals[0].Opposite(), c.literals[1])
		s.Watch(c, c.literals[1].Opposite(), c.literals[0])
		s.addOccurrences(c)

		return c, true
	}
}

// computeLBD returns the number of distinct decision levels represented in
// literals, the literal block distance used to rank learnt clauses for
// deletion (lower is better: a smaller LBD ties together fewer independent
// decisions).
func computeLBD(s *Solver, literals []Literal) uint32 {
	s.seenLevel.Clear()
	var lbd uint32
	for _, l := range literals {
		lvl := s.level[l.VarID()]
		if lvl < 0 {
			continue
		}
		if !s.seenLevel.Contains(lvl) {
			s.seenLevel.Add(lvl)
			lbd++
		}
	}
	return lbd
}

func (c *Clause) locked(solver *Solver) bool {
	return solver.reason[c.literals[0].VarID()] == c
}

// Remove detaches the clause from the watch lists that reference it and
// marks it deleted. It must never be called on a clause that is currently
// somebody's antecedent on the trail (see locked).
func (c *Clause) Remove(s *Solver) {
	s.Unwatch(c, c.literals[0].Opposite())
	s.Unwatch(c, c.literals[1].Opposite())
	s.removeOccurrences(c)

	c.statusMask |= statusDeleted
	freeSlice(&c.literals)
	c.literals = nil
}

// Simplify drops literals that are false at the root level and reports
// whether the clause is already satisfied at the root level (in which case
// the caller should remove it entirely).
func (c *Clause) Simplify(s *Solver) bool {
	j := 0
	for i := 0; i < len(c.literals); i++ {
		switch s.LitValue(c.literals[i]) {
		case True:
			return true
		case False:
			// discard the literal.
		case Unknown:
			c.literals[j] = c.literals[i]
			j++
		}
	}
	c.literals = c.literals[:j]
	return false
}

// Propagate is called when literal l has just been assigned true, so that
// its opposite, one of c's two watched literals, is now false. It restores the two-watched-literal invariant if
// possible and returns true; if no replacement watch exists and the other
// watch is also false, c is falsified and Propagate returns false, leaving
// c as the caller's conflict clause.
func (c *Clause) Propagate(s *Solver, l Literal) bool {
	// Make sure that the triggering literal is c.literals[1]. This simplifies
	// the rest of this function as c.literals[0] is always the literal to be
	// potentially enqueued (if all other literals are false).
	opp := l.Opposite()
	if c.literals[0] == opp {
		c.literals[0] = c.literals[1]
		c.literals[1] = opp
	}

	// If c.literals[0] is True, then the clause is already true.
	if s.LitValue(c.literals[0]) == True {
		s.Watch(c, l, c.literals[0])
		return true
	}

	// Look for a new literal to watch, starting from the position of the
	// previous watched literal so long clauses aren't rescanned from the
	// front on every call.
	if c.prevPos >= len(c.literals) {
		c.prevPos = 2
	}
	for i, lit := range c.literals[c.prevPos:] {
		if s.LitValue(lit) != False {
			c.prevPos += i
			c.literals[1] = lit
			c.literals[c.prevPos] = l.Opposite()
			s.Watch(c, lit.Opposite(), c.literals[0])
			return true
		}
	}
	for i, lit := range c.literals[2:c.prevPos] {
		if s.LitValue(lit) != False {
			c.prevPos = i + 2
			c.literals[1] = lit
			c.literals[c.prevPos] = l.Opposite()
			s.Watch(c, lit.Opposite(), c.literals[0])
			return true
		}
	}

	// All other literals are false: the first literal must be true.
	s.Watch(c, l, c.literals[0])
	return s.enqueue(c.literals[0], c)
}

// ExplainFailure returns the negation of every literal in c, used when c is
// the falsified clause a conflict was detected on.
func (c *Clause) ExplainFailure(s *Solver) []Literal {
	s.tmpReason = s.tmpReason[:0]
	for _, l := range c.literals {
		s.tmpReason = append(s.tmpReason, l.Opposite())
	}
	if c.isLearnt() {
		s.BumpClaActivity(c)
	}
	return s.tmpReason
}

// ExplainAssign returns the negation of every literal but the one that was
// propagated (c.literals[0]), used when c is the antecedent of an assigned
// literal being explained during conflict analysis.
func (c *Clause) ExplainAssign(s *Solver) []Literal {
	s.tmpReason = s.tmpReason[:0]
	for _, l := range c.literals[1:] {
		s.tmpReason = append(s.tmpReason, l.Opposite())
	}
	if c.isLearnt() {
		s.BumpClaActivity(c)
	}
	return s.tmpReason
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
