// Package dimacs reads the DIMACS CNF file format used to exchange SAT
// problem instances, and writes results in the companion output format
// (spec.md §6).
package dimacs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rhartert/dimacs"

	"github.com/ysunnn/dpll-cdcl/internal/sat"
)

// solver is the subset of *sat.Solver that LoadDIMACS needs to build an
// instance, kept narrow so callers can load into a fake in tests (see
// dimacs_test.go).
type solver interface {
	AddVariable() int
	AddClause([]sat.Literal) error
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses the DIMACS CNF file at filename and loads its formula
// into dw, declaring one variable per the header's variable count and one
// clause per clause line. filename may end in ".gz", in which case gzipped
// must be true.
func LoadDIMACS(filename string, gzipped bool, dw solver) error {
	r, err := reader(filename, gzipped)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	b := &builder{solver: dw}
	return dimacs.ReadBuilder(r, b)
}

// builder adapts a solver to the dimacs.Builder interface expected by the
// third-party parser.
type builder struct {
	solver solver
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("instance of type %q are not supported", problem)
	}
	for i := 0; i < nVars; i++ {
		b.solver.AddVariable()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	clause := make([]sat.Literal, len(tmpClause))
	for i, l := range tmpClause {
		if l < 0 {
			clause[i] = sat.NegativeLiteral(-l - 1)
		} else {
			clause[i] = sat.PositiveLiteral(l - 1)
		}
	}
	return b.solver.AddClause(clause)
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// WriteResult writes status and, if status is sat.True, the satisfying
// model to w in the DIMACS output convention (spec.md §6): a single
// "s SATISFIABLE" / "s UNSATISFIABLE" / "s UNKNOWN" line, followed for a
// satisfiable result by one or more "v ..." lines listing each variable's
// assigned literal (1-based, negative for false) and terminated by 0.
func WriteResult(w io.Writer, status sat.LBool, model []bool) error {
	line, err := statusLine(status)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if status != sat.True {
		return nil
	}

	sb := strings.Builder{}
	sb.WriteString("v")
	for i, v := range model {
		if v {
			fmt.Fprintf(&sb, " %d", i+1)
		} else {
			fmt.Fprintf(&sb, " -%d", i+1)
		}
	}
	sb.WriteString(" 0")
	_, err = fmt.Fprintln(w, sb.String())
	return err
}

func statusLine(status sat.LBool) (string, error) {
	switch status {
	case sat.True:
		return "s SATISFIABLE", nil
	case sat.False:
		return "s UNSATISFIABLE", nil
	case sat.Unknown:
		return "s UNKNOWN", nil
	default:
		return "", fmt.Errorf("invalid status %v", status)
	}
}
