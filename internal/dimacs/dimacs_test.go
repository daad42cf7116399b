package dimacs

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ysunnn/dpll-cdcl/internal/sat"
)

type instance struct {
	Variables int
	Clauses   [][]sat.Literal
}

func (i *instance) AddVariable() int {
	i.Variables++
	return i.Variables - 1
}

func (i *instance) AddClause(tmpClause []sat.Literal) error {
	clause := make([]sat.Literal, len(tmpClause))
	copy(clause, tmpClause)
	i.Clauses = append(i.Clauses, clause)
	return nil
}

var want = instance{
	Variables: 3,
	Clauses: [][]sat.Literal{
		{0, 2, 4},
		{0, 2, 5},
		{0, 3, 4},
		{1, 2, 4},
		{1, 3, 4},
		{1, 2, 5},
		{0, 3, 5},
		{1, 3, 5},
	},
}

func TestLoadDIMACS(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", false, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (-want, +got):\n%s", diff)
	}
}

func TestLoadDIMACS_noFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("", false, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_gzipFlagOnNonGzipFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", true, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestWriteResult_satisfiable(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteResult(buf, sat.True, []bool{true, false, true}); err != nil {
		t.Fatalf("WriteResult(): unexpected error: %s", err)
	}

	want := "s SATISFIABLE\nv 1 -2 3 0\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteResult(): got %q, want %q", got, want)
	}
}

func TestWriteResult_unsatisfiable(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteResult(buf, sat.False, nil); err != nil {
		t.Fatalf("WriteResult(): unexpected error: %s", err)
	}

	want := "s UNSATISFIABLE\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteResult(): got %q, want %q", got, want)
	}
}

func TestWriteResult_unknown(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteResult(buf, sat.Unknown, nil); err != nil {
		t.Fatalf("WriteResult(): unexpected error: %s", err)
	}

	want := "s UNKNOWN\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteResult(): got %q, want %q", got, want)
	}
}
