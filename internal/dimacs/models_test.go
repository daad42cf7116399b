package dimacs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseModels(t *testing.T) {
	got, err := ParseModels("testdata/test_instance.cnf.models")
	if err != nil {
		t.Fatalf("ParseModels(): unexpected error: %s", err)
	}

	want := [][]bool{
		{true, false, true},
		{false, true, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseModels(): mismatch (-want, +got):\n%s", diff)
	}
}

func TestParseModels_noFile(t *testing.T) {
	if _, err := ParseModels("testdata/does_not_exist.cnf.models"); err == nil {
		t.Errorf("ParseModels(): want error, got none")
	}
}
