package dimacs

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseModels reads a ".cnf.models" fixture file: each non-empty line is a
// sequence of signed literals terminated by 0, one line per expected model,
// in the same literal convention as a DIMACS clause line but without a
// problem header. It is used by the tests and by the yasolve selftest
// subcommand to pin the solver's output against known-good models.
func ParseModels(filename string) ([][]bool, error) {
	r, err := reader(filename, false)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	var models [][]bool
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		model := make([]bool, 0, len(fields))
		for _, f := range fields {
			l, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("error parsing literal %q: %w", f, err)
			}
			if l == 0 {
				continue
			}
			model = append(model, l > 0)
		}
		models = append(models, model)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return models, nil
}
