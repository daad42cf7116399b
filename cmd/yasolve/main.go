// Command yasolve is a CDCL SAT solver over DIMACS CNF input.
//
// Usage:
//
//	yasolve solve [flags] <file.cnf>
//	yasolve selftest [flags]
//	yasolve bench [flags] <dir>
//
// Flags must come before the file or directory argument; flags after it are
// not parsed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"github.com/ysunnn/dpll-cdcl/internal/bench"
	"github.com/ysunnn/dpll-cdcl/internal/dimacs"
	"github.com/ysunnn/dpll-cdcl/internal/sat"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: yasolve <solve|selftest|bench> ...")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "solve":
		err = runSolve(os.Args[2:])
	case "selftest":
		err = runSelftest(os.Args[2:])
	case "bench":
		err = runBench(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func runSolve(args []string) error {
	flagSet := flag.NewFlagSet("solve", flag.ExitOnError)
	heuristic := flagSet.String("heuristic", "vsids", "decision heuristic: vsids, static, dlis, dlcs, mom, jw")
	timeout := flagSet.Duration("timeout", 0, "abort and report unknown after this long (0 disables)")
	cpuProfile := flagSet.String("cpuprofile", "", "write a CPU profile to this file")
	memProfile := flagSet.String("memprofile", "", "write a heap profile to this file")
	debug := flagSet.Bool("debug", false, "pretty-print the final solver state to stderr")
	flagSet.Parse(args)

	if flagSet.NArg() == 0 {
		return fmt.Errorf("solve: missing instance file")
	}
	instanceFile := flagSet.Arg(0)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return fmt.Errorf("solve: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("solve: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ops := sat.DefaultOptions
	ops.Heuristic = *heuristic
	if *timeout > 0 {
		ops.Timeout = *timeout
	}
	s := sat.NewSolver(ops)
	s.Verbose = true

	if err := dimacs.LoadDIMACS(instanceFile, strings.HasSuffix(instanceFile, ".gz"), s); err != nil {
		return fmt.Errorf("solve: could not parse instance: %w", err)
	}

	status := s.Solve()

	var model []bool
	if status == sat.True {
		model = s.Models[len(s.Models)-1]
	}
	if err := dimacs.WriteResult(os.Stdout, status, model); err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	if *debug {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(s))
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return fmt.Errorf("solve: %w", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("solve: %w", err)
		}
	}

	return nil
}

// runSelftest re-solves every curated instance under testdata/ and checks
// the set of models found against its ".cnf.models" fixture, the same
// correctness check the package test suite runs, exposed as a standalone
// command so the solver can be validated without the Go toolchain.
func runSelftest(args []string) error {
	flagSet := flag.NewFlagSet("selftest", flag.ExitOnError)
	dir := flagSet.String("dir", "testdata", "directory of curated .cnf/.cnf.models fixtures")
	flagSet.Parse(args)

	var instanceFiles []string
	err := filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".cnf") {
			return nil
		}
		instanceFiles = append(instanceFiles, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("selftest: %w", err)
	}

	failures := 0
	for _, instanceFile := range instanceFiles {
		want, err := dimacs.ParseModels(instanceFile + ".models")
		if err != nil {
			fmt.Printf("FAIL %s: could not read expected models: %s\n", instanceFile, err)
			failures++
			continue
		}

		s := sat.NewDefaultSolver()
		if err := dimacs.LoadDIMACS(instanceFile, false, s); err != nil {
			fmt.Printf("FAIL %s: parse error: %s\n", instanceFile, err)
			failures++
			continue
		}

		got := solveAll(s)
		if !sameModelSet(got, want) {
			fmt.Printf("FAIL %s: model mismatch (got %d models, want %d)\n", instanceFile, len(got), len(want))
			failures++
			continue
		}
		fmt.Printf("ok   %s (%d models)\n", instanceFile, len(got))
	}

	if failures > 0 {
		return fmt.Errorf("selftest: %d/%d instances failed", failures, len(instanceFiles))
	}
	return nil
}

// solveAll exhausts every model of s by repeatedly solving and then adding
// a blocking clause that forbids the last model found.
func solveAll(s *sat.Solver) [][]bool {
	for s.Solve() == sat.True {
		modelClause := make([]sat.Literal, s.NumVariables())
		for i, b := range s.Models[len(s.Models)-1] {
			if b {
				modelClause[i] = sat.NegativeLiteral(i)
			} else {
				modelClause[i] = sat.PositiveLiteral(i)
			}
		}
		s.AddClause(modelClause)
	}
	return s.Models
}

func modelKey(m []bool) string {
	b := make([]byte, len(m))
	for i, v := range m {
		if v {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func sameModelSet(got, want [][]bool) bool {
	if len(got) != len(want) {
		return false
	}
	set := make(map[string]struct{}, len(want))
	for _, m := range want {
		set[modelKey(m)] = struct{}{}
	}
	for _, m := range got {
		if _, ok := set[modelKey(m)]; !ok {
			return false
		}
	}
	return true
}

func runBench(args []string) error {
	flagSet := flag.NewFlagSet("bench", flag.ExitOnError)
	heuristic := flagSet.String("heuristic", "vsids", "decision heuristic: vsids, static, dlis, dlcs, mom, jw")
	timeout := flagSet.Duration("timeout", 30*time.Second, "per-instance timeout")
	flagSet.Parse(args)

	if flagSet.NArg() == 0 {
		return fmt.Errorf("bench: missing instance directory")
	}

	opts := bench.DefaultOptions
	opts.Heuristic = *heuristic
	opts.Timeout = *timeout
	opts.Log = logrus.StandardLogger()

	report, err := bench.Run(context.Background(), flagSet.Arg(0), opts)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	for _, r := range report.Results {
		status := "ERROR"
		if r.Err == nil {
			status = r.Status.String()
		}
		fmt.Printf("%-40s %-10s %10.3fs %10d conflicts\n", r.Instance, status, r.Elapsed.Seconds(), r.Conflicts)
	}
	fmt.Printf("conflicts/sec (EMA): %.1f\n", report.ConflictsPerSecEMA)

	return nil
}
