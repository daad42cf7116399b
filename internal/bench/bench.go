// Package bench runs the solver over a directory of DIMACS instances in
// parallel, one goroutine per instance, and collects per-instance timing
// and search statistics (spec.md §5, "Benchmarking harness").
package bench

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ysunnn/dpll-cdcl/internal/dimacs"
	"github.com/ysunnn/dpll-cdcl/internal/sat"
)

// Result holds the outcome of solving a single instance.
type Result struct {
	Instance     string
	Status       sat.LBool
	Elapsed      time.Duration
	Conflicts    int64
	Decisions    int64
	Propagations int64
	Err          error
}

// Report aggregates the results of a benchmark run.
type Report struct {
	Results []Result

	// ConflictsPerSecEMA is an exponential moving average of each
	// instance's conflicts/sec figure, computed once every instance has
	// finished, over Results in their lexical instance order; later
	// instances in that order weigh more than earlier ones. Instances that
	// failed to load or took no measurable time are skipped.
	ConflictsPerSecEMA float64
}

// Options configures a benchmark run.
type Options struct {
	// Timeout bounds each instance independently; it does not bound the
	// run as a whole, whose wall time is the slowest instance's.
	Timeout time.Duration

	Heuristic     string
	VariableDecay float64
	ClauseDecay   float64
	PhaseSaving   bool

	Log *logrus.Logger
}

// DefaultOptions mirrors sat.DefaultOptions for the instances the harness
// constructs.
var DefaultOptions = Options{
	Timeout:       30 * time.Second,
	Heuristic:     "vsids",
	VariableDecay: sat.DefaultOptions.VariableDecay,
	ClauseDecay:   sat.DefaultOptions.ClauseDecay,
}

// listInstances returns every ".cnf" file under dir, in lexical order so
// runs are reproducible.
func listInstances(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".cnf") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Run solves every ".cnf" instance found under dir concurrently, one
// goroutine per instance via errgroup (spec.md §5), each bounded by its own
// Options.Timeout deadline that flips that instance's Solver.Cancel flag
// without affecting any other instance. A parse error on one instance is
// recorded on its Result and does not abort the others.
func Run(ctx context.Context, dir string, opts Options) (*Report, error) {
	if opts.Log == nil {
		opts.Log = logrus.New()
	}

	instances, err := listInstances(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list instances in %q: %w", dir, err)
	}

	results := make([]Result, len(instances))
	g, gctx := errgroup.WithContext(ctx)

	for i, instanceFile := range instances {
		i, instanceFile := i, instanceFile
		g.Go(func() error {
			results[i] = solveOne(gctx, instanceFile, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results}
	ema := sat.NewEMA(0.7)
	for _, r := range report.Results {
		opts.Log.WithFields(logrus.Fields{
			"instance":  r.Instance,
			"status":    r.Status.String(),
			"elapsed_s": r.Elapsed.Seconds(),
			"conflicts": r.Conflicts,
		}).Info("solved instance")

		if r.Err != nil || r.Elapsed <= 0 {
			continue
		}
		ema.Add(float64(r.Conflicts) / r.Elapsed.Seconds())
	}
	report.ConflictsPerSecEMA = ema.Val()

	return report, nil
}

func solveOne(ctx context.Context, instanceFile string, opts Options) Result {
	res := Result{Instance: instanceFile}

	s := sat.NewSolver(sat.Options{
		ClauseDecay:   opts.ClauseDecay,
		VariableDecay: opts.VariableDecay,
		Heuristic:     opts.Heuristic,
		PhaseSaving:   opts.PhaseSaving,
		ReduceDBTau1:  sat.DefaultOptions.ReduceDBTau1,
		MaxConflicts:  -1,
		Timeout:       -1,
	})

	if err := dimacs.LoadDIMACS(instanceFile, strings.HasSuffix(instanceFile, ".gz"), s); err != nil {
		res.Err = fmt.Errorf("could not load instance: %w", err)
		return res
	}

	instanceCtx := ctx
	var cancelTimer context.CancelFunc
	if opts.Timeout > 0 {
		instanceCtx, cancelTimer = context.WithTimeout(ctx, opts.Timeout)
		defer cancelTimer()
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-instanceCtx.Done():
			s.Cancel()
		case <-done:
		}
	}()

	start := time.Now()
	res.Status = s.Solve()
	res.Elapsed = time.Since(start)
	close(done)

	res.Conflicts = s.TotalConflicts
	res.Propagations = s.TotalPropagations
	res.Decisions = s.TotalIterations

	return res
}
