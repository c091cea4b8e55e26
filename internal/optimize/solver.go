package optimize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Outcome is the tri-state result of a solve. Infeasible/unknown is a
// normal outcome that callers must branch on, not an error.
type Outcome int

const (
	// OutcomeOptimal means the search completed with a proven best
	// solution (within the configured relative gap).
	OutcomeOptimal Outcome = iota
	// OutcomeFeasible means an integer-feasible incumbent exists but
	// optimality was not proven before the time limit.
	OutcomeFeasible
	// OutcomeInfeasible means no feasible solution was found; the model
	// may be infeasible or the search may simply not have found one.
	OutcomeInfeasible
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOptimal:
		return "optimal"
	case OutcomeFeasible:
		return "feasible"
	case OutcomeInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// LazyCutFunc inspects an integer-feasible candidate's variable values
// and returns constraints the candidate violates, to be added to the
// live model. Implementations must only read the values slice — no
// locks, no I/O — because the solver invokes them from its search loop.
type LazyCutFunc func(values []float64) []Constraint

// SolveOptions configure one solve.
type SolveOptions struct {
	// Solver names the backend; see NewSolver.
	Solver string
	// TimeLimit bounds the search wall time. Zero means no limit.
	// There is no asynchronous cancel beyond the context deadline.
	TimeLimit time.Duration
	// RelativeGap is the relative optimality gap at which the search
	// stops refining, e.g. 0.01 for 1%.
	RelativeGap float64
	// PoolSize asks for up to this many distinct alternate solutions.
	// Zero or one means only the incumbent.
	PoolSize int
	// LazyCuts, when non-nil, is invoked on every integer-feasible
	// candidate; returned cuts join the live model.
	LazyCuts LazyCutFunc
}

// Solution is one variable assignment with its objective value.
type Solution struct {
	Values    []float64
	Objective float64
}

// SolveResult carries the outcome of a solve: the incumbent, the
// ordered solution pool (best first) and bookkeeping.
type SolveResult struct {
	RunID   uuid.UUID
	Outcome Outcome
	Best    *Solution
	Pool    []Solution
	// LazyCutsAdded counts cuts generated through the callback.
	LazyCutsAdded int
}

// Solver hands a built model to a combinatorial backend and retrieves
// solutions. A single Solver instance must not be reused for two
// concurrent solves; each solve owns its model instance.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts SolveOptions) (*SolveResult, error)
}

var solverFactories = map[string]func() Solver{}

// RegisterSolver installs a solver factory under a name. Intended for
// package init; not safe for concurrent use with NewSolver.
func RegisterSolver(name string, factory func() Solver) {
	solverFactories[name] = factory
}

// NewSolver instantiates the named solver backend, or returns an error
// wrapping ErrSolverUnavailable.
func NewSolver(name string) (Solver, error) {
	factory, ok := solverFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrSolverUnavailable, name, registeredSolvers())
	}
	return factory(), nil
}

func registeredSolvers() []string {
	names := make([]string, 0, len(solverFactories))
	for name := range solverFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Solve is the one-stop adapter entry point: it instantiates the
// requested backend, wires the lazy distance-cut callback when the
// policy asks for it, and runs the solve.
func Solve(ctx context.Context, m *Model, opts SolveOptions) (*SolveResult, error) {
	if opts.Solver == "" {
		opts.Solver = DefaultSolverName
	}
	backend, err := NewSolver(opts.Solver)
	if err != nil {
		return nil, err
	}
	if opts.LazyCuts == nil && m.Input.Policy.GetLazyDistanceCuts() {
		opts.LazyCuts = m.DistanceCutFunc()
	}
	return backend.Solve(ctx, m, opts)
}
