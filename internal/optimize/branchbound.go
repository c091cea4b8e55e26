package optimize

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultSolverName is the built-in exact solver.
const DefaultSolverName = "branchbound"

// feasTol is the absolute tolerance for constraint satisfaction,
// mirroring typical MIP feasibility tolerances.
const feasTol = 1e-6

func init() {
	RegisterSolver(DefaultSolverName, func() Solver { return &BranchBoundSolver{} })
}

// BranchBoundSolver is an exact depth-first branch-and-bound search
// over the model's binary variables. Continuous variables (the budget
// slack) are eliminated through their defining equalities before the
// search, so every node decision is 0/1.
//
// It supports the full adapter surface: lazy cuts via callback, a
// solution pool of the best distinct assignments, relative-gap
// pruning, and deadline-bounded search with a tri-state outcome.
type BranchBoundSolver struct{}

// Solve runs the search. The solver instance holds no state between
// calls, but a single call owns its model for the duration; do not
// share one model across concurrent solves.
func (b *BranchBoundSolver) Solve(ctx context.Context, m *Model, opts SolveOptions) (*SolveResult, error) {
	s, err := newSearch(m, opts)
	if err != nil {
		return nil, err
	}

	deadline := time.Time{}
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	s.deadline = deadline
	s.ctx = ctx

	completed := s.run()

	res := &SolveResult{
		RunID:         uuid.New(),
		LazyCutsAdded: s.lazyCutsAdded,
	}
	switch {
	case len(s.pool) == 0:
		res.Outcome = OutcomeInfeasible
	case completed:
		res.Outcome = OutcomeOptimal
	default:
		res.Outcome = OutcomeFeasible
	}
	if len(s.pool) > 0 {
		res.Pool = s.pool
		res.Best = &s.pool[0]
	}
	return res, nil
}

// substitution expresses an eliminated continuous variable as an
// affine function of binary variables: value = offset + sum(terms).
type substitution struct {
	varIdx int
	offset float64
	terms  []Term
}

type searchCon struct {
	terms []Term
	sense Sense
	rhs   float64

	// Incremental activity interval over the current partial
	// assignment: assigned terms contribute coef*value, unassigned
	// terms contribute their interval endpoints.
	actMin, actMax float64
}

type varRef struct {
	con  int
	coef float64
}

type search struct {
	m    *Model
	opts SolveOptions

	objCoef      []float64 // per variable, after substitution
	objOffset    float64
	substs       []substitution
	definingCons map[int]int // constraint index -> eliminated var

	cons    []searchCon
	varCons [][]varRef

	values []int8 // -1 unassigned
	order  []int  // unfixed binary vars, branch order

	curObj float64
	posRem float64 // sum of positive objective coefficients still unassigned

	pool     []Solution
	poolSize int

	cuts          []Constraint // lazy cuts, checked at leaves
	lazyCutsAdded int

	infeasibleRoot bool

	ctx      context.Context
	deadline time.Time
	nodes    int
	timedOut bool
}

func newSearch(m *Model, opts SolveOptions) (*search, error) {
	s := &search{m: m, opts: opts}
	s.poolSize = opts.PoolSize
	if s.poolSize < 1 {
		s.poolSize = 1
	}

	if err := s.eliminateContinuous(); err != nil {
		return nil, err
	}
	s.buildConstraints()
	s.initAssignment()
	return s, nil
}

// eliminateContinuous removes every non-binary variable by solving its
// defining equality constraint for it, substituting into the objective
// and remaining constraints, and adding the variable's non-negativity
// as a derived constraint over the binaries.
func (s *search) eliminateContinuous() error {
	m := s.m
	defining := make(map[int]int) // constraint index -> var index it defines

	for v := range m.Vars {
		if m.Vars[v].Binary {
			continue
		}
		found := false
		for ci, con := range m.Cons {
			if con.Sense != SenseEQ {
				continue
			}
			if _, taken := defining[ci]; taken {
				continue
			}
			var coef float64
			ok := true
			for _, t := range con.Terms {
				if t.Var == v {
					coef = t.Coef
				} else if !m.Vars[t.Var].Binary {
					ok = false
					break
				}
			}
			if !ok || coef == 0 {
				continue
			}
			sub := substitution{varIdx: v, offset: con.RHS / coef}
			for _, t := range con.Terms {
				if t.Var == v {
					continue
				}
				sub.terms = append(sub.terms, Term{Var: t.Var, Coef: -t.Coef / coef})
			}
			s.substs = append(s.substs, sub)
			defining[ci] = v
			found = true
			break
		}
		if !found {
			return validationErrorf("continuous variable %d has no defining equality", v)
		}
	}

	// Objective with substitutions applied.
	s.objCoef = make([]float64, len(m.Vars))
	s.objOffset = 0
	for _, t := range m.Objective {
		if sub := s.substFor(t.Var); sub != nil {
			s.objOffset += t.Coef * sub.offset
			for _, st := range sub.terms {
				s.objCoef[st.Var] += t.Coef * st.Coef
			}
		} else {
			s.objCoef[t.Var] += t.Coef
		}
	}

	s.definingCons = defining
	return nil
}

func (s *search) substFor(v int) *substitution {
	for i := range s.substs {
		if s.substs[i].varIdx == v {
			return &s.substs[i]
		}
	}
	return nil
}

// buildConstraints translates model constraints (minus the defining
// equalities) into search constraints over binaries, plus one
// non-negativity constraint per eliminated variable.
func (s *search) buildConstraints() {
	m := s.m
	for ci, con := range m.Cons {
		if _, isDefining := s.definingCons[ci]; isDefining {
			continue
		}
		sc := searchCon{sense: con.Sense, rhs: con.RHS}
		coefs := map[int]float64{}
		for _, t := range con.Terms {
			if sub := s.substFor(t.Var); sub != nil {
				sc.rhs -= t.Coef * sub.offset
				for _, st := range sub.terms {
					coefs[st.Var] += t.Coef * st.Coef
				}
			} else {
				coefs[t.Var] += t.Coef
			}
		}
		sc.terms = flattenCoefs(coefs)
		s.cons = append(s.cons, sc)
	}

	// Non-negativity of eliminated variables: offset + terms >= 0.
	for _, sub := range s.substs {
		coefs := map[int]float64{}
		for _, t := range sub.terms {
			coefs[t.Var] += t.Coef
		}
		s.cons = append(s.cons, searchCon{
			terms: flattenCoefs(coefs),
			sense: SenseGE,
			rhs:   -sub.offset,
		})
	}

	// Initial activity intervals and the variable -> constraint index.
	s.varCons = make([][]varRef, len(m.Vars))
	for ci := range s.cons {
		c := &s.cons[ci]
		for _, t := range c.terms {
			c.actMin += math.Min(t.Coef, 0)
			c.actMax += math.Max(t.Coef, 0)
			s.varCons[t.Var] = append(s.varCons[t.Var], varRef{con: ci, coef: t.Coef})
		}
	}
}

func flattenCoefs(coefs map[int]float64) []Term {
	vars := make([]int, 0, len(coefs))
	for v := range coefs {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	terms := make([]Term, 0, len(vars))
	for _, v := range vars {
		if coefs[v] != 0 {
			terms = append(terms, Term{Var: v, Coef: coefs[v]})
		}
	}
	return terms
}

// initAssignment applies fixed variables and computes the branch
// order: unfixed binaries by descending absolute objective weight.
func (s *search) initAssignment() {
	m := s.m
	s.values = make([]int8, len(m.Vars))
	for i := range s.values {
		s.values[i] = -1
	}
	for v := range m.Vars {
		if m.Vars[v].Binary && s.objCoef[v] > 0 {
			s.posRem += s.objCoef[v]
		}
	}

	for v := range m.Vars {
		if !m.Vars[v].Binary {
			continue
		}
		if m.Vars[v].Fixed {
			val := int8(0)
			if m.Vars[v].FixValue > 0.5 {
				val = 1
			}
			if !s.assign(v, val) {
				s.infeasibleRoot = true
				return
			}
		} else {
			s.order = append(s.order, v)
		}
	}

	sort.SliceStable(s.order, func(i, j int) bool {
		ai, aj := math.Abs(s.objCoef[s.order[i]]), math.Abs(s.objCoef[s.order[j]])
		if ai != aj {
			return ai > aj
		}
		return s.order[i] < s.order[j]
	})
}

// assign sets a value and updates activity intervals. Returns false if
// an affected constraint becomes unsatisfiable.
func (s *search) assign(v int, val int8) bool {
	s.values[v] = val
	s.curObj += s.objCoef[v] * float64(val)
	s.posRem -= math.Max(s.objCoef[v], 0)

	ok := true
	for _, ref := range s.varCons[v] {
		c := &s.cons[ref.con]
		c.actMin += ref.coef*float64(val) - math.Min(ref.coef, 0)
		c.actMax += ref.coef*float64(val) - math.Max(ref.coef, 0)
		if !conSatisfiable(c) {
			ok = false
		}
	}
	return ok
}

func (s *search) unassign(v int) {
	val := s.values[v]
	s.values[v] = -1
	s.curObj -= s.objCoef[v] * float64(val)
	s.posRem += math.Max(s.objCoef[v], 0)

	for _, ref := range s.varCons[v] {
		c := &s.cons[ref.con]
		c.actMin -= ref.coef*float64(val) - math.Min(ref.coef, 0)
		c.actMax -= ref.coef*float64(val) - math.Max(ref.coef, 0)
	}
}

func conSatisfiable(c *searchCon) bool {
	switch c.sense {
	case SenseLE:
		return c.actMin <= c.rhs+feasTol
	case SenseGE:
		return c.actMax >= c.rhs-feasTol
	default: // SenseEQ
		return c.actMin <= c.rhs+feasTol && c.actMax >= c.rhs-feasTol
	}
}

// run executes the DFS. Returns true when the search completed (was
// not stopped by the deadline or context).
func (s *search) run() bool {
	if s.infeasibleRoot {
		return true
	}
	return s.dfs(0)
}

func (s *search) dfs(depth int) bool {
	s.nodes++
	if s.nodes%1024 == 0 && s.expired() {
		return false
	}

	if depth == len(s.order) {
		s.acceptLeaf()
		return true
	}

	if s.pruneBound() {
		return true
	}

	v := s.order[depth]
	// Try the objective-improving value first.
	first, second := int8(1), int8(0)
	if s.objCoef[v] < 0 {
		first, second = 0, 1
	}
	for _, val := range [2]int8{first, second} {
		feasible := s.assign(v, val)
		if feasible {
			if !s.dfs(depth + 1) {
				s.unassign(v)
				return false
			}
		}
		s.unassign(v)
	}
	return true
}

// pruneBound reports whether the node's optimistic bound cannot beat
// the pool's admission threshold.
func (s *search) pruneBound() bool {
	if len(s.pool) < s.poolSize {
		return false
	}
	cutoff := s.pool[len(s.pool)-1].Objective
	if s.poolSize == 1 && s.opts.RelativeGap > 0 {
		cutoff += s.opts.RelativeGap * math.Abs(cutoff)
	}
	bound := s.objOffset + s.curObj + s.posRem
	return bound <= cutoff+1e-9
}

func (s *search) expired() bool {
	if s.timedOut {
		return true
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		s.timedOut = true
		return true
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		s.timedOut = true
		return true
	}
	return false
}

// acceptLeaf handles a fully assigned, constraint-feasible candidate:
// it re-checks accumulated lazy cuts, gives the callback a chance to
// add new ones, and admits the solution to the pool.
func (s *search) acceptLeaf() {
	values := s.fullValues()

	for i := range s.cuts {
		if cutViolated(&s.cuts[i], values) {
			return
		}
	}
	if s.opts.LazyCuts != nil {
		newCuts := s.opts.LazyCuts(values)
		if len(newCuts) > 0 {
			s.cuts = append(s.cuts, newCuts...)
			s.lazyCutsAdded += len(newCuts)
			for i := range newCuts {
				if cutViolated(&newCuts[i], values) {
					// Candidate is cut off; search continues.
					return
				}
			}
		}
	}

	obj := evalTerms(s.m.Objective, values)
	s.admit(Solution{Values: values, Objective: obj})
}

func cutViolated(c *Constraint, values []float64) bool {
	total := evalTerms(c.Terms, values)
	switch c.Sense {
	case SenseLE:
		return total > c.RHS+feasTol
	case SenseGE:
		return total < c.RHS-feasTol
	default:
		return math.Abs(total-c.RHS) > feasTol
	}
}

// fullValues materializes the complete value vector, computing
// eliminated variables from their substitutions.
func (s *search) fullValues() []float64 {
	values := make([]float64, len(s.m.Vars))
	for v := range values {
		if s.values[v] >= 0 {
			values[v] = float64(s.values[v])
		}
	}
	for _, sub := range s.substs {
		values[sub.varIdx] = sub.offset + evalTerms(sub.terms, values)
	}
	return values
}

// admit inserts a solution into the pool, keeping it sorted best-first,
// distinct, and capped at poolSize.
func (s *search) admit(sol Solution) {
	for _, existing := range s.pool {
		if sameAssignment(existing.Values, sol.Values) {
			return
		}
	}
	s.pool = append(s.pool, sol)
	sort.SliceStable(s.pool, func(i, j int) bool {
		return s.pool[i].Objective > s.pool[j].Objective
	})
	if len(s.pool) > s.poolSize {
		s.pool = s.pool[:s.poolSize]
	}
}

func sameAssignment(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > feasTol {
			return false
		}
	}
	return true
}
