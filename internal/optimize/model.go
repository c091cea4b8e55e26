package optimize

import (
	"fmt"
)

// VarKind identifies what a decision variable represents.
type VarKind uint8

const (
	// VarCampaign is the "campaign selected" boolean.
	VarCampaign VarKind = iota
	// VarWell is the "well selected" boolean.
	VarWell
	// VarCount is the "exactly-n-wells" indicator for a campaign.
	VarCount
	// VarSlack is the non-negative unused-budget slack.
	VarSlack
)

// Variable is one decision variable in the flat model. Variables are
// stored in a single arena slice and referenced by index; constraints
// never hold object pointers.
type Variable struct {
	Kind     VarKind
	Campaign int    // campaign id for VarCampaign/VarCount, holder for VarWell
	WellID   string // set for VarWell
	Count    int    // set for VarCount
	Binary   bool

	// Fixed forces the variable to FixValue, used by the override
	// engine to re-solve around manual locks.
	Fixed    bool
	FixValue float64
}

// Term is one linear coefficient on a variable.
type Term struct {
	Var  int
	Coef float64
}

// Sense is a constraint's comparison direction.
type Sense uint8

const (
	SenseLE Sense = iota
	SenseGE
	SenseEQ
)

// Constraint is an explicit linear constraint: Terms (sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

type countKey struct {
	Campaign int
	Count    int
}

// Model is the flat combinatorial model for one solve: a variable
// arena, explicit constraints, and a maximization objective. Money
// coefficients are in scaled units (millions); scores are unscaled.
type Model struct {
	Input       *OptimizationInput
	Formulation Formulation

	Vars      []Variable
	Cons      []Constraint
	Objective []Term // maximize

	// SlackVar indexes the unused-budget slack variable.
	SlackVar int
	// SlackFactor is the objective penalty on the slack.
	SlackFactor float64
	// BudgetSufficient reports which branch of the penalty derivation
	// applied.
	BudgetSufficient bool

	campaignVar map[int]int
	wellVar     map[string]int
	countVar    map[countKey]int
	costExpr    map[int][]Term // per-campaign cost expression (scaled)
}

// FixOverlay forces specific campaign/well booleans to literal 0 or 1
// without altering the rest of the model.
type FixOverlay struct {
	Campaigns map[int]float64
	Wells     map[string]float64
}

// CampaignVar returns the variable index of a campaign's selection
// boolean, or -1 if the campaign is unknown.
func (m *Model) CampaignVar(campaign int) int {
	if i, ok := m.campaignVar[campaign]; ok {
		return i
	}
	return -1
}

// WellVar returns the variable index of a well's selection boolean,
// or -1 if the well is unknown.
func (m *Model) WellVar(wellID string) int {
	if i, ok := m.wellVar[wellID]; ok {
		return i
	}
	return -1
}

// CountVar returns the variable index of the exactly-n-wells indicator
// for a campaign, or -1.
func (m *Model) CountVar(campaign, n int) int {
	if i, ok := m.countVar[countKey{campaign, n}]; ok {
		return i
	}
	return -1
}

// CostTerms returns the campaign's cost expression (scaled money
// units) under the active formulation.
func (m *Model) CostTerms(campaign int) []Term {
	return m.costExpr[campaign]
}

// evalTerms evaluates a linear expression against a value vector.
func evalTerms(terms []Term, values []float64) float64 {
	total := 0.0
	for _, t := range terms {
		total += t.Coef * values[t.Var]
	}
	return total
}

// BuildModel translates an OptimizationInput into a solvable model.
// Building never partially fails: inputs and the overlay are validated
// before any variable is created, so the result is either a complete,
// internally consistent model or a ValidationError.
func BuildModel(in *OptimizationInput, fix *FixOverlay) (*Model, error) {
	if in == nil {
		return nil, validationErrorf("nil optimization input")
	}
	if err := validateOverlay(in, fix); err != nil {
		return nil, err
	}

	m := &Model{
		Input:       in,
		Formulation: in.Policy.GetFormulation(),
		campaignVar: make(map[int]int),
		wellVar:     make(map[string]int),
		countVar:    make(map[countKey]int),
		costExpr:    make(map[int][]Term),
	}

	m.addVariables(fix)
	m.addCampaignConstraints()
	m.addBudgetConstraints()
	m.addOptionalConstraints()
	m.setObjective()
	return m, nil
}

// validateOverlay checks overlay references and values before any
// variable is created.
func validateOverlay(in *OptimizationInput, fix *FixOverlay) error {
	if fix == nil {
		return nil
	}
	for campaign, v := range fix.Campaigns {
		if in.Candidate(campaign) == nil {
			return validationErrorf("fix overlay references unknown campaign %d", campaign)
		}
		if v != 0 && v != 1 {
			return validationErrorf("fix overlay value %v for campaign %d is not 0 or 1", v, campaign)
		}
	}
	for wellID, v := range fix.Wells {
		if _, ok := in.CampaignOf(wellID); !ok {
			return validationErrorf("fix overlay references unknown well %q", wellID)
		}
		if v != 0 && v != 1 {
			return validationErrorf("fix overlay value %v for well %q is not 0 or 1", v, wellID)
		}
	}
	return nil
}

func (m *Model) newVar(v Variable) int {
	m.Vars = append(m.Vars, v)
	return len(m.Vars) - 1
}

// add appends a constraint built from explicit coefficient data.
func (m *Model) add(name string, terms []Term, sense Sense, rhs float64) {
	m.Cons = append(m.Cons, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

func (m *Model) addVariables(fix *FixOverlay) {
	in := m.Input
	for _, cand := range in.Candidates {
		cv := Variable{Kind: VarCampaign, Campaign: cand.ID, Binary: true}
		if fix != nil {
			if v, ok := fix.Campaigns[cand.ID]; ok {
				cv.Fixed, cv.FixValue = true, v
			}
		}
		m.campaignVar[cand.ID] = m.newVar(cv)

		for _, wellID := range cand.WellIDs {
			wv := Variable{Kind: VarWell, Campaign: cand.ID, WellID: wellID, Binary: true}
			if fix != nil {
				if v, ok := fix.Wells[wellID]; ok {
					wv.Fixed, wv.FixValue = true, v
				}
			}
			m.wellVar[wellID] = m.newVar(wv)
		}

		for n := 1; n <= len(cand.WellIDs); n++ {
			m.countVar[countKey{cand.ID, n}] = m.newVar(Variable{
				Kind: VarCount, Campaign: cand.ID, Count: n, Binary: true,
			})
		}
	}
	m.SlackVar = m.newVar(Variable{Kind: VarSlack, Binary: false})
}

// addCampaignConstraints wires the per-campaign count linkage, the
// formulation-specific cost encoding and the symmetry/ordering
// structure.
func (m *Model) addCampaignConstraints() {
	in := m.Input
	for _, cand := range in.Candidates {
		c := cand.ID
		size := len(cand.WellIDs)

		wellSum := make([]Term, 0, size)
		for _, wellID := range cand.WellIDs {
			wellSum = append(wellSum, Term{Var: m.wellVar[wellID], Coef: 1})
		}

		switch m.Formulation {
		case FormulationIncremental:
			// Wells chosen = sum of indicators.
			terms := append([]Term(nil), wellSum...)
			for n := 1; n <= size; n++ {
				terms = append(terms, Term{Var: m.countVar[countKey{c, n}], Coef: -1})
			}
			m.add(fmt.Sprintf("campaign-length[%d]", c), terms, SenseEQ, 0)

			// Ordering chain: q[1] = select_campaign, q[n] <= q[n-1].
			m.add(fmt.Sprintf("ordering[%d,1]", c), []Term{
				{Var: m.countVar[countKey{c, 1}], Coef: 1},
				{Var: m.campaignVar[c], Coef: -1},
			}, SenseEQ, 0)
			for n := 2; n <= size; n++ {
				m.add(fmt.Sprintf("ordering[%d,%d]", c, n), []Term{
					{Var: m.countVar[countKey{c, n}], Coef: 1},
					{Var: m.countVar[countKey{c, n - 1}], Coef: -1},
				}, SenseLE, 0)
			}

			// Cost = cost(1)*q[1] + sum_{n>1} (cost(n)-cost(n-1))*q[n].
			cost := []Term{{Var: m.countVar[countKey{c, 1}], Coef: in.ScaledCost(1)}}
			for n := 2; n <= size; n++ {
				cost = append(cost, Term{
					Var:  m.countVar[countKey{c, n}],
					Coef: in.ScaledCost(n) - in.ScaledCost(n-1),
				})
			}
			m.costExpr[c] = cost

		default: // multicommodity
			// Wells chosen = sum over n of n*q[n].
			terms := append([]Term(nil), wellSum...)
			for n := 1; n <= size; n++ {
				terms = append(terms, Term{Var: m.countVar[countKey{c, n}], Coef: -float64(n)})
			}
			m.add(fmt.Sprintf("campaign-length[%d]", c), terms, SenseEQ, 0)

			// Exactly one indicator active iff the campaign is selected.
			sym := make([]Term, 0, size+1)
			for n := 1; n <= size; n++ {
				sym = append(sym, Term{Var: m.countVar[countKey{c, n}], Coef: 1})
			}
			sym = append(sym, Term{Var: m.campaignVar[c], Coef: -1})
			m.add(fmt.Sprintf("symmetry[%d]", c), sym, SenseEQ, 0)

			// Cost = sum over n of cost(n)*q[n].
			cost := make([]Term, 0, size)
			for n := 1; n <= size; n++ {
				cost = append(cost, Term{Var: m.countVar[countKey{c, n}], Coef: in.ScaledCost(n)})
			}
			m.costExpr[c] = cost
		}
	}
}

// totalCostTerms returns the sum of all campaign cost expressions.
func (m *Model) totalCostTerms() []Term {
	var terms []Term
	for _, cand := range m.Input.Candidates {
		terms = append(terms, m.costExpr[cand.ID]...)
	}
	return terms
}

// addBudgetConstraints adds the global budget cap and the defining
// equality for the unused-budget slack: total cost + slack = budget.
func (m *Model) addBudgetConstraints() {
	in := m.Input
	total := m.totalCostTerms()

	budget := append([]Term(nil), total...)
	m.add("budget", budget, SenseLE, in.ScaledBudget())

	slack := append([]Term(nil), total...)
	slack = append(slack, Term{Var: m.SlackVar, Coef: 1})
	m.add("budget-slack", slack, SenseEQ, in.ScaledBudget())
}

// addOptionalConstraints adds the policy-gated constraints: distance
// cuts (unless lazy), DAC fairness, owner cap, project spend cap and
// the minimum-budget-usage floor.
func (m *Model) addOptionalConstraints() {
	in := m.Input
	p := in.Policy

	if p != nil && p.DistanceThresholdMiles != nil && !p.GetLazyDistanceCuts() {
		m.addDistanceCuts(*p.DistanceThresholdMiles)
	}

	if p != nil && p.DACFractionPercent != nil {
		frac := *p.DACFractionPercent / 100
		var terms []Term
		for _, cand := range in.Candidates {
			for _, wellID := range cand.WellIDs {
				coef := -frac
				if in.Well(wellID).Disadvantaged {
					coef += 1
				}
				terms = append(terms, Term{Var: m.wellVar[wellID], Coef: coef})
			}
		}
		m.add("dac-fairness", terms, SenseGE, 0)
	}

	if p != nil && p.MaxWellsPerOwner != nil {
		for _, owner := range in.Owners() {
			terms := make([]Term, 0)
			for _, ow := range in.OwnerWells(owner) {
				terms = append(terms, Term{Var: m.wellVar[ow.WellID], Coef: 1})
			}
			m.add(fmt.Sprintf("owner-cap[%s]", owner), terms, SenseLE, float64(*p.MaxWellsPerOwner))
		}
	}

	if p != nil && p.ProjectMaxSpend != nil {
		maxSpend := *p.ProjectMaxSpend / budgetScale
		for _, cand := range in.Candidates {
			terms := append([]Term(nil), m.costExpr[cand.ID]...)
			m.add(fmt.Sprintf("project-spend[%d]", cand.ID), terms, SenseLE, maxSpend)
		}
	}

	factor, sufficient := in.slackScaling()
	m.SlackFactor = factor
	m.BudgetSufficient = sufficient

	if frac, ok := p.GetMinBudgetUsageFraction(); ok && sufficient {
		// Only meaningful when the budget could fund everything;
		// otherwise the optimizer exhausts the budget on its own.
		terms := m.totalCostTerms()
		m.add("min-budget-usage", terms, SenseGE, frac*in.ScaledBudget())
	}
}

// addDistanceCuts enumerates forbidden well pairs per campaign: any
// member pair farther apart than the threshold cannot both be
// selected.
func (m *Model) addDistanceCuts(thresholdMiles float64) {
	for _, cand := range m.Input.Candidates {
		n := len(cand.WellIDs)
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				if cand.Distance.At(a, b) <= thresholdMiles {
					continue
				}
				m.add(fmt.Sprintf("distance[%d:%s,%s]", cand.ID, cand.WellIDs[a], cand.WellIDs[b]), []Term{
					{Var: m.wellVar[cand.WellIDs[a]], Coef: 1},
					{Var: m.wellVar[cand.WellIDs[b]], Coef: 1},
				}, SenseLE, 1)
			}
		}
	}
}

// setObjective maximizes the total priority score of selected wells
// minus the scaled penalty on unused budget.
func (m *Model) setObjective() {
	in := m.Input
	for _, cand := range in.Candidates {
		for _, wellID := range cand.WellIDs {
			if score := in.Well(wellID).Score; score != 0 {
				m.Objective = append(m.Objective, Term{Var: m.wellVar[wellID], Coef: score})
			}
		}
	}
	m.Objective = append(m.Objective, Term{Var: m.SlackVar, Coef: -m.SlackFactor})
}

// DistanceCutFunc returns a lazy-cut callback that inspects a
// candidate solution's selected wells per campaign and emits a "not
// both selected" cut for every member pair beyond the threshold. It
// returns nil when no distance threshold is configured.
//
// The callback only reads the candidate's variable values; it holds no
// shared state and never blocks, so it is safe to invoke from the
// solver's search thread.
func (m *Model) DistanceCutFunc() LazyCutFunc {
	p := m.Input.Policy
	if p == nil || p.DistanceThresholdMiles == nil {
		return nil
	}
	threshold := *p.DistanceThresholdMiles

	return func(values []float64) []Constraint {
		var cuts []Constraint
		for _, cand := range m.Input.Candidates {
			var selected []int // member positions
			for i, wellID := range cand.WellIDs {
				if values[m.wellVar[wellID]] > 0.5 {
					selected = append(selected, i)
				}
			}
			for x := 0; x < len(selected); x++ {
				for y := x + 1; y < len(selected); y++ {
					a, b := selected[x], selected[y]
					if cand.Distance.At(a, b) <= threshold {
						continue
					}
					cuts = append(cuts, Constraint{
						Name: fmt.Sprintf("lazy-distance[%d:%s,%s]", cand.ID, cand.WellIDs[a], cand.WellIDs[b]),
						Terms: []Term{
							{Var: m.wellVar[cand.WellIDs[a]], Coef: 1},
							{Var: m.wellVar[cand.WellIDs[b]], Coef: 1},
						},
						Sense: SenseLE,
						RHS:   1,
					})
				}
			}
		}
		return cuts
	}
}
