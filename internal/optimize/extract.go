package optimize

import (
	"fmt"

	"github.com/google/uuid"
)

// Extraction thresholds for reading binary variables out of a solver
// solution. Values in between indicate a fractional assignment, which
// an integral solve should never produce.
const (
	selectedThreshold = 0.95
	omittedThreshold  = 0.05
)

// CampaignSelection is one selected campaign in a result: which wells
// to plug and the mobilization cost, in dollars.
type CampaignSelection struct {
	Campaign int
	Wells    []string
	Count    int
	Cost     float64
}

// ProjectResult is a complete, reportable plan extracted from one
// solution: the selected campaigns, total spend and leftover budget,
// all in dollars. Extraction is pure: extracting the same solution
// twice yields identical results.
type ProjectResult struct {
	RunID      uuid.UUID
	Outcome    Outcome
	Objective  float64
	Selections []CampaignSelection

	TotalCost    float64
	UnusedBudget float64
}

// ExtractResult reads a solution back into domain terms. It returns an
// error if any binary variable sits between the extraction thresholds,
// or if a selected campaign's well count disagrees with its active
// count indicator.
func ExtractResult(m *Model, res *SolveResult) (*ProjectResult, error) {
	if res.Outcome == OutcomeInfeasible || res.Best == nil {
		return &ProjectResult{
			RunID:        res.RunID,
			Outcome:      res.Outcome,
			UnusedBudget: m.Input.Budget,
		}, nil
	}
	pr, err := extractSolution(m, res.Best)
	if err != nil {
		return nil, err
	}
	pr.RunID = res.RunID
	pr.Outcome = res.Outcome
	return pr, nil
}

// ExtractPool extracts every solution in the result's pool, best
// first. Pool entries share the run id and outcome of the result.
func ExtractPool(m *Model, res *SolveResult) ([]*ProjectResult, error) {
	out := make([]*ProjectResult, 0, len(res.Pool))
	for i := range res.Pool {
		pr, err := extractSolution(m, &res.Pool[i])
		if err != nil {
			return nil, fmt.Errorf("pool entry %d: %w", i, err)
		}
		pr.RunID = res.RunID
		pr.Outcome = res.Outcome
		out = append(out, pr)
	}
	return out, nil
}

func extractSolution(m *Model, sol *Solution) (*ProjectResult, error) {
	pr := &ProjectResult{Objective: sol.Objective}

	for _, cand := range m.Input.Candidates {
		on, err := binaryValue(sol.Values, m.CampaignVar(cand.ID), fmt.Sprintf("campaign %d", cand.ID))
		if err != nil {
			return nil, err
		}
		if !on {
			continue
		}

		sel := CampaignSelection{Campaign: cand.ID}
		for _, wellID := range cand.WellIDs {
			picked, err := binaryValue(sol.Values, m.WellVar(wellID), fmt.Sprintf("well %q", wellID))
			if err != nil {
				return nil, err
			}
			if picked {
				sel.Wells = append(sel.Wells, wellID)
			}
		}
		sel.Count = len(sel.Wells)
		if sel.Count == 0 {
			// A selected campaign with no wells contributes nothing;
			// formulations force at least one count indicator, so this
			// indicates a solver defect.
			return nil, fmt.Errorf("campaign %d selected with no wells", cand.ID)
		}
		if n, err := activeCount(m, sol.Values, cand.ID, len(cand.WellIDs)); err != nil {
			return nil, err
		} else if n != sel.Count {
			return nil, fmt.Errorf("campaign %d: %d wells selected but count indicator says %d", cand.ID, sel.Count, n)
		}

		sel.Cost = evalTerms(m.CostTerms(cand.ID), sol.Values) * budgetScale
		pr.TotalCost += sel.Cost
		pr.Selections = append(pr.Selections, sel)
	}

	pr.UnusedBudget = m.Input.Budget - pr.TotalCost
	return pr, nil
}

// activeCount decodes the campaign's count indicators under the active
// formulation: multicommodity has exactly one indicator set, while the
// incremental chain has a prefix of indicators set whose length is the
// count.
func activeCount(m *Model, values []float64, campaign, size int) (int, error) {
	active := 0
	for n := 1; n <= size; n++ {
		on, err := binaryValue(values, m.CountVar(campaign, n), fmt.Sprintf("campaign %d count %d", campaign, n))
		if err != nil {
			return 0, err
		}
		if !on {
			continue
		}
		if m.Formulation == FormulationIncremental {
			active++
		} else {
			if active != 0 {
				return 0, fmt.Errorf("campaign %d has multiple active count indicators", campaign)
			}
			active = n
		}
	}
	return active, nil
}

// binaryValue interprets one binary variable's solution value, failing
// on fractional assignments.
func binaryValue(values []float64, idx int, what string) (bool, error) {
	if idx < 0 || idx >= len(values) {
		return false, fmt.Errorf("no solution value for %s", what)
	}
	v := values[idx]
	switch {
	case v > selectedThreshold:
		return true, nil
	case v < omittedThreshold:
		return false, nil
	default:
		return false, fmt.Errorf("fractional value %v for %s", v, what)
	}
}
