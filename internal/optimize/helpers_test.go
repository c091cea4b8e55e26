package optimize

import (
	"context"
	"testing"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

// latOffset converts miles to degrees of latitude, for laying out test
// wells at known pairwise distances along a meridian.
func latOffset(miles float64) float64 { return miles / 69.0934 }

func testCatalog(t *testing.T, records []wells.Well) *wells.Catalog {
	t.Helper()
	c, err := wells.NewCatalog(records)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func testInput(t *testing.T, catalog *wells.Catalog, mapping map[int][]string, budget float64, costs wells.CostSchedule, policy *Policy) *OptimizationInput {
	t.Helper()
	in, err := NewOptimizationInput(catalog, mapping, budget, costs, policy)
	if err != nil {
		t.Fatalf("NewOptimizationInput: %v", err)
	}
	return in
}

func solveInput(t *testing.T, in *OptimizationInput, opts SolveOptions) (*Model, *SolveResult) {
	t.Helper()
	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	res, err := Solve(context.Background(), m, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return m, res
}

// solveAndExtract runs the default solver and extracts the plan.
func solveAndExtract(t *testing.T, in *OptimizationInput) *ProjectResult {
	t.Helper()
	m, res := solveInput(t, in, SolveOptions{})
	pr, err := ExtractResult(m, res)
	if err != nil {
		t.Fatalf("ExtractResult: %v", err)
	}
	return pr
}

// selectedWells flattens a result's picks into a set.
func selectedWells(pr *ProjectResult) map[string]bool {
	picked := make(map[string]bool)
	for _, sel := range pr.Selections {
		for _, wellID := range sel.Wells {
			picked[wellID] = true
		}
	}
	return picked
}
