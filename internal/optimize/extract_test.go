package optimize

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestExtractResultIdempotent(t *testing.T) {
	catalog, mapping := scoredCampaign(t, 10, 20, 30)
	in := testInput(t, catalog, mapping, 150e6, stepCosts, nil)
	m, res := solveInput(t, in, SolveOptions{})

	first, err := ExtractResult(m, res)
	if err != nil {
		t.Fatalf("first extraction: %v", err)
	}
	second, err := ExtractResult(m, res)
	if err != nil {
		t.Fatalf("second extraction: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("extraction not idempotent (-first +second):\n%s", diff)
	}
	if first.RunID != res.RunID {
		t.Errorf("RunID = %s, want %s", first.RunID, res.RunID)
	}
}

func TestExtractResultCountConsistency(t *testing.T) {
	catalog, mapping := scoredCampaign(t, 10, 20, 30)
	in := testInput(t, catalog, mapping, 150e6, stepCosts, nil)
	m, res := solveInput(t, in, SolveOptions{})

	pr, err := ExtractResult(m, res)
	if err != nil {
		t.Fatalf("ExtractResult: %v", err)
	}
	for _, sel := range pr.Selections {
		if sel.Count != len(sel.Wells) {
			t.Errorf("campaign %d: Count %d != %d wells", sel.Campaign, sel.Count, len(sel.Wells))
		}
	}
	// Cost of two wells under the schedule.
	if pr.Selections[0].Cost != 150e6 {
		t.Errorf("campaign cost = %v, want 150e6", pr.Selections[0].Cost)
	}
}

func TestExtractResultRejectsFractional(t *testing.T) {
	catalog, mapping := scoredCampaign(t, 10, 20, 30)
	in := testInput(t, catalog, mapping, 150e6, stepCosts, nil)
	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}

	values := make([]float64, len(m.Vars))
	values[m.CampaignVar(1)] = 1
	values[m.WellVar("a")] = 0.5
	res := &SolveResult{Outcome: OutcomeOptimal, Best: &Solution{Values: values}}

	_, err = ExtractResult(m, res)
	if err == nil || !strings.Contains(err.Error(), "fractional") {
		t.Errorf("expected fractional value error, got %v", err)
	}
}

func TestExtractResultInfeasible(t *testing.T) {
	catalog, mapping := scoredCampaign(t, 10, 20, 30)
	in := testInput(t, catalog, mapping, 150e6, stepCosts, nil)
	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}

	pr, err := ExtractResult(m, &SolveResult{Outcome: OutcomeInfeasible})
	if err != nil {
		t.Fatalf("ExtractResult: %v", err)
	}
	if pr.Outcome != OutcomeInfeasible || len(pr.Selections) != 0 {
		t.Errorf("infeasible extraction = %+v", pr)
	}
	if pr.UnusedBudget != in.Budget {
		t.Errorf("UnusedBudget = %v, want full budget", pr.UnusedBudget)
	}
}
