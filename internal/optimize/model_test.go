package optimize

import (
	"strings"
	"testing"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

func constraintNames(m *Model) map[string]bool {
	names := make(map[string]bool, len(m.Cons))
	for _, con := range m.Cons {
		names[con.Name] = true
	}
	return names
}

func TestBuildModelVariableLayout(t *testing.T) {
	catalog := threeWellCatalog(t)
	mapping := map[int][]string{1: {"w1", "w2"}, 2: {"w3"}}
	in := testInput(t, catalog, mapping, 150e6, threeWellCosts, nil)

	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}

	// Campaign 1: 1 campaign var + 2 well vars + 2 count vars.
	// Campaign 2: 1 + 1 + 1. Plus the slack.
	if got, want := len(m.Vars), 9; got != want {
		t.Errorf("len(Vars) = %d, want %d", got, want)
	}
	if m.CampaignVar(1) < 0 || m.CampaignVar(2) < 0 {
		t.Error("missing campaign variables")
	}
	if m.WellVar("w3") < 0 {
		t.Error("missing well variable for w3")
	}
	if m.CountVar(1, 2) < 0 {
		t.Error("missing count variable for campaign 1, n=2")
	}
	if m.CountVar(1, 3) != -1 {
		t.Error("count variable beyond campaign size should not exist")
	}
	if m.Vars[m.SlackVar].Binary {
		t.Error("slack variable marked binary")
	}
}

func TestBuildModelMulticommodityStructure(t *testing.T) {
	catalog := threeWellCatalog(t)
	mapping := map[int][]string{1: {"w1", "w2", "w3"}}
	in := testInput(t, catalog, mapping, 150e6, threeWellCosts, nil)

	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if m.Formulation != FormulationMulticommodity {
		t.Fatalf("default formulation = %q", m.Formulation)
	}
	names := constraintNames(m)
	for _, want := range []string{"campaign-length[1]", "symmetry[1]", "budget", "budget-slack"} {
		if !names[want] {
			t.Errorf("missing constraint %q", want)
		}
	}
	if names["ordering[1,2]"] {
		t.Error("multicommodity model has ordering constraints")
	}
}

func TestBuildModelIncrementalStructure(t *testing.T) {
	catalog := threeWellCatalog(t)
	mapping := map[int][]string{1: {"w1", "w2", "w3"}}
	policy := &Policy{Formulation: ptrString(string(FormulationIncremental))}
	in := testInput(t, catalog, mapping, 150e6, threeWellCosts, policy)

	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	names := constraintNames(m)
	for _, want := range []string{"campaign-length[1]", "ordering[1,1]", "ordering[1,2]", "ordering[1,3]"} {
		if !names[want] {
			t.Errorf("missing constraint %q", want)
		}
	}
	if names["symmetry[1]"] {
		t.Error("incremental model has a symmetry constraint")
	}

	// Marginal cost coefficients: 100, 50, 30 (scaled millions).
	cost := m.CostTerms(1)
	if len(cost) != 3 {
		t.Fatalf("cost terms = %d, want 3", len(cost))
	}
	wantCoefs := []float64{100, 50, 30}
	for i, term := range cost {
		if term.Coef != wantCoefs[i] {
			t.Errorf("cost coef %d = %v, want %v", i, term.Coef, wantCoefs[i])
		}
	}
}

func TestBuildModelOptionalConstraints(t *testing.T) {
	catalog := threeWellCatalog(t)
	mapping := map[int][]string{1: {"w1", "w2", "w3"}}

	t.Run("none without policy", func(t *testing.T) {
		in := testInput(t, catalog, mapping, 150e6, threeWellCosts, nil)
		m, err := BuildModel(in, nil)
		if err != nil {
			t.Fatalf("BuildModel: %v", err)
		}
		names := constraintNames(m)
		for name := range names {
			if strings.HasPrefix(name, "dac-") || strings.HasPrefix(name, "owner-") ||
				strings.HasPrefix(name, "project-") || name == "min-budget-usage" {
				t.Errorf("unexpected optional constraint %q", name)
			}
		}
	})

	t.Run("all enabled", func(t *testing.T) {
		policy := &Policy{
			DACFractionPercent:     ptrFloat64(40),
			MaxWellsPerOwner:       ptrInt(1),
			ProjectMaxSpend:        ptrFloat64(160e6),
			MinBudgetUsageFraction: ptrFloat64(0.5),
		}
		// 300M funds all three wells, so min-budget-usage applies.
		in := testInput(t, catalog, mapping, 300e6, threeWellCosts, policy)
		m, err := BuildModel(in, nil)
		if err != nil {
			t.Fatalf("BuildModel: %v", err)
		}
		names := constraintNames(m)
		for _, want := range []string{"dac-fairness", "owner-cap[acme]", "owner-cap[sooner]", "project-spend[1]", "min-budget-usage"} {
			if !names[want] {
				t.Errorf("missing constraint %q", want)
			}
		}
	})

	t.Run("min usage dropped when budget insufficient", func(t *testing.T) {
		policy := &Policy{MinBudgetUsageFraction: ptrFloat64(0.5)}
		in := testInput(t, catalog, mapping, 150e6, threeWellCosts, policy)
		m, err := BuildModel(in, nil)
		if err != nil {
			t.Fatalf("BuildModel: %v", err)
		}
		if constraintNames(m)["min-budget-usage"] {
			t.Error("min-budget-usage present despite insufficient budget")
		}
		if m.BudgetSufficient {
			t.Error("BudgetSufficient = true for a 150M budget")
		}
	})
}

func TestBuildModelDistanceCuts(t *testing.T) {
	catalog := testCatalog(t, []wells.Well{
		{ID: "near1", Latitude: 40.0, Longitude: -100.0, Score: 30, Owner: "a"},
		{ID: "near2", Latitude: 40.0 + latOffset(1), Longitude: -100.0, Score: 20, Owner: "b"},
		{ID: "far", Latitude: 40.0 + latOffset(8), Longitude: -100.0, Score: 10, Owner: "c"},
	})
	mapping := map[int][]string{1: {"near1", "near2", "far"}}
	policy := &Policy{DistanceThresholdMiles: ptrFloat64(5)}
	in := testInput(t, catalog, mapping, 500e6, threeWellCosts, policy)

	m, err := BuildModel(in, nil)
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	cuts := 0
	for _, con := range m.Cons {
		if strings.HasPrefix(con.Name, "distance[") {
			cuts++
		}
	}
	// near1-far and near2-far exceed 5 miles; near1-near2 does not.
	if cuts != 2 {
		t.Errorf("eager distance cuts = %d, want 2", cuts)
	}

	lazyPolicy := &Policy{DistanceThresholdMiles: ptrFloat64(5), LazyDistanceCuts: ptrBool(true)}
	lazyIn := testInput(t, catalog, mapping, 500e6, threeWellCosts, lazyPolicy)
	lm, err := BuildModel(lazyIn, nil)
	if err != nil {
		t.Fatalf("BuildModel lazy: %v", err)
	}
	for _, con := range lm.Cons {
		if strings.HasPrefix(con.Name, "distance[") {
			t.Errorf("lazy model has eager cut %q", con.Name)
		}
	}
	if lm.DistanceCutFunc() == nil {
		t.Error("DistanceCutFunc = nil with a threshold configured")
	}
}

func TestBuildModelOverlayValidation(t *testing.T) {
	catalog := threeWellCatalog(t)
	mapping := map[int][]string{1: {"w1", "w2", "w3"}}
	in := testInput(t, catalog, mapping, 150e6, threeWellCosts, nil)

	cases := []struct {
		name string
		fix  *FixOverlay
	}{
		{"unknown campaign", &FixOverlay{Campaigns: map[int]float64{9: 1}}},
		{"unknown well", &FixOverlay{Wells: map[string]float64{"ghost": 1}}},
		{"fractional value", &FixOverlay{Wells: map[string]float64{"w1": 0.5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BuildModel(in, tc.fix); !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	m, err := BuildModel(in, &FixOverlay{Wells: map[string]float64{"w1": 0}})
	if err != nil {
		t.Fatalf("BuildModel with valid overlay: %v", err)
	}
	v := m.Vars[m.WellVar("w1")]
	if !v.Fixed || v.FixValue != 0 {
		t.Errorf("w1 variable not fixed to 0: %+v", v)
	}
}
