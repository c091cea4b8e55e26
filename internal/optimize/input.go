package optimize

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

// budgetScale converts dollars to the model's money unit (million
// USD). The model works in scaled units to avoid numerical issues;
// extraction converts back.
const budgetScale = 1e6

// CampaignCandidate is a pre-clustered group of co-locatable wells
// considered for joint plugging. Pairwise metrics are restricted to
// member pairs; cross-campaign pairs are never compared.
type CampaignCandidate struct {
	ID      int
	WellIDs []string

	// Pairwise matrices indexed by member position in WellIDs.
	Distance   *mat.SymDense // miles
	AgeRange   *mat.SymDense // years, absolute difference
	DepthRange *mat.SymDense // feet, absolute difference
}

// memberIndex returns the position of a well id within the candidate,
// or -1 if the well is not a member.
func (c *CampaignCandidate) memberIndex(wellID string) int {
	for i, id := range c.WellIDs {
		if id == wellID {
			return i
		}
	}
	return -1
}

// OwnerWell locates one well of an owner: the campaign holding it and
// the well id.
type OwnerWell struct {
	Campaign int
	WellID   string
}

// OptimizationInput is the immutable bundle of all model inputs for
// one solve. It is built once per run and never mutated in place;
// override edits produce fixed-variable overlays instead, so prior
// results stay valid for comparison.
type OptimizationInput struct {
	Budget     float64 // USD
	Costs      wells.CostSchedule
	Candidates []CampaignCandidate
	Policy     *Policy

	catalog      *wells.Catalog
	ownerIndex   map[string][]OwnerWell
	wellCampaign map[string]int // well id -> campaign id
}

// NewOptimizationInput validates and assembles the inputs for one
// optimization run.
//
// If mapping is nil, campaign candidates are derived by clustering the
// catalog under the policy's distance threshold and the chosen cluster
// id is written back onto each well record. Derivation is idempotent:
// when the catalog already carries cluster assignments they are reused
// and a warning is logged instead of re-clustering.
func NewOptimizationInput(catalog *wells.Catalog, mapping map[int][]string, budget float64, costs wells.CostSchedule, policy *Policy) (*OptimizationInput, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, validationErrorf("well catalog is empty")
	}
	if math.IsNaN(budget) || budget <= 0 {
		return nil, validationErrorf("budget must be positive, got %v", budget)
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	if mapping == nil {
		if catalog.HasClusters() {
			log.Printf("catalog already carries cluster assignments; skipping campaign derivation")
			mapping = catalog.ClusterMapping()
		} else {
			threshold := 10.0 // default grouping radius in miles
			if policy != nil && policy.DistanceThresholdMiles != nil {
				threshold = *policy.DistanceThresholdMiles
			}
			mapping = DeriveCampaigns(catalog, threshold)
		}
	}
	if len(mapping) == 0 {
		return nil, validationErrorf("campaign mapping is empty")
	}

	in := &OptimizationInput{
		Budget:       budget,
		Costs:        costs,
		Policy:       policy,
		catalog:      catalog,
		ownerIndex:   make(map[string][]OwnerWell),
		wellCampaign: make(map[string]int),
	}

	// Validate membership and build candidates in campaign id order.
	maxSize := 0
	for _, id := range sortedCampaignIDs(mapping) {
		members := mapping[id]
		if len(members) == 0 {
			return nil, validationErrorf("campaign %d has no member wells", id)
		}
		cand := CampaignCandidate{ID: id, WellIDs: append([]string(nil), members...)}
		for _, wellID := range members {
			w := catalog.Get(wellID)
			if w == nil {
				return nil, validationErrorf("campaign %d references unknown well %q", id, wellID)
			}
			if prev, ok := in.wellCampaign[wellID]; ok {
				return nil, validationErrorf("well %q belongs to both campaign %d and campaign %d", wellID, prev, id)
			}
			in.wellCampaign[wellID] = id
		}
		if len(members) > maxSize {
			maxSize = len(members)
		}
		in.Candidates = append(in.Candidates, cand)
	}

	if err := costs.Validate(maxSize); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	// Write the chosen cluster id back onto each well record exactly
	// once. Wells already assigned keep their value with a warning.
	for wellID, campaignID := range in.wellCampaign {
		w := catalog.Get(wellID)
		if w.Cluster != 0 && w.Cluster != campaignID {
			log.Printf("well %q already assigned to cluster %d; keeping existing assignment over %d", wellID, w.Cluster, campaignID)
			continue
		}
		w.Cluster = campaignID
	}

	in.buildOwnerIndex()
	in.buildPairwiseMatrices()
	return in, nil
}

// buildOwnerIndex derives owner name -> list of (campaign, well)
// pairs, used by the ownership-diversity constraint and feasibility
// diagnostics. Lists are deterministic: campaign id, then member order.
func (in *OptimizationInput) buildOwnerIndex() {
	for _, cand := range in.Candidates {
		for _, wellID := range cand.WellIDs {
			w := in.catalog.Get(wellID)
			in.ownerIndex[w.Owner] = append(in.ownerIndex[w.Owner], OwnerWell{Campaign: cand.ID, WellID: wellID})
		}
	}
}

// buildPairwiseMatrices fills the per-campaign distance, age-range and
// depth-range matrices. Only pairs within the same campaign are ever
// compared.
func (in *OptimizationInput) buildPairwiseMatrices() {
	for i := range in.Candidates {
		cand := &in.Candidates[i]
		n := len(cand.WellIDs)
		cand.Distance = mat.NewSymDense(n, nil)
		cand.AgeRange = mat.NewSymDense(n, nil)
		cand.DepthRange = mat.NewSymDense(n, nil)
		for a := 0; a < n; a++ {
			wa := in.catalog.Get(cand.WellIDs[a])
			for b := a + 1; b < n; b++ {
				wb := in.catalog.Get(cand.WellIDs[b])
				cand.Distance.SetSym(a, b, wells.Distance(wa, wb))
				cand.AgeRange.SetSym(a, b, math.Abs(wa.AgeYears-wb.AgeYears))
				cand.DepthRange.SetSym(a, b, math.Abs(wa.DepthFt-wb.DepthFt))
			}
		}
	}
}

// Well returns the catalog record for a well id, or nil if unknown.
func (in *OptimizationInput) Well(id string) *wells.Well {
	return in.catalog.Get(id)
}

// CampaignOf returns the campaign id holding the given well and
// whether the well is known.
func (in *OptimizationInput) CampaignOf(wellID string) (int, bool) {
	id, ok := in.wellCampaign[wellID]
	return id, ok
}

// Candidate returns the campaign candidate with the given id, or nil.
func (in *OptimizationInput) Candidate(id int) *CampaignCandidate {
	for i := range in.Candidates {
		if in.Candidates[i].ID == id {
			return &in.Candidates[i]
		}
	}
	return nil
}

// Owners returns the owner names in the owner index, sorted.
func (in *OptimizationInput) Owners() []string {
	owners := make([]string, 0, len(in.ownerIndex))
	for owner := range in.ownerIndex {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// OwnerWells returns the (campaign, well) pairs for an owner.
func (in *OptimizationInput) OwnerWells(owner string) []OwnerWell {
	return in.ownerIndex[owner]
}

// TotalWells returns the number of wells across all candidates.
func (in *OptimizationInput) TotalWells() int {
	return len(in.wellCampaign)
}

// ScaledBudget returns the budget in model money units.
func (in *OptimizationInput) ScaledBudget() float64 {
	return in.Budget / budgetScale
}

// ScaledCost returns the mobilization cost for n wells in model money
// units.
func (in *OptimizationInput) ScaledCost(n int) float64 {
	return in.Costs[n] / budgetScale
}

// slackScaling computes the unused-budget penalty coefficient for the
// objective, and whether the budget is sufficient to plug every well.
// The coefficient is chosen so that leaving one more well's worth of
// budget unused is never more attractive than selecting the
// lowest-scoring well still affordable.
func (in *OptimizationInput) slackScaling() (factor float64, budgetSufficient bool) {
	unitCost := in.Costs.UnitCost() / budgetScale
	scaledBudget := in.ScaledBudget()
	maxScore := in.catalog.MaxScore()
	if maxScore == 0 {
		maxScore = 1
	}

	maxFundable := scaledBudget / unitCost
	totalWells := float64(in.TotalWells())
	if maxFundable < totalWells {
		// Budget-insufficient case: scale by the number of wells
		// fundable under budget.
		return maxFundable * maxScore / scaledBudget, false
	}
	// Budget-sufficient case: scale by the total well count.
	return totalWells * maxScore / scaledBudget, true
}
