package optimize

import (
	"context"
	"fmt"
	"sort"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

// SelectionState tracks a working selection through the override
// lifecycle.
type SelectionState int

const (
	// StateSolved means the selection mirrors an extracted result and
	// has not been edited.
	StateSolved SelectionState = iota
	// StateEdited means manual edits were applied but not yet assessed.
	StateEdited
	// StateFeasible means the last assessment passed every policy check.
	StateFeasible
	// StateInfeasible means the last assessment found a violation.
	StateInfeasible
	// StateResolved means a re-optimization with locks honored produced
	// a fresh result.
	StateResolved
)

func (s SelectionState) String() string {
	switch s {
	case StateSolved:
		return "solved"
	case StateEdited:
		return "edited"
	case StateFeasible:
		return "feasible"
	case StateInfeasible:
		return "infeasible"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CampaignWell addresses one well within a campaign.
type CampaignWell struct {
	Campaign int
	WellID   string
}

// OverrideEdit is one batch of manual changes to a working selection.
type OverrideEdit struct {
	// Remove drops currently selected (campaign, well) pairs. Removed
	// wells are excluded from backfill and fixed to zero on re-solve.
	Remove []CampaignWell
	// Add inserts wells into a target campaign, which may be a campaign
	// id not present in the original candidates.
	Add []CampaignWell
	// LockWells pins selected wells so a re-solve keeps them.
	LockWells []string
	// LockCampaigns pins whole campaigns open on re-solve.
	LockCampaigns []int
}

// OwnerViolation reports one owner whose selected well count exceeds
// the ownership cap.
type OwnerViolation struct {
	Owner string
	Count int
	Cap   int
	Wells []string
}

// DistanceViolation reports one within-campaign well pair farther
// apart than the distance threshold.
type DistanceViolation struct {
	Campaign      int
	WellA, WellB  string
	DistanceMiles float64
}

// FeasibilityReport is the structured outcome of a pure feasibility
// assessment. Violations carry enough detail to explain themselves;
// money figures are in dollars.
type FeasibilityReport struct {
	Feasible  bool
	TotalCost float64

	// BudgetViolation is total realized cost minus budget; positive
	// means the selection overspends.
	BudgetViolation float64
	// DACViolation is the required disadvantaged-community well count
	// minus the selected one; positive means the quota is missed.
	DACViolation float64

	OwnerViolations    []OwnerViolation
	DistanceViolations []DistanceViolation
}

// WorkingSelection is the override engine's mutable, single-owner
// state: a literal set of (campaign, well) picks plus the edit
// bookkeeping needed for backfill and re-solve. Concurrent use must be
// serialized by the caller; the underlying OptimizationInput is only
// ever read.
type WorkingSelection struct {
	in *OptimizationInput

	selected map[string]int // well id -> campaign id
	removed  map[string]bool

	lockedWells     map[string]bool
	lockedCampaigns map[int]bool

	state SelectionState
}

// NewWorkingSelection seeds a working selection from an extracted
// result.
func NewWorkingSelection(in *OptimizationInput, result *ProjectResult) (*WorkingSelection, error) {
	if in == nil {
		return nil, validationErrorf("nil optimization input")
	}
	ws := &WorkingSelection{
		in:              in,
		selected:        make(map[string]int),
		removed:         make(map[string]bool),
		lockedWells:     make(map[string]bool),
		lockedCampaigns: make(map[int]bool),
		state:           StateSolved,
	}
	if result != nil {
		for _, sel := range result.Selections {
			for _, wellID := range sel.Wells {
				ws.selected[wellID] = sel.Campaign
			}
		}
	}
	return ws, nil
}

// State returns the current lifecycle state.
func (ws *WorkingSelection) State() SelectionState { return ws.state }

// Wells returns the current picks, sorted by campaign then well id.
func (ws *WorkingSelection) Wells() []CampaignWell {
	out := make([]CampaignWell, 0, len(ws.selected))
	for wellID, campaign := range ws.selected {
		out = append(out, CampaignWell{Campaign: campaign, WellID: wellID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Campaign != out[j].Campaign {
			return out[i].Campaign < out[j].Campaign
		}
		return out[i].WellID < out[j].WellID
	})
	return out
}

// Apply applies one edit batch atomically: every reference is
// validated before any change lands, so a failed Apply leaves the
// selection untouched. Removals are processed before additions, so a
// remove+add pair moves a well between campaigns in one edit.
func (ws *WorkingSelection) Apply(edit *OverrideEdit) error {
	if edit == nil {
		return validationErrorf("nil override edit")
	}

	// Stage the edit on copies.
	selected := make(map[string]int, len(ws.selected))
	for k, v := range ws.selected {
		selected[k] = v
	}
	removed := make(map[string]bool, len(ws.removed))
	for k, v := range ws.removed {
		removed[k] = v
	}

	for _, cw := range edit.Remove {
		cur, ok := selected[cw.WellID]
		if !ok {
			return validationErrorf("cannot remove well %q: not in the working selection", cw.WellID)
		}
		if cur != cw.Campaign {
			return validationErrorf("cannot remove well %q from campaign %d: it is selected under campaign %d", cw.WellID, cw.Campaign, cur)
		}
		delete(selected, cw.WellID)
		removed[cw.WellID] = true
	}

	for _, cw := range edit.Add {
		if ws.in.Well(cw.WellID) == nil {
			return validationErrorf("cannot add unknown well %q", cw.WellID)
		}
		if cw.Campaign <= 0 {
			return validationErrorf("cannot add well %q to campaign %d: campaign ids are positive", cw.WellID, cw.Campaign)
		}
		if cur, ok := selected[cw.WellID]; ok {
			if cur == cw.Campaign {
				continue
			}
			return &DuplicateAssignmentError{WellID: cw.WellID, Existing: cur, Requested: cw.Campaign}
		}
		selected[cw.WellID] = cw.Campaign
		delete(removed, cw.WellID)
	}

	for _, wellID := range edit.LockWells {
		if _, ok := selected[wellID]; !ok {
			return validationErrorf("cannot lock well %q: not in the working selection", wellID)
		}
	}
	campaignPresent := make(map[int]bool)
	for _, campaign := range selected {
		campaignPresent[campaign] = true
	}
	for _, campaign := range edit.LockCampaigns {
		if !campaignPresent[campaign] {
			return validationErrorf("cannot lock campaign %d: no selected wells", campaign)
		}
	}

	// Commit.
	ws.selected = selected
	ws.removed = removed
	for _, wellID := range edit.LockWells {
		ws.lockedWells[wellID] = true
	}
	for _, campaign := range edit.LockCampaigns {
		ws.lockedCampaigns[campaign] = true
	}
	ws.state = StateEdited
	return nil
}

// Assess recomputes feasibility of the working selection against the
// budget and every configured policy constraint. It never fails:
// infeasibility is a normal, reportable outcome.
func (ws *WorkingSelection) Assess() *FeasibilityReport {
	report := ws.assess()
	if report.Feasible {
		ws.state = StateFeasible
	} else {
		ws.state = StateInfeasible
	}
	return report
}

// assess is the side-effect-free feasibility computation shared by
// Assess and Backfill.
func (ws *WorkingSelection) assess() *FeasibilityReport {
	in := ws.in
	p := in.Policy
	report := &FeasibilityReport{}

	byCampaign := make(map[int][]string)
	for wellID, campaign := range ws.selected {
		byCampaign[campaign] = append(byCampaign[campaign], wellID)
	}
	for _, members := range byCampaign {
		sort.Strings(members)
	}

	for _, members := range byCampaign {
		report.TotalCost += ws.realizedCost(len(members))
	}
	report.BudgetViolation = report.TotalCost - in.Budget

	if p != nil && p.DACFractionPercent != nil {
		frac := *p.DACFractionPercent / 100
		dac := 0
		for wellID := range ws.selected {
			if in.Well(wellID).Disadvantaged {
				dac++
			}
		}
		report.DACViolation = frac*float64(len(ws.selected)) - float64(dac)
	}

	if p != nil && p.MaxWellsPerOwner != nil {
		maxPer := *p.MaxWellsPerOwner
		byOwner := make(map[string][]string)
		for wellID := range ws.selected {
			owner := in.Well(wellID).Owner
			byOwner[owner] = append(byOwner[owner], wellID)
		}
		owners := make([]string, 0, len(byOwner))
		for owner := range byOwner {
			owners = append(owners, owner)
		}
		sort.Strings(owners)
		for _, owner := range owners {
			picked := byOwner[owner]
			if len(picked) > maxPer {
				sort.Strings(picked)
				report.OwnerViolations = append(report.OwnerViolations, OwnerViolation{
					Owner: owner, Count: len(picked), Cap: maxPer, Wells: picked,
				})
			}
		}
	}

	if p != nil && p.DistanceThresholdMiles != nil {
		threshold := *p.DistanceThresholdMiles
		for _, campaign := range sortedCampaignKeys(byCampaign) {
			members := byCampaign[campaign]
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					d := wells.Distance(in.Well(members[a]), in.Well(members[b]))
					if d > threshold {
						report.DistanceViolations = append(report.DistanceViolations, DistanceViolation{
							Campaign: campaign, WellA: members[a], WellB: members[b], DistanceMiles: d,
						})
					}
				}
			}
		}
	}

	report.Feasible = report.BudgetViolation <= feasTol &&
		report.DACViolation <= feasTol &&
		len(report.OwnerViolations) == 0 &&
		len(report.DistanceViolations) == 0
	return report
}

// realizedCost prices one campaign by its realized well count. Counts
// beyond the cost schedule are priced at the cheapest per-well rate of
// the schedule times the count.
func (ws *WorkingSelection) realizedCost(count int) float64 {
	if count == 0 {
		return 0
	}
	if cost, ok := ws.in.Costs[count]; ok {
		return cost
	}
	return ws.in.Costs.UnitCost() * float64(count)
}

// Backfill greedily extends a feasible selection: every unselected,
// non-removed well in a campaign already present is tried in
// descending score order, kept if the selection stays feasible and
// reverted otherwise. One left-to-right pass, no backtracking. Returns
// the well ids actually added.
func (ws *WorkingSelection) Backfill() ([]string, error) {
	if report := ws.assess(); !report.Feasible {
		ws.state = StateInfeasible
		return nil, validationErrorf("backfill requires a feasible working selection")
	}

	present := make(map[int]bool)
	for _, campaign := range ws.selected {
		present[campaign] = true
	}

	type candidate struct {
		wellID   string
		campaign int
		score    float64
	}
	var candidates []candidate
	for _, cand := range ws.in.Candidates {
		if !present[cand.ID] {
			continue
		}
		for _, wellID := range cand.WellIDs {
			if _, picked := ws.selected[wellID]; picked || ws.removed[wellID] {
				continue
			}
			candidates = append(candidates, candidate{wellID, cand.ID, ws.in.Well(wellID).Score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].wellID < candidates[j].wellID
	})

	var added []string
	for _, c := range candidates {
		ws.selected[c.wellID] = c.campaign
		if ws.assess().Feasible {
			added = append(added, c.wellID)
		} else {
			delete(ws.selected, c.wellID)
		}
	}

	ws.state = StateFeasible
	return added, nil
}

// Reoptimize rebuilds the model with the edit decisions fixed (removed
// wells to 0, locked wells and campaigns to 1) and solves again. It is
// the only path that can change which unlocked wells are chosen.
// Solver failures propagate unchanged.
func (ws *WorkingSelection) Reoptimize(ctx context.Context, opts SolveOptions) (*ProjectResult, error) {
	fix := &FixOverlay{
		Campaigns: make(map[int]float64),
		Wells:     make(map[string]float64),
	}
	for wellID := range ws.removed {
		fix.Wells[wellID] = 0
	}
	for wellID := range ws.lockedWells {
		fix.Wells[wellID] = 1
	}
	for campaign := range ws.lockedCampaigns {
		fix.Campaigns[campaign] = 1
	}
	// Manually added wells are honored as locks, but only within the
	// well's candidate campaign; the model cannot reassign wells across
	// campaigns.
	for wellID, campaign := range ws.selected {
		home, ok := ws.in.CampaignOf(wellID)
		if !ok {
			continue
		}
		if campaign != home {
			return nil, validationErrorf("well %q is assigned to campaign %d but is a candidate of campaign %d; re-optimization cannot move wells across campaigns", wellID, campaign, home)
		}
		if ws.lockedWells[wellID] {
			fix.Wells[wellID] = 1
		}
	}

	m, err := BuildModel(ws.in, fix)
	if err != nil {
		return nil, err
	}
	res, err := Solve(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	pr, err := ExtractResult(m, res)
	if err != nil {
		return nil, err
	}
	if pr.Outcome != OutcomeInfeasible {
		ws.state = StateResolved
	}
	return pr, nil
}

func sortedCampaignKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
