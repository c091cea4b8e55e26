package optimize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Formulation selects the encoding for "cost as a function of wells
// chosen" in a campaign.
type Formulation string

const (
	// FormulationMulticommodity encodes cost = sum(cost[n] * q[n]) with
	// exactly one count indicator active per selected campaign.
	FormulationMulticommodity Formulation = "multicommodity"
	// FormulationIncremental encodes cost through marginal deltas with a
	// monotone ordering chain over the count indicators.
	FormulationIncremental Formulation = "incremental"
)

// Policy holds the optional optimization policy knobs. The schema uses
// pointer fields so a JSON file can set only the knobs it cares about;
// a nil field means the corresponding constraint is omitted entirely.
type Policy struct {
	// Optional constraints, enabled by presence.
	DistanceThresholdMiles *float64 `json:"distance_threshold_miles,omitempty"`
	DACFractionPercent     *float64 `json:"dac_fraction_percent,omitempty"`
	MaxWellsPerOwner       *int     `json:"max_wells_per_owner,omitempty"`
	ProjectMaxSpend        *float64 `json:"project_max_spend,omitempty"`

	// MinBudgetUsageFraction floors total spend at this fraction of the
	// budget, applied only when the budget is sufficient to plug every
	// well. A heuristic policy constant, not a derived bound.
	MinBudgetUsageFraction *float64 `json:"min_budget_usage_fraction,omitempty"`

	// Formulation selects the cost encoding; defaults to multicommodity.
	Formulation *string `json:"formulation,omitempty"`

	// LazyDistanceCuts switches distance cuts from up-front enumeration
	// to callback-generated cuts during the solve.
	LazyDistanceCuts *bool `json:"lazy_distance_cuts,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// DefaultMinBudgetUsageFraction is the fallback spend floor used when
// the knob is enabled without a value.
const DefaultMinBudgetUsageFraction = 0.5

// GetFormulation returns the configured formulation, defaulting to
// multicommodity.
func (p *Policy) GetFormulation() Formulation {
	if p == nil || p.Formulation == nil {
		return FormulationMulticommodity
	}
	return Formulation(*p.Formulation)
}

// GetLazyDistanceCuts reports whether distance cuts should be added
// lazily during the solve rather than enumerated up front.
func (p *Policy) GetLazyDistanceCuts() bool {
	if p == nil || p.LazyDistanceCuts == nil {
		return false
	}
	return *p.LazyDistanceCuts
}

// GetMinBudgetUsageFraction returns the configured spend floor
// fraction, defaulting to DefaultMinBudgetUsageFraction when enabled
// without a value. The second return reports whether the knob is set.
func (p *Policy) GetMinBudgetUsageFraction() (float64, bool) {
	if p == nil || p.MinBudgetUsageFraction == nil {
		return 0, false
	}
	return *p.MinBudgetUsageFraction, true
}

// validate checks the percentage- and range-typed knobs.
func (p *Policy) validate() error {
	if p == nil {
		return nil
	}
	if p.DACFractionPercent != nil {
		if v := *p.DACFractionPercent; v < 0 || v > 100 {
			return validationErrorf("dac_fraction_percent %v outside [0, 100]", v)
		}
	}
	if p.MaxWellsPerOwner != nil && *p.MaxWellsPerOwner < 0 {
		return validationErrorf("max_wells_per_owner %d is negative", *p.MaxWellsPerOwner)
	}
	if p.DistanceThresholdMiles != nil && *p.DistanceThresholdMiles < 0 {
		return validationErrorf("distance_threshold_miles %v is negative", *p.DistanceThresholdMiles)
	}
	if p.ProjectMaxSpend != nil && *p.ProjectMaxSpend < 0 {
		return validationErrorf("project_max_spend %v is negative", *p.ProjectMaxSpend)
	}
	if p.MinBudgetUsageFraction != nil {
		if v := *p.MinBudgetUsageFraction; v < 0 || v > 1 {
			return validationErrorf("min_budget_usage_fraction %v outside [0, 1]", v)
		}
	}
	if p.Formulation != nil {
		switch Formulation(*p.Formulation) {
		case FormulationMulticommodity, FormulationIncremental:
		default:
			return validationErrorf("unknown formulation %q", *p.Formulation)
		}
	}
	return nil
}

// LoadPolicy loads a Policy from a JSON file. Fields omitted from the
// file stay nil, so partial policies are safe.
func LoadPolicy(path string) (*Policy, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("policy file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat policy file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("policy file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	p := &Policy{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
