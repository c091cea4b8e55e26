package wells

import (
	"fmt"
	"math"
	"sort"
)

// Well is one candidate abandoned well. Records arrive from upstream
// scoring with a finalized priority score in [0, 100]; the catalog
// rejects anything outside that range.
type Well struct {
	ID            string
	Latitude      float64
	Longitude     float64
	Score         float64 // priority score, 0-100
	Owner         string
	Disadvantaged bool // well sits in a disadvantaged community
	AgeYears      float64
	DepthFt       float64

	// Cluster is the campaign assignment written back by the input
	// assembler. Zero means unassigned.
	Cluster int
}

// Catalog holds the scored well inventory keyed by well id.
type Catalog struct {
	Wells []Well

	byID map[string]int // well id -> index into Wells
}

// NewCatalog builds a catalog from well records. It rejects duplicate
// ids and scores outside [0, 100].
func NewCatalog(records []Well) (*Catalog, error) {
	c := &Catalog{
		Wells: make([]Well, len(records)),
		byID:  make(map[string]int, len(records)),
	}
	copy(c.Wells, records)

	for i, w := range c.Wells {
		if w.ID == "" {
			return nil, fmt.Errorf("well at index %d has an empty id", i)
		}
		if _, ok := c.byID[w.ID]; ok {
			return nil, fmt.Errorf("duplicate well id %q", w.ID)
		}
		if math.IsNaN(w.Score) || w.Score < 0 || w.Score > 100 {
			return nil, fmt.Errorf("well %q has priority score %v outside [0, 100]", w.ID, w.Score)
		}
		c.byID[w.ID] = i
	}
	return c, nil
}

// Get returns a pointer to the well with the given id, or nil if the
// id is unknown. The pointer aliases catalog storage so cluster
// assignments written through it are visible to later reads.
func (c *Catalog) Get(id string) *Well {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &c.Wells[i]
}

// Len returns the number of wells in the catalog.
func (c *Catalog) Len() int { return len(c.Wells) }

// HasClusters reports whether every well already carries a cluster
// assignment. Used to keep campaign derivation idempotent.
func (c *Catalog) HasClusters() bool {
	if len(c.Wells) == 0 {
		return false
	}
	for _, w := range c.Wells {
		if w.Cluster == 0 {
			return false
		}
	}
	return true
}

// ClusterMapping returns the campaign -> member well ids mapping
// implied by the cluster assignments on the wells. Member order is
// catalog order, so the mapping is deterministic.
func (c *Catalog) ClusterMapping() map[int][]string {
	mapping := make(map[int][]string)
	for _, w := range c.Wells {
		if w.Cluster == 0 {
			continue
		}
		mapping[w.Cluster] = append(mapping[w.Cluster], w.ID)
	}
	return mapping
}

// MaxScore returns the largest priority score in the catalog, or 0
// for an empty catalog.
func (c *Catalog) MaxScore() float64 {
	max := 0.0
	for _, w := range c.Wells {
		if w.Score > max {
			max = w.Score
		}
	}
	return max
}

// CostSchedule maps a campaign's selected well count to the
// mobilization cost (USD) of plugging that many wells in one
// campaign. Costs are a step function of the count, not per well.
type CostSchedule map[int]float64

// Validate checks that the schedule has a non-negative entry for
// every well count from 1 up to maxWells.
func (s CostSchedule) Validate(maxWells int) error {
	if maxWells < 1 {
		return fmt.Errorf("cost schedule validation requires a positive max well count, got %d", maxWells)
	}
	for n := 1; n <= maxWells; n++ {
		cost, ok := s[n]
		if !ok {
			return fmt.Errorf("cost schedule missing entry for %d wells", n)
		}
		if math.IsNaN(cost) || cost < 0 {
			return fmt.Errorf("cost schedule entry for %d wells is negative: %v", n, cost)
		}
	}
	return nil
}

// UnitCost returns the cheapest per-well cost across the schedule,
// min over n of cost(n)/n. Used to estimate how many wells the budget
// could fund at best.
func (s CostSchedule) UnitCost() float64 {
	unit := math.Inf(1)
	for n, cost := range s {
		if n < 1 {
			continue
		}
		if per := cost / float64(n); per < unit {
			unit = per
		}
	}
	return unit
}

// Counts returns the schedule's well counts in ascending order.
func (s CostSchedule) Counts() []int {
	counts := make([]int, 0, len(s))
	for n := range s {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}
